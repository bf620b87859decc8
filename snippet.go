package krill

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SNIPPET BUILDING: The Whole Pipeline
// ═══════════════════════════════════════════════════════════════════════════════
//
//	Request ──► register positions ──► Resolve (one batch)
//	                                        │
//	        ┌───────────────────────────────┘
//	        ▼
//	computeWindow ──► window spans ──► buildEvents ──► reconcile ──► Snippet
//
// A Builder owns one Resolver. Consecutive requests for the same document
// reuse its cache; the first request for another document clears it.
// ═══════════════════════════════════════════════════════════════════════════════

// PrimarySource returns the primary text of a document.
type PrimarySource interface {
	Primary(docID int) (string, bool)
}

// AnnotationSource decodes annotation spans of a document in a token range.
type AnnotationSource interface {
	Annotations(docID, startPos, endPos int, prefixes ...string) []Interval
}

// Config controls snippet building.
type Config struct {
	Context ContextSpec
	// Workers bounds BuildAll's parallelism; values < 1 mean one worker.
	Workers int
	// AnnotationLayers are term prefixes ("snowball/l:", "<>:s") decoded
	// from the AnnotationSource for every match.
	AnnotationLayers []string
}

// DefaultConfig returns the default context and four workers.
func DefaultConfig() Config {
	return Config{
		Context: DefaultContext(),
		Workers: 4,
	}
}

// Request describes one match to render.
type Request struct {
	DocID       int
	Match       Interval
	Highlights  []Interval
	Annotations []Interval
	// Potential widens the match to element boundaries that fall between
	// tokens. A side set to -1 is ignored. Nil means no widening.
	Potential *OffsetPair
}

// NewRequest returns a request for the match [start, end) of docID.
func NewRequest(docID, start, end int) Request {
	return Request{DocID: docID, Match: MatchInterval(start, end)}
}

// Snippet is a rendered-ready match window.
type Snippet struct {
	DocID      int
	StartChar  int
	EndChar    int
	MatchStart int
	MatchEnd   int
	StartMore  bool
	EndMore    bool
	Text       string
	Items      []Item
	Titles     map[ClassID]string // annotation class → title
}

// Brackets renders the snippet in bracket notation.
func (s *Snippet) Brackets() string { return RenderBrackets(s) }

// HTML renders the snippet as markup.
func (s *Snippet) HTML() string {
	out, _ := RenderHTML(s)
	return out
}

// Builder turns requests into snippets.
type Builder struct {
	cfg         Config
	payloads    PayloadSource
	primary     PrimarySource
	annotations AnnotationSource
	resolver    *Resolver
	doc         int
	hasDoc      bool
}

// NewBuilder creates a builder reading offsets from payloads and text from
// primary. If primary also implements AnnotationSource and cfg names
// annotation layers, those layers are decoded for every match.
func NewBuilder(cfg Config, payloads PayloadSource, primary PrimarySource) *Builder {
	b := &Builder{
		cfg:      cfg,
		payloads: payloads,
		primary:  primary,
		resolver: NewResolver(payloads),
	}
	if as, ok := primary.(AnnotationSource); ok {
		b.annotations = as
	}
	return b
}

// Resolver exposes the builder's resolver.
func (b *Builder) Resolver() *Resolver { return b.resolver }

// clone returns a builder with the same sources and a private resolver.
func (b *Builder) clone() *Builder {
	return &Builder{
		cfg:         b.cfg,
		payloads:    b.payloads,
		primary:     b.primary,
		annotations: b.annotations,
		resolver:    NewResolver(b.payloads),
	}
}

// Build renders one request. Missing offsets degrade the snippet; only an
// unknown document or an invalid match interval is an error.
func (b *Builder) Build(req Request) (*Snippet, error) {
	if err := req.Match.Validate(); err != nil {
		return nil, fmt.Errorf("match in document %d: %w", req.DocID, err)
	}
	text, ok := b.primary.Primary(req.DocID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDocument, req.DocID)
	}
	if !b.hasDoc || b.doc != req.DocID {
		b.resolver.Clear()
		b.doc, b.hasDoc = req.DocID, true
	}

	r := b.resolver
	primary := []rune(text)
	wreq := windowRequest{
		docID:    req.DocID,
		match:    req.Match,
		potStart: -1,
		potEnd:   -1,
		context:  b.cfg.Context,
		primary:  primary,
	}
	if req.Potential != nil {
		wreq.potStart, wreq.potEnd = req.Potential.Start, req.Potential.End
	}

	annotations := req.Annotations
	if b.annotations != nil && len(b.cfg.AnnotationLayers) > 0 {
		decoded := b.annotations.Annotations(req.DocID, req.Match.StartPos, req.Match.EndPos, b.cfg.AnnotationLayers...)
		annotations = append(append([]Interval(nil), annotations...), decoded...)
	}

	// Register everything first so a single Resolve serves the snippet.
	contextProbes(wreq, r)
	highlights := b.validHighlights(req)
	for _, hl := range highlights {
		r.Add(req.DocID, hl.StartPos)
		r.Add(req.DocID, hl.EndPos-1)
	}
	for _, an := range annotations {
		switch {
		case an.HasChars() && an.EndPos == an.StartPos+1:
			r.AddOffset(req.DocID, an.StartPos, an.StartChar, an.EndChar)
		case !an.HasChars():
			r.Add(req.DocID, an.StartPos)
			r.Add(req.DocID, an.EndPos-1)
		}
	}
	r.Resolve()

	w := computeWindow(wreq, r)
	s := &Snippet{
		DocID:      req.DocID,
		StartChar:  w.StartChar,
		EndChar:    w.EndChar,
		MatchStart: w.MatchStart,
		MatchEnd:   w.MatchEnd,
		StartMore:  w.StartMore,
		EndMore:    w.EndMore,
		Text:       w.Text,
		Titles:     make(map[ClassID]string),
	}

	spans := make([]WindowSpan, 0, len(highlights)+len(annotations))
	for _, hl := range highlights {
		if ws, ok := b.windowSpan(req.DocID, hl, w); ok {
			spans = append(spans, ws)
		}
	}
	classes := make(map[string]ClassID)
	for _, an := range annotations {
		class, ok := classes[an.Title]
		if !ok {
			class = AnnotationClassBase + ClassID(len(classes))
			classes[an.Title] = class
			s.Titles[class] = an.Title
		}
		an.Class, an.Kind = class, KindSpan
		if ws, ok := b.windowSpan(req.DocID, an, w); ok {
			spans = append(spans, ws)
		}
	}

	ms, me := w.relative(w.MatchStart, w.MatchEnd)
	match := WindowSpan{Start: ms, End: me, Class: MatchClass, Kind: KindMatch}.clip(w.Len())

	s.Items = reconcile([]rune(w.Text), buildEvents(match, spans))
	return s, nil
}

func (b *Builder) validHighlights(req Request) []Interval {
	out := make([]Interval, 0, len(req.Highlights))
	for _, hl := range req.Highlights {
		// Highlights are token based; offsets always come from the resolver.
		hl.Kind, hl.StartChar, hl.EndChar = KindHighlight, -1, -1
		if err := hl.Validate(); err != nil {
			slog.Warn("highlight dropped", slog.Int("docID", req.DocID), slog.String("error", err.Error()))
			continue
		}
		out = append(out, hl)
	}
	return out
}

// windowSpan converts iv to window coordinates. Intervals whose offsets
// cannot be resolved are dropped.
func (b *Builder) windowSpan(docID int, iv Interval, w Window) (WindowSpan, bool) {
	start, end := iv.StartChar, iv.EndChar
	if !iv.HasChars() {
		pair, ok := b.resolver.Offsets(docID, iv.StartPos)
		last, okEnd := b.resolver.Offsets(docID, iv.EndPos-1)
		if !ok || !okEnd {
			slog.Warn("interval offsets unresolved",
				slog.Int("docID", docID), slog.Int("start", iv.StartPos), slog.Int("end", iv.EndPos))
			return WindowSpan{}, false
		}
		start, end = pair.Start, last.End
	}
	rs, re := w.relative(start, end)
	return WindowSpan{Start: rs, End: re, Class: iv.Class, Kind: iv.Kind}.clip(w.Len()), true
}

// Result pairs a request's snippet with its error.
type Result struct {
	Snippet *Snippet
	Err     error
}

// BuildAll renders many requests in parallel. Requests are grouped per
// document; each group runs on one worker with its own resolver, so the
// offset cache is shared by the matches of a document. Per-request errors
// are reported in the results; the returned error is only a cancellation.
func (b *Builder) BuildAll(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, len(reqs))

	var order []int
	groups := make(map[int][]int)
	for i, req := range reqs {
		if _, ok := groups[req.DocID]; !ok {
			order = append(order, req.DocID)
		}
		groups[req.DocID] = append(groups[req.DocID], i)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.cfg.Workers, 1))
	for _, doc := range order {
		idx := groups[doc]
		g.Go(func() error {
			worker := b.clone()
			for _, i := range idx {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[i].Snippet, results[i].Err = worker.Build(reqs[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
