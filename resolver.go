package krill

import (
	"log/slog"
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════════
// POSITION → OFFSET RESOLUTION
// ═══════════════════════════════════════════════════════════════════════════════
// Building one snippet touches many token positions: the match boundaries,
// every highlight and annotation endpoint, the context probes left and right.
// Looking each one up as it is needed would seek the term dictionary over and
// over, so resolution is LAZY and BATCHED:
//
//	r.Add(doc, 4)      ┐
//	r.Add(doc, 9)      ├─ pending: doc → {4, 9, 12}   (roaring bitmap, no dups)
//	r.Add(doc, 12)     ┘
//	r.Start(doc, 4)    → Resolve() runs once for all three, then answers
//	r.End(doc, 12)     → served from the cache
//
// The cache lives as long as the resolver. Reuse it for many matches of the
// SAME document and field; call Clear before moving on to another one.
// ═══════════════════════════════════════════════════════════════════════════════

// PayloadSource returns the payload of a term occurrence in a document of
// one annotation field. A missing term is reported with ok == false.
type PayloadSource interface {
	Payload(docID int, term string) (payload []byte, ok bool)
}

// PayloadFunc adapts a plain function to PayloadSource.
type PayloadFunc func(docID int, term string) ([]byte, bool)

// Payload calls f.
func (f PayloadFunc) Payload(docID int, term string) ([]byte, bool) {
	return f(docID, term)
}

type docPos struct {
	doc int
	pos int
}

// Resolver translates token positions into character offsets.
//
// A Resolver is not safe for concurrent mutation. Give every worker its own.
type Resolver struct {
	src     PayloadSource
	offsets map[docPos]OffsetPair
	pending map[int]*roaring.Bitmap // docID → positions waiting for lookup
	missing map[int]*roaring.Bitmap // docID → positions the source does not know
	lookups int
}

// NewResolver creates an empty resolver reading from src.
func NewResolver(src PayloadSource) *Resolver {
	return &Resolver{
		src:     src,
		offsets: make(map[docPos]OffsetPair),
		pending: make(map[int]*roaring.Bitmap),
		missing: make(map[int]*roaring.Bitmap),
	}
}

// Add records a position of interest. Negative, resolved, pending and known
// missing positions are ignored.
func (r *Resolver) Add(docID, pos int) {
	if pos < 0 {
		return
	}
	if _, ok := r.offsets[docPos{docID, pos}]; ok {
		return
	}
	if m, ok := r.missing[docID]; ok && m.Contains(uint32(pos)) {
		return
	}
	bm, ok := r.pending[docID]
	if !ok {
		bm = roaring.NewBitmap()
		r.pending[docID] = bm
	}
	bm.Add(uint32(pos))
}

// AddOffset stores offsets that are already known, e.g. from a decoded
// annotation payload. The position is no longer looked up.
func (r *Resolver) AddOffset(docID, pos, start, end int) {
	if pos < 0 {
		return
	}
	r.offsets[docPos{docID, pos}] = OffsetPair{Start: start, End: end}
	if bm, ok := r.pending[docID]; ok {
		bm.Remove(uint32(pos))
	}
	if m, ok := r.missing[docID]; ok {
		m.Remove(uint32(pos))
	}
}

// Resolve looks up every pending position in one pass. It is idempotent:
// without further Add calls a second Resolve does nothing.
func (r *Resolver) Resolve() {
	if len(r.pending) == 0 {
		return
	}

	docs := make([]int, 0, len(r.pending))
	for doc := range r.pending {
		docs = append(docs, doc)
	}
	sort.Ints(docs)

	for _, doc := range docs {
		it := r.pending[doc].Iterator()
		for it.HasNext() {
			r.lookup(doc, int(it.Next()))
		}
	}

	// Pending set is consumed; new Add calls reopen resolution.
	clear(r.pending)
}

func (r *Resolver) lookup(doc, pos int) {
	r.lookups++
	payload, ok := r.src.Payload(doc, PositionTerm(pos))
	if !ok {
		slog.Warn("offset lookup missed", slog.Int("docID", doc), slog.Int("pos", pos))
		r.markMissing(doc, pos)
		return
	}
	pair, err := DecodeOffsetPayload(payload)
	if err != nil {
		slog.Warn("offset payload unreadable",
			slog.Int("docID", doc), slog.Int("pos", pos), slog.String("error", err.Error()))
		r.markMissing(doc, pos)
		return
	}
	r.offsets[docPos{doc, pos}] = pair
}

func (r *Resolver) markMissing(doc, pos int) {
	m, ok := r.missing[doc]
	if !ok {
		m = roaring.NewBitmap()
		r.missing[doc] = m
	}
	m.Add(uint32(pos))
}

// Offsets returns the character range of pos, resolving it when needed.
func (r *Resolver) Offsets(docID, pos int) (OffsetPair, bool) {
	if pos < 0 {
		return OffsetPair{}, false
	}
	key := docPos{docID, pos}
	if pair, ok := r.offsets[key]; ok {
		return pair, true
	}
	r.Add(docID, pos)
	r.Resolve()
	pair, ok := r.offsets[key]
	return pair, ok
}

// Start returns the start offset of pos, or 0 if it cannot be resolved.
func (r *Resolver) Start(docID, pos int) int {
	pair, ok := r.Offsets(docID, pos)
	if !ok {
		return 0
	}
	return pair.Start
}

// End returns the end offset of pos, or -1 if it cannot be resolved.
func (r *Resolver) End(docID, pos int) int {
	pair, ok := r.Offsets(docID, pos)
	if !ok {
		return -1
	}
	return pair.End
}

// Has reports whether pos is already resolved. It never triggers a lookup.
func (r *Resolver) Has(docID, pos int) bool {
	_, ok := r.offsets[docPos{docID, pos}]
	return ok
}

// Pending returns the number of positions waiting for Resolve.
func (r *Resolver) Pending() int {
	n := 0
	for _, bm := range r.pending {
		n += int(bm.GetCardinality())
	}
	return n
}

// Lookups returns how many payload lookups the resolver has issued.
func (r *Resolver) Lookups() int { return r.lookups }

// Clear drops all cached, missing and pending positions. Call it whenever a
// different document or field is processed.
func (r *Resolver) Clear() {
	clear(r.offsets)
	clear(r.pending)
	clear(r.missing)
}
