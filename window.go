package krill

import (
	"fmt"
	"log/slog"
)

// ═══════════════════════════════════════════════════════════════════════════════
// CONTEXT WINDOWS
// ═══════════════════════════════════════════════════════════════════════════════
// A snippet shows the match plus some context on either side. Context is
// measured in TOKENS or in CHARACTERS, independently per side:
//
//	Primary: "Der alte Mann ging langsam über die Brücke."
//	Match:                 [ging]
//	Left  = 2 tokens   →  "alte Mann "
//	Right = 8 chars    →  " langsam"
//
//	StartChar ─┐                          ┌─ EndChar
//	           "alte Mann ging langsam"
//	StartMore = true  (text was cut on the left)
//	EndMore   = true  (text was cut on the right)
//
// When the document ends before the requested context, the window stops at
// the document edge and the corresponding "more" flag is false.
// ═══════════════════════════════════════════════════════════════════════════════

// ContextUnit selects how a context length is counted.
type ContextUnit int

const (
	UnitToken ContextUnit = iota
	UnitChar
)

func (u ContextUnit) String() string {
	if u == UnitChar {
		return "char"
	}
	return "token"
}

// ParseContextUnit accepts "token"/"t" and "char"/"c".
func ParseContextUnit(s string) (ContextUnit, error) {
	switch s {
	case "token", "tokens", "t", "":
		return UnitToken, nil
	case "char", "chars", "c":
		return UnitChar, nil
	}
	return UnitToken, fmt.Errorf("unknown context unit %q", s)
}

// ContextSide is the context requested on one side of the match.
type ContextSide struct {
	Unit   ContextUnit
	Length int
}

// ContextSpec holds the left and right context of a snippet.
type ContextSpec struct {
	Left  ContextSide
	Right ContextSide
}

// DefaultContext returns six tokens on each side.
func DefaultContext() ContextSpec {
	return ContextSpec{
		Left:  ContextSide{Unit: UnitToken, Length: 6},
		Right: ContextSide{Unit: UnitToken, Length: 6},
	}
}

// Window is the rendered part of a document.
type Window struct {
	StartChar  int // first character of the window
	EndChar    int // one past the last character
	MatchStart int // match start, absolute
	MatchEnd   int // match end, absolute
	StartMore  bool
	EndMore    bool
	Text       string
}

// Len returns the window length in characters.
func (w Window) Len() int { return w.EndChar - w.StartChar }

// relative converts an absolute character range to window coordinates.
func (w Window) relative(start, end int) (int, int) {
	return start - w.StartChar, end - w.StartChar
}

type windowRequest struct {
	docID    int
	match    Interval
	potStart int // -1 if none
	potEnd   int // -1 if none
	context  ContextSpec
	primary  []rune
}

// contextProbes registers the positions computeWindow will read, so they are
// resolved in the same batch as all highlight endpoints.
func contextProbes(req windowRequest, r *Resolver) {
	r.Add(req.docID, req.match.StartPos)
	r.Add(req.docID, req.match.EndPos-1)
	if req.context.Left.Unit == UnitToken {
		r.Add(req.docID, max(req.match.StartPos-req.context.Left.Length, 0))
	}
	if req.context.Right.Unit == UnitToken {
		r.Add(req.docID, req.match.EndPos-1+req.context.Right.Length)
	}
}

// computeWindow derives the snippet window of a match.
//
// STEP-BY-STEP:
// -------------
//  1. Resolve the match: start of the first token, end of the last one
//     (EndPos is exclusive, so the last token is EndPos-1)
//  2. Widen to potential offsets of wide element spans, if more extreme
//  3. Left boundary: token probe or character arithmetic, clamped
//  4. Right boundary: symmetric; unresolved means "until the end"
//  5. Slice the primary text
func computeWindow(req windowRequest, r *Resolver) Window {
	docLen := len(req.primary)
	m := req.match

	// STEP 1
	matchStart := r.Start(req.docID, m.StartPos)
	matchEnd := matchStart
	if m.EndPos > m.StartPos {
		matchEnd = r.End(req.docID, m.EndPos-1)
	}
	if matchEnd < 0 {
		slog.Warn("match end unresolved",
			slog.Int("docID", req.docID), slog.Int("endPos", m.EndPos))
		matchEnd = matchStart
	}

	// STEP 2
	if req.potStart >= 0 && req.potStart < matchStart {
		matchStart = req.potStart
	}
	if req.potEnd > matchEnd {
		matchEnd = req.potEnd
	}
	matchStart = clamp(matchStart, 0, docLen)
	matchEnd = clamp(matchEnd, matchStart, docLen)

	w := Window{MatchStart: matchStart, MatchEnd: matchEnd}

	// STEP 3
	switch req.context.Left.Unit {
	case UnitToken:
		w.StartChar = r.Start(req.docID, max(m.StartPos-req.context.Left.Length, 0))
	case UnitChar:
		w.StartChar = matchStart - req.context.Left.Length
	}
	w.StartChar = clamp(w.StartChar, 0, matchStart)
	w.StartMore = w.StartChar != 0

	// STEP 4
	end := -1
	switch req.context.Right.Unit {
	case UnitToken:
		end = r.End(req.docID, m.EndPos-1+req.context.Right.Length)
	case UnitChar:
		end = matchEnd + req.context.Right.Length
	}
	if end < 0 || end >= docLen {
		w.EndChar = docLen
		w.EndMore = false
	} else {
		w.EndChar = max(end, matchEnd)
		w.EndMore = w.EndChar < docLen
	}

	// STEP 5
	w.Text = string(req.primary[w.StartChar:w.EndChar])
	return w
}
