// Package krill renders keyword-in-context snippets for matches in an
// annotated corpus.
//
// ═══════════════════════════════════════════════════════════════════════════════
// WHAT IS A SNIPPET?
// ═══════════════════════════════════════════════════════════════════════════════
// A search hit arrives as a document, a token interval and a bag of highlight
// and annotation intervals, all expressed in TOKEN POSITIONS:
//
//	Primary text: "the quick brown fox jumps"
//	Tokens:         0    1     2    3    4
//	Match:        [1, 4)            → "quick brown fox"
//	Highlight 1:  [2, 3)            → "brown"
//
// Rendering it needs three things the hit does not carry:
//  1. CHARACTER OFFSETS for every token position involved (resolver.go)
//  2. A CONTEXT WINDOW around the match (window.go)
//  3. A WELL-NESTED structure even when intervals cross (events.go, combinator.go)
//
// The renderers (render.go) then turn the item sequence into bracket notation
//
//	"... the [quick {1:brown} fox] jumps"
//
// or into markup with one visual lane per concurrently open highlight class.
// ═══════════════════════════════════════════════════════════════════════════════
package krill

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedPayload  = errors.New("malformed offset payload")
	ErrUnknownDocument   = errors.New("unknown document")
	ErrDuplicateDocument = errors.New("document already added")
	ErrInvalidClass      = errors.New("invalid highlight class")
	ErrInvalidInterval   = errors.New("invalid interval")
	ErrLanesExhausted    = errors.New("highlight lanes exhausted")
)

// ClassID identifies one layer of a snippet for joint rendering.
//
//	-1        the primary match
//	0..255    caller-supplied highlight classes
//	256..     annotation spans, numbered per snippet
type ClassID int

const (
	MatchClass          ClassID = -1
	MaxHighlightClass   ClassID = 255
	AnnotationClassBase ClassID = 256
)

// IsMatch reports whether c is the primary match.
func (c ClassID) IsMatch() bool { return c == MatchClass }

// IsHighlight reports whether c is a caller-supplied highlight class.
func (c ClassID) IsHighlight() bool { return c >= 0 && c <= MaxHighlightClass }

// IsAnnotation reports whether c was assigned to an annotation span.
func (c ClassID) IsAnnotation() bool { return c >= AnnotationClassBase }

// Kind tells the match, highlights and annotation spans apart.
type Kind int

const (
	KindMatch Kind = iota
	KindHighlight
	KindSpan
)

func (k Kind) String() string {
	switch k {
	case KindMatch:
		return "match"
	case KindHighlight:
		return "highlight"
	case KindSpan:
		return "span"
	default:
		return "unknown"
	}
}

// OffsetPair is the character range [Start, End) of one token.
type OffsetPair struct {
	Start int
	End   int
}

// Interval is a token range [StartPos, EndPos) tagged with a class.
//
// StartChar and EndChar are -1 unless the character offsets are already
// known, for example from a decoded annotation payload. Title names an
// annotation span ("snowball/l:run", "<>:s") and is empty otherwise.
type Interval struct {
	StartPos  int
	EndPos    int
	Class     ClassID
	Kind      Kind
	Title     string
	StartChar int
	EndChar   int
}

// MatchInterval returns the primary match over [start, end).
func MatchInterval(start, end int) Interval {
	return Interval{StartPos: start, EndPos: end, Class: MatchClass, Kind: KindMatch, StartChar: -1, EndChar: -1}
}

// HighlightInterval returns a highlight of the given class over [start, end).
func HighlightInterval(class, start, end int) Interval {
	return Interval{StartPos: start, EndPos: end, Class: ClassID(class), Kind: KindHighlight, StartChar: -1, EndChar: -1}
}

// SpanInterval returns an annotation span over [start, end) whose character
// offsets are already known. Class is assigned when the snippet is built.
func SpanInterval(title string, start, end, startChar, endChar int) Interval {
	return Interval{StartPos: start, EndPos: end, Kind: KindSpan, Title: title, StartChar: startChar, EndChar: endChar}
}

// Validate checks the interval against the class bounds of its kind.
func (iv Interval) Validate() error {
	if iv.StartPos < 0 || iv.EndPos < iv.StartPos {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidInterval, iv.StartPos, iv.EndPos)
	}
	if iv.Kind == KindHighlight && !iv.Class.IsHighlight() {
		return fmt.Errorf("%w: %d", ErrInvalidClass, iv.Class)
	}
	return nil
}

// HasChars reports whether both character offsets are known.
func (iv Interval) HasChars() bool {
	return iv.StartChar >= 0 && iv.EndChar >= 0
}

// WindowSpan is an interval in window-relative character coordinates.
// After clipping 0 <= Start <= End <= window length.
type WindowSpan struct {
	Start int
	End   int
	Class ClassID
	Kind  Kind
}

// clip bounds the span to [0, length].
func (ws WindowSpan) clip(length int) WindowSpan {
	ws.Start = clamp(ws.Start, 0, length)
	ws.End = clamp(ws.End, ws.Start, length)
	return ws
}

func (ws WindowSpan) empty() bool { return ws.Start >= ws.End }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
