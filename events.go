package krill

import (
	"sort"
)

// ═══════════════════════════════════════════════════════════════════════════════
// EVENT STACK: Turning Spans into One Chronological Sweep
// ═══════════════════════════════════════════════════════════════════════════════
// Every span contributes an OPEN event at its start and a CLOSE event at its
// end. Two sorted lists are merged into one sequence:
//
//	open list:  by Start ↑, then End ↓        (outer span opens first)
//	close list: by End ↑,   then Start ↓      (inner span closes first)
//
// EXAMPLE:
// --------
//
//	A = [0, 10)   B = [0, 4)   C = [4, 10)
//
//	open list:  A(0) B(0) C(4)
//	close list: B(4) C(10) A(10)
//
//	sweep:      open A, open B, close B, open C, close C, close A
//	            (at 4, "close B" wins over "open C": 4 < 4 is false)
//
// The sweep does not make crossing spans nest; the combinator does that.
// ═══════════════════════════════════════════════════════════════════════════════

// Event opens or closes one span at a window position.
type Event struct {
	Pos  int
	Span WindowSpan
	Open bool
}

type rankedSpan struct {
	WindowSpan
	order int // input order, the last tie-break
	rank  int // position in the open list
}

func kindRank(k Kind) int {
	switch k {
	case KindMatch:
		return 0
	case KindHighlight:
		return 1
	default:
		return 2
	}
}

// buildEvents merges the match span and all other spans into one event list.
// Empty spans are dropped: they could only ever render as empty pairs.
func buildEvents(match WindowSpan, spans []WindowSpan) []Event {
	all := make([]*rankedSpan, 0, len(spans)+1)
	if !match.empty() {
		all = append(all, &rankedSpan{WindowSpan: match})
	}
	for _, s := range spans {
		if s.empty() {
			continue
		}
		all = append(all, &rankedSpan{WindowSpan: s, order: len(all)})
	}
	if len(all) == 0 {
		return nil
	}

	opens := make([]*rankedSpan, len(all))
	copy(opens, all)
	sort.SliceStable(opens, func(i, j int) bool {
		a, b := opens[i], opens[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End > b.End
		}
		if ra, rb := kindRank(a.Kind), kindRank(b.Kind); ra != rb {
			return ra < rb
		}
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		return a.order < b.order
	})
	for i, s := range opens {
		s.rank = i
	}

	closes := make([]*rankedSpan, len(all))
	copy(closes, all)
	sort.SliceStable(closes, func(i, j int) bool {
		a, b := closes[i], closes[j]
		if a.End != b.End {
			return a.End < b.End
		}
		if a.Start != b.Start {
			return a.Start > b.Start
		}
		// Identical ranges close in reverse opening order.
		return a.rank > b.rank
	})

	events := make([]Event, 0, 2*len(all))
	oi, ci := 0, 0
	for oi < len(opens) {
		if opens[oi].Start < closes[ci].End {
			events = append(events, Event{Pos: opens[oi].Start, Span: opens[oi].WindowSpan, Open: true})
			oi++
			continue
		}
		events = append(events, Event{Pos: closes[ci].End, Span: closes[ci].WindowSpan})
		ci++
	}
	for ; ci < len(closes); ci++ {
		events = append(events, Event{Pos: closes[ci].End, Span: closes[ci].WindowSpan})
	}
	return events
}
