package krill

import (
	"fmt"
	"strings"
	"testing"
)

// eventTrace renders events as "+1@0 -1@10" for compact comparisons.
func eventTrace(events []Event) string {
	parts := make([]string, len(events))
	for i, ev := range events {
		sign := "-"
		if ev.Open {
			sign = "+"
		}
		parts[i] = fmt.Sprintf("%s%d@%d", sign, ev.Span.Class, ev.Pos)
	}
	return strings.Join(parts, " ")
}

func hl(class ClassID, start, end int) WindowSpan {
	return WindowSpan{Start: start, End: end, Class: class, Kind: KindHighlight}
}

// ═══════════════════════════════════════════════════════════════════════════════
// EVENT ORDERING TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestBuildEvents(t *testing.T) {
	none := WindowSpan{Class: MatchClass, Kind: KindMatch}

	tests := []struct {
		name  string
		match WindowSpan
		spans []WindowSpan
		want  string
	}{
		{
			name:  "Outer opens first, inner closes first",
			match: none,
			spans: []WindowSpan{hl(1, 0, 10), hl(2, 0, 4), hl(3, 4, 10)},
			want:  "+1@0 +2@0 -2@4 +3@4 -3@10 -1@10",
		},
		{
			name:  "Close before open at the same position",
			match: none,
			spans: []WindowSpan{hl(2, 4, 8), hl(1, 0, 4)},
			want:  "+1@0 -1@4 +2@4 -2@8",
		},
		{
			name:  "Match opens before an identical highlight",
			match: WindowSpan{Start: 0, End: 5, Class: MatchClass, Kind: KindMatch},
			spans: []WindowSpan{hl(0, 0, 5)},
			want:  "+-1@0 +0@0 -0@5 --1@5",
		},
		{
			name:  "Identical highlights order by class",
			match: none,
			spans: []WindowSpan{hl(2, 1, 3), hl(1, 1, 3)},
			want:  "+1@1 +2@1 -2@3 -1@3",
		},
		{
			name:  "Crossing spans",
			match: none,
			spans: []WindowSpan{hl(1, 2, 6), hl(2, 4, 9)},
			want:  "+1@2 +2@4 -1@6 -2@9",
		},
		{
			name:  "Empty spans dropped",
			match: WindowSpan{Start: 3, End: 3, Class: MatchClass, Kind: KindMatch},
			spans: []WindowSpan{hl(1, 2, 2), hl(2, 0, 1)},
			want:  "+2@0 -2@1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eventTrace(buildEvents(tt.match, tt.spans)); got != tt.want {
				t.Errorf("buildEvents() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildEvents_NoSpans(t *testing.T) {
	if events := buildEvents(WindowSpan{}, nil); events != nil {
		t.Errorf("buildEvents() = %v, want nil", events)
	}
}

func TestBuildEvents_Balanced(t *testing.T) {
	spans := []WindowSpan{hl(0, 0, 3), hl(1, 2, 7), hl(2, 1, 2), hl(3, 5, 6)}
	events := buildEvents(WindowSpan{Start: 1, End: 6, Class: MatchClass, Kind: KindMatch}, spans)

	if len(events) != 2*(len(spans)+1) {
		t.Fatalf("got %d events, want %d", len(events), 2*(len(spans)+1))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Pos < events[i-1].Pos {
			t.Errorf("event %d at %d precedes event %d at %d", i, events[i].Pos, i-1, events[i-1].Pos)
		}
	}
}
