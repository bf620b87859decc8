package krill

import (
	"errors"
	"sync"
	"testing"
)

const catsText = "The cats were running. They stopped."

func newTestSegment(t *testing.T, docs map[int]string) *Segment {
	t.Helper()
	seg := NewSegment("tokens", DefaultAnalyzerConfig())
	for id, text := range docs {
		if err := seg.Add(id, text); err != nil {
			t.Fatalf("Add(%d) error = %v", id, err)
		}
	}
	return seg
}

// ═══════════════════════════════════════════════════════════════════════════════
// INGEST TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestSegment_Add(t *testing.T) {
	seg := newTestSegment(t, map[int]string{1: catsText, 2: foxText})

	if seg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", seg.Len())
	}
	if seg.Field() != "tokens" {
		t.Errorf("Field() = %q, want tokens", seg.Field())
	}
	if text, ok := seg.Primary(1); !ok || text != catsText {
		t.Errorf("Primary(1) = %q, %v", text, ok)
	}
	if got := len(seg.Tokens(2)); got != 9 {
		t.Errorf("len(Tokens(2)) = %d, want 9", got)
	}
}

func TestSegment_AddDuplicate(t *testing.T) {
	seg := newTestSegment(t, map[int]string{1: catsText})
	if err := seg.Add(1, "again"); !errors.Is(err, ErrDuplicateDocument) {
		t.Errorf("Add() error = %v, want ErrDuplicateDocument", err)
	}
	if text, _ := seg.Primary(1); text != catsText {
		t.Errorf("Primary(1) = %q after a rejected Add", text)
	}
}

func TestSegment_AddInvalidID(t *testing.T) {
	seg := NewSegment("tokens", DefaultAnalyzerConfig())
	if err := seg.Add(-1, "x"); !errors.Is(err, ErrInvalidDocumentID) {
		t.Errorf("Add(-1) error = %v, want ErrInvalidDocumentID", err)
	}
}

func TestSegment_NFC(t *testing.T) {
	// "e" followed by a combining acute accent
	seg := newTestSegment(t, map[int]string{1: "cafe\u0301 noir"})

	text, _ := seg.Primary(1)
	if text != "caf\u00e9 noir" {
		t.Errorf("Primary(1) = %q, want composed form", text)
	}
	pair, err := DecodeOffsetPayload(mustPayload(t, seg, 1, PositionTerm(1)))
	if err != nil || pair != (OffsetPair{5, 9}) {
		t.Errorf("offsets of noir = %+v, %v; want {5 9}", pair, err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// LOOKUP TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func mustPayload(t *testing.T, seg *Segment, doc int, term string) []byte {
	t.Helper()
	payload, ok := seg.Payload(doc, term)
	if !ok {
		t.Fatalf("Payload(%d, %q) missing", doc, term)
	}
	return payload
}

func TestSegment_Payload(t *testing.T) {
	seg := newTestSegment(t, map[int]string{1: catsText, 2: foxText})

	tests := []struct {
		doc  int
		term string
		want OffsetPair
	}{
		{1, "_0", OffsetPair{0, 3}},
		{1, "_3", OffsetPair{14, 21}},
		{2, "_3", OffsetPair{16, 19}},
		{2, "s:fox", OffsetPair{16, 19}},
		{2, "i:the", OffsetPair{0, 3}},
		{1, LemmaPrefix + "run", OffsetPair{14, 21}},
	}
	for _, tt := range tests {
		pair, err := DecodeOffsetPayload(mustPayload(t, seg, tt.doc, tt.term))
		if err != nil || pair != tt.want {
			t.Errorf("Payload(%d, %q) = %+v, %v; want %+v", tt.doc, tt.term, pair, err, tt.want)
		}
	}

	if _, ok := seg.Payload(1, "_99"); ok {
		t.Error("Payload() reported a position past the document")
	}
	if _, ok := seg.Payload(1, "s:fox"); ok {
		t.Error("Payload() reported a term of another document")
	}
	if _, ok := seg.Payload(7, "_0"); ok {
		t.Error("Payload() reported an unknown document")
	}
}

func TestSegment_DocFreq(t *testing.T) {
	seg := newTestSegment(t, map[int]string{1: catsText, 2: foxText, 3: "the end"})

	tests := []struct {
		term string
		want int
	}{
		{"i:the", 3},
		{"s:The", 2},
		{"s:fox", 1},
		{"_2", 2},
		{"s:unicorn", 0},
	}
	for _, tt := range tests {
		if got := seg.DocFreq(tt.term); got != tt.want {
			t.Errorf("DocFreq(%q) = %d, want %d", tt.term, got, tt.want)
		}
	}
}

func TestSegment_SentencePayload(t *testing.T) {
	seg := newTestSegment(t, map[int]string{1: catsText})

	pair, endPos, err := DecodeSpanPayload(mustPayload(t, seg, 1, SentenceTerm))
	if err != nil {
		t.Fatalf("DecodeSpanPayload() error = %v", err)
	}
	if pair != (OffsetPair{0, 22}) || endPos != 4 {
		t.Errorf("first sentence = %+v up to %d, want {0 22} up to 4", pair, endPos)
	}
}

func TestSegment_Annotations(t *testing.T) {
	seg := newTestSegment(t, map[int]string{1: catsText})

	got := seg.Annotations(1, 3, 4, LemmaPrefix, SentenceTerm)
	byTitle := make(map[string]Interval)
	for _, iv := range got {
		byTitle[iv.Title] = iv
	}
	if len(got) != 2 {
		t.Fatalf("Annotations() = %+v, want 2 intervals", got)
	}

	if iv := byTitle[LemmaPrefix+"run"]; iv.StartPos != 3 || iv.EndPos != 4 || iv.StartChar != 14 || iv.EndChar != 21 {
		t.Errorf("lemma interval = %+v", iv)
	}
	if iv := byTitle[SentenceTerm]; iv.StartPos != 0 || iv.EndPos != 4 || iv.StartChar != 0 || iv.EndChar != 22 {
		t.Errorf("sentence interval = %+v", iv)
	}
	for _, iv := range got {
		if iv.Kind != KindSpan || !iv.HasChars() {
			t.Errorf("interval %+v is not a span with offsets", iv)
		}
	}
}

func TestSegment_AnnotationsSecondSentence(t *testing.T) {
	seg := newTestSegment(t, map[int]string{1: catsText})

	got := seg.Annotations(1, 4, 6, SentenceTerm)
	if len(got) != 1 {
		t.Fatalf("Annotations() = %+v, want 1 interval", got)
	}
	if iv := got[0]; iv.StartPos != 4 || iv.EndPos != 6 || iv.StartChar != 23 || iv.EndChar != 36 {
		t.Errorf("sentence interval = %+v", iv)
	}
}

func TestSegment_AnnotationsUnknown(t *testing.T) {
	seg := newTestSegment(t, map[int]string{1: catsText})
	if got := seg.Annotations(2, 0, 4, LemmaPrefix); len(got) != 0 {
		t.Errorf("Annotations() for an unknown document = %+v", got)
	}
	if got := seg.Annotations(1, 0, 4, "x/unknown:"); len(got) != 0 {
		t.Errorf("Annotations() for an unknown layer = %+v", got)
	}
}

func TestSegment_ConcurrentReaders(t *testing.T) {
	seg := newTestSegment(t, map[int]string{1: catsText, 2: foxText})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(doc int) {
			defer wg.Done()
			for pos := 0; pos < 6; pos++ {
				seg.Payload(doc, PositionTerm(pos))
				seg.Annotations(doc, pos, pos+1, LemmaPrefix)
			}
		}(1 + i%2)
	}
	if err := seg.Add(3, "late writer"); err != nil {
		t.Errorf("Add(3) error = %v", err)
	}
	wg.Wait()
}
