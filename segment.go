package krill

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/text/unicode/norm"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SEGMENT: One Field of an Annotated In-Memory Index
// ═══════════════════════════════════════════════════════════════════════════════
// A segment stores everything a snippet needs from the index: the primary
// text and, per document, the term occurrences of several annotation layers.
//
//	Document 1: "The cats were running."
//
//	_0 _1 _2 _3              one offset term per position
//	s:The  s:cats ...        surface layer
//	i:the  i:cats ...        lowercase layer
//	snowball/l:cat  ...      lemma layer
//	<>:s                     sentence spans, indexed at their start position
//
// Architecture (mirrors a hybrid inverted index):
//
//	Segment
//	├── docs:     map[term]*roaring.Bitmap   which documents contain a term
//	├── postings: map[term]*PostingList      (doc, pos) → payload
//	├── terms:    sorted term dictionary     prefix scans for annotations
//	└── texts:    map[doc]primary text
//
// Token occurrences carry an 8-byte offset payload, span occurrences a
// 12-byte payload with their end position.
// ═══════════════════════════════════════════════════════════════════════════════

// Term prefixes of the built-in annotation layers.
const (
	SurfacePrefix = "s:"
	LowerPrefix   = "i:"
	LemmaPrefix   = "snowball/l:"
	SentenceTerm  = "<>:s"
)

var ErrInvalidDocumentID = errors.New("invalid document id")

// Segment is an append-only, concurrently readable index of one field.
type Segment struct {
	mu sync.RWMutex

	field    string
	cfg      AnalyzerConfig
	docs     map[string]*roaring.Bitmap
	postings map[string]*PostingList
	terms    []string // sorted
	texts    map[int]string
	tokens   map[int][]Token
}

// NewSegment creates an empty segment for field.
func NewSegment(field string, cfg AnalyzerConfig) *Segment {
	return &Segment{
		field:    field,
		cfg:      cfg,
		docs:     make(map[string]*roaring.Bitmap),
		postings: make(map[string]*PostingList),
		texts:    make(map[int]string),
		tokens:   make(map[int][]Token),
	}
}

// Field returns the field name.
func (s *Segment) Field() string { return s.field }

// Len returns the number of documents.
func (s *Segment) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.texts)
}

// Add analyzes primary and indexes it as docID.
//
// STEP-BY-STEP:
// -------------
//  1. NFC-normalize, so offsets count composed characters
//  2. Analyze: tokens with rune offsets, lemmas, sentences
//  3. Per token: "_<pos>" plus one term per token layer
//  4. Per sentence: "<>:s" at its first position
func (s *Segment) Add(docID int, primary string) error {
	if docID < 0 || uint64(docID) > uint64(^uint32(0)) {
		return fmt.Errorf("%w: %d", ErrInvalidDocumentID, docID)
	}
	text := norm.NFC.String(primary)
	analysis := AnalyzeWithConfig(text, s.cfg)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.texts[docID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateDocument, docID)
	}
	s.texts[docID] = text
	s.tokens[docID] = analysis.Tokens

	for _, tok := range analysis.Tokens {
		payload := EncodeOffsetPayload(tok.Start, tok.End)
		at := Position{DocumentID: docID, Offset: tok.Position}
		s.insert(PositionTerm(tok.Position), at, payload)
		s.insert(SurfacePrefix+tok.Surface, at, payload)
		s.insert(LowerPrefix+tok.Lower, at, payload)
		if tok.Lemma != "" {
			s.insert(LemmaPrefix+tok.Lemma, at, payload)
		}
	}
	for _, sent := range analysis.Sentences {
		at := Position{DocumentID: docID, Offset: sent.StartPos}
		s.insert(SentenceTerm, at, EncodeSpanPayload(sent.StartChar, sent.EndChar, sent.EndPos))
	}

	slog.Info("document indexed",
		slog.String("field", s.field),
		slog.Int("docID", docID),
		slog.Int("tokens", len(analysis.Tokens)),
		slog.Int("sentences", len(analysis.Sentences)))
	return nil
}

// insert records one occurrence. Callers hold the write lock.
func (s *Segment) insert(term string, at Position, payload []byte) {
	pl, ok := s.postings[term]
	if !ok {
		pl = NewPostingList()
		s.postings[term] = pl
		s.docs[term] = roaring.New()
		i := sort.SearchStrings(s.terms, term)
		s.terms = slices.Insert(s.terms, i, term)
	}
	pl.Insert(at, payload)
	s.docs[term].Add(uint32(at.DocumentID))
}

// Payload returns the payload of the first occurrence of term in docID.
func (s *Segment) Payload(docID int, term string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if docID < 0 || !s.contains(term, docID) {
		return nil, false
	}
	node := s.postings[term].Seek(Position{DocumentID: docID, Offset: MinOffset})
	if node == nil || node.Key.DocumentID != docID {
		return nil, false
	}
	return node.Payload, true
}

func (s *Segment) contains(term string, docID int) bool {
	bm, ok := s.docs[term]
	return ok && bm.Contains(uint32(docID))
}

// Primary returns the normalized primary text of docID.
func (s *Segment) Primary(docID int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.texts[docID]
	return text, ok
}

// Tokens returns the analyzed tokens of docID.
func (s *Segment) Tokens(docID int) []Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[docID]
}

// DocFreq returns the number of documents containing term.
func (s *Segment) DocFreq(term string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bm, ok := s.docs[term]
	if !ok {
		return 0
	}
	return int(bm.GetCardinality())
}

// Annotations decodes the occurrences in docID of every term starting with
// one of prefixes that overlap the positions [startPos, endPos). Each comes
// back as a span interval titled with its term.
//
// Example:
//
//	seg.Annotations(1, 3, 4, LemmaPrefix, SentenceTerm)
//	// [{Title: "snowball/l:run", StartPos: 3, EndPos: 4, ...},
//	//  {Title: "<>:s", StartPos: 0, EndPos: 4, ...}]
func (s *Segment) Annotations(docID, startPos, endPos int, prefixes ...string) []Interval {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Interval
	for _, prefix := range prefixes {
		for i := sort.SearchStrings(s.terms, prefix); i < len(s.terms) && strings.HasPrefix(s.terms[i], prefix); i++ {
			term := s.terms[i]
			if !s.contains(term, docID) {
				continue
			}
			out = append(out, s.decode(term, docID, startPos, endPos)...)
		}
	}
	return out
}

// decode scans the occurrences of term in docID that start before endPos.
func (s *Segment) decode(term string, docID, startPos, endPos int) []Interval {
	var out []Interval
	it := s.postings[term].IteratorFrom(Position{DocumentID: docID, Offset: MinOffset})
	for it.Next() {
		key := it.Key()
		if key.DocumentID != docID || key.Offset >= endPos {
			break
		}
		payload := it.Payload()
		if len(payload) == spanPayloadSize {
			pair, last, err := DecodeSpanPayload(payload)
			if err != nil || last <= startPos {
				continue
			}
			out = append(out, SpanInterval(term, key.Offset, last, pair.Start, pair.End))
			continue
		}
		if key.Offset < startPos {
			continue
		}
		pair, err := DecodeOffsetPayload(payload)
		if err != nil {
			slog.Warn("annotation payload skipped",
				slog.String("term", term), slog.Int("docID", docID), slog.String("error", err.Error()))
			continue
		}
		out = append(out, SpanInterval(term, key.Offset, key.Offset+1, pair.Start, pair.End))
	}
	return out
}
