// ═══════════════════════════════════════════════════════════════════════════════
// TEXT ANALYSIS OVERVIEW
// ═══════════════════════════════════════════════════════════════════════════════
// Snippets need CHARACTER OFFSETS for every token, so analysis keeps them:
//
//	Input:  "The cats were sleeping."
//
//	pos  surface     [start, end)   lower       lemma (snowball)
//	 0   "The"       [0, 3)         "the"       "the"
//	 1   "cats"      [4, 8)         "cats"      "cat"
//	 2   "were"      [9, 13)        "were"      "were"
//	 3   "sleeping"  [14, 22)       "sleeping"  "sleep"
//
//	sentence <>:s:  tokens [0, 4), chars [0, 23)
//
// Unlike a retrieval analyzer, nothing is dropped: every word is a token
// position, stopwords included, because positions must match the corpus.
// Offsets count runes, not bytes.
// ═══════════════════════════════════════════════════════════════════════════════

package krill

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// AnalyzerConfig holds configuration options for text analysis
type AnalyzerConfig struct {
	Language       string // snowball language for the lemma layer (default: english)
	EnableStemming bool   // Whether to produce the lemma layer (default: true)
	SentenceSpans  bool   // Whether to produce <>:s sentence spans (default: true)
}

// DefaultAnalyzerConfig returns the standard analyzer configuration
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Language:       "english",
		EnableStemming: true,
		SentenceSpans:  true,
	}
}

// Token is one analyzed word with its character range.
type Token struct {
	Surface  string
	Lower    string
	Lemma    string // empty when stemming is disabled
	Position int
	Start    int
	End      int
}

// Sentence is a span of tokens ended by '.', '!' or '?'.
type Sentence struct {
	StartPos  int
	EndPos    int
	StartChar int
	EndChar   int
}

// Analysis is the result of analyzing one text.
type Analysis struct {
	Tokens    []Token
	Sentences []Sentence
}

// Analyze runs the default pipeline.
//
// Example:
//
//	a := Analyze("The cats were running.")
//	// a.Tokens[3] = {Surface: "running", Lemma: "run", Position: 3, Start: 14, End: 21}
func Analyze(text string) Analysis {
	return AnalyzeWithConfig(text, DefaultAnalyzerConfig())
}

// AnalyzeWithConfig runs the pipeline with cfg.
func AnalyzeWithConfig(text string, cfg AnalyzerConfig) Analysis {
	runes := []rune(text)
	tokens := tokenize(runes)

	for i := range tokens {
		tokens[i].Lower = strings.ToLower(tokens[i].Surface)
	}
	if cfg.EnableStemming {
		stemmerFilter(tokens, cfg.Language)
	}

	a := Analysis{Tokens: tokens}
	if cfg.SentenceSpans {
		a.Sentences = sentences(runes, tokens)
	}
	return a
}

// tokenize splits text into words, keeping rune offsets.
//
// Any rune that is neither a letter nor a number ends a word:
//
//	"hello-world"  → "hello" [0,5), "world" [6,11)
//	"café au lait" → "café" [0,4), "au" [5,7), "lait" [8,12)
func tokenize(runes []rune) []Token {
	var tokens []Token
	start := -1
	for i, r := range runes {
		inWord := unicode.IsLetter(r) || unicode.IsNumber(r)
		switch {
		case inWord && start < 0:
			start = i
		case !inWord && start >= 0:
			tokens = append(tokens, Token{Surface: string(runes[start:i]), Position: len(tokens), Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{Surface: string(runes[start:]), Position: len(tokens), Start: start, End: len(runes)})
	}
	return tokens
}

// stemmerFilter fills the lemma layer using the Snowball stemmer.
//
// An unsupported language disables the layer instead of failing the
// document: the lemma layer is an annotation, not a requirement.
func stemmerFilter(tokens []Token, language string) {
	if language == "" {
		language = "english"
	}
	for i := range tokens {
		stem, err := snowball.Stem(tokens[i].Lower, language, true)
		if err != nil {
			slog.Warn("stemming disabled", slog.String("language", language), slog.String("error", err.Error()))
			for j := range tokens {
				tokens[j].Lemma = ""
			}
			return
		}
		tokens[i].Lemma = stem
	}
}

// sentences groups tokens into sentences. A sentence ends after the first
// terminator following its last token and covers the terminator.
func sentences(runes []rune, tokens []Token) []Sentence {
	var out []Sentence
	first := 0
	for i, tok := range tokens {
		limit := len(runes)
		if i+1 < len(tokens) {
			limit = tokens[i+1].Start
		}
		end := -1
		for j := tok.End; j < limit; j++ {
			if isTerminator(runes[j]) {
				end = j + 1
				break
			}
		}
		if end < 0 && i+1 < len(tokens) {
			continue
		}
		if end < 0 {
			end = tok.End
		}
		out = append(out, Sentence{
			StartPos:  first,
			EndPos:    i + 1,
			StartChar: tokens[first].Start,
			EndChar:   end,
		})
		first = i + 1
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
