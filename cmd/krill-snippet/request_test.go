package main

import (
	"strings"
	"testing"

	"github.com/korap/krill"
)

const sampleRequest = `
field: tokens
context:
  left: {unit: token, length: 1}
  right: {unit: token, length: 1}
layers: ["<>:s"]
documents:
  - id: 1
    text: "The quick brown fox jumps over the lazy dog."
  - id: 2
    text: "The cats were running. They stopped."
matches:
  - doc: 1
    start: 2
    end: 4
    highlights:
      - {class: 1, start: 3, end: 4}
  - doc: 2
    start: 3
    end: 4
    potentialStart: 13
`

func TestParseRequest(t *testing.T) {
	rf, err := parseRequest([]byte(sampleRequest))
	if err != nil {
		t.Fatalf("parseRequest() error = %v", err)
	}
	if len(rf.Documents) != 2 || len(rf.Matches) != 2 {
		t.Fatalf("parsed %d documents and %d matches, want 2 and 2", len(rf.Documents), len(rf.Matches))
	}

	reqs := rf.requests()
	if got := reqs[0].Highlights; len(got) != 1 || got[0].Class != 1 || got[0].StartPos != 3 {
		t.Errorf("highlights = %+v", got)
	}
	if reqs[0].Potential != nil {
		t.Errorf("Potential = %+v, want nil", reqs[0].Potential)
	}
	if pot := reqs[1].Potential; pot == nil || pot.Start != 13 || pot.End != -1 {
		t.Errorf("Potential = %+v, want {13 -1}", pot)
	}
}

func TestParseRequest_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"Invalid YAML", "documents: [", "failed to parse YAML"},
		{"No documents", "matches: []", "no documents"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRequest([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("parseRequest() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestRequestFile_Defaults(t *testing.T) {
	rf, err := parseRequest([]byte("documents: [{id: 1, text: x}]"))
	if err != nil {
		t.Fatal(err)
	}
	if rf.Field != "tokens" {
		t.Errorf("Field = %q, want tokens", rf.Field)
	}
	if got := rf.analyzerConfig(); got != krill.DefaultAnalyzerConfig() {
		t.Errorf("analyzerConfig() = %+v, want defaults", got)
	}
	cfg, err := rf.snippetConfig(2)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Context != krill.DefaultContext() || cfg.Workers != 2 {
		t.Errorf("snippetConfig() = %+v", cfg)
	}
}

func TestRequestFile_Analyzer(t *testing.T) {
	rf, err := parseRequest([]byte(`
analyzer: {language: french, stemming: false, sentences: false}
documents: [{id: 1, text: x}]
`))
	if err != nil {
		t.Fatal(err)
	}
	want := krill.AnalyzerConfig{Language: "french", EnableStemming: false, SentenceSpans: false}
	if got := rf.analyzerConfig(); got != want {
		t.Errorf("analyzerConfig() = %+v, want %+v", got, want)
	}
}

func TestRequestFile_Context(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    krill.ContextSpec
		wantErr bool
	}{
		{
			name: "Characters on the right",
			yaml: "context: {right: {unit: char, length: 20}}\ndocuments: [{id: 1, text: x}]",
			want: krill.ContextSpec{
				Left:  krill.DefaultContext().Left,
				Right: krill.ContextSide{Unit: krill.UnitChar, Length: 20},
			},
		},
		{
			name:    "Unknown unit",
			yaml:    "context: {left: {unit: word, length: 2}}\ndocuments: [{id: 1, text: x}]",
			wantErr: true,
		},
		{
			name:    "Negative length",
			yaml:    "context: {left: {unit: token, length: -2}}\ndocuments: [{id: 1, text: x}]",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rf, err := parseRequest([]byte(tt.yaml))
			if err != nil {
				t.Fatal(err)
			}
			cfg, err := rf.snippetConfig(1)
			if (err != nil) != tt.wantErr {
				t.Fatalf("snippetConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cfg.Context != tt.want {
				t.Errorf("Context = %+v, want %+v", cfg.Context, tt.want)
			}
		})
	}
}

func TestRequestFile_DuplicateDocument(t *testing.T) {
	rf, err := parseRequest([]byte("documents: [{id: 1, text: a}, {id: 1, text: b}]"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rf.segment(); err == nil {
		t.Error("segment() accepted a duplicate document id")
	}
}
