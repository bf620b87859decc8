package main

import (
	"fmt"
	"os"

	"github.com/korap/krill"
	"gopkg.in/yaml.v3"
)

// requestFile is the YAML layout of a snippet request.
type requestFile struct {
	Field     string         `yaml:"field"`
	Analyzer  yamlAnalyzer   `yaml:"analyzer"`
	Context   yamlContext    `yaml:"context"`
	Layers    []string       `yaml:"layers"`
	Documents []yamlDocument `yaml:"documents"`
	Matches   []yamlMatch    `yaml:"matches"`
}

type yamlAnalyzer struct {
	Language  string `yaml:"language"`
	Stemming  *bool  `yaml:"stemming"`
	Sentences *bool  `yaml:"sentences"`
}

type yamlContext struct {
	Left  *yamlSide `yaml:"left"`
	Right *yamlSide `yaml:"right"`
}

type yamlSide struct {
	Unit   string `yaml:"unit"`
	Length int    `yaml:"length"`
}

type yamlDocument struct {
	ID   int    `yaml:"id"`
	Text string `yaml:"text"`
}

type yamlMatch struct {
	Doc            int             `yaml:"doc"`
	Start          int             `yaml:"start"`
	End            int             `yaml:"end"`
	Highlights     []yamlHighlight `yaml:"highlights"`
	PotentialStart *int            `yaml:"potentialStart"`
	PotentialEnd   *int            `yaml:"potentialEnd"`
}

type yamlHighlight struct {
	Class int `yaml:"class"`
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// parseRequest loads a request from YAML bytes.
func parseRequest(data []byte) (*requestFile, error) {
	var rf requestFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(rf.Documents) == 0 {
		return nil, fmt.Errorf("no documents found in request")
	}
	if rf.Field == "" {
		rf.Field = "tokens"
	}
	return &rf, nil
}

// loadRequestFile loads a request from a YAML file path.
func loadRequestFile(path string) (*requestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return parseRequest(data)
}

func (rf *requestFile) analyzerConfig() krill.AnalyzerConfig {
	cfg := krill.DefaultAnalyzerConfig()
	if rf.Analyzer.Language != "" {
		cfg.Language = rf.Analyzer.Language
	}
	if rf.Analyzer.Stemming != nil {
		cfg.EnableStemming = *rf.Analyzer.Stemming
	}
	if rf.Analyzer.Sentences != nil {
		cfg.SentenceSpans = *rf.Analyzer.Sentences
	}
	return cfg
}

func (rf *requestFile) snippetConfig(workers int) (krill.Config, error) {
	cfg := krill.DefaultConfig()
	cfg.Workers = workers
	cfg.AnnotationLayers = rf.Layers

	for _, side := range []struct {
		in  *yamlSide
		out *krill.ContextSide
	}{
		{rf.Context.Left, &cfg.Context.Left},
		{rf.Context.Right, &cfg.Context.Right},
	} {
		if side.in == nil {
			continue
		}
		unit, err := krill.ParseContextUnit(side.in.Unit)
		if err != nil {
			return cfg, err
		}
		if side.in.Length < 0 {
			return cfg, fmt.Errorf("negative context length %d", side.in.Length)
		}
		*side.out = krill.ContextSide{Unit: unit, Length: side.in.Length}
	}
	return cfg, nil
}

// segment indexes every document of the request.
func (rf *requestFile) segment() (*krill.Segment, error) {
	seg := krill.NewSegment(rf.Field, rf.analyzerConfig())
	for _, doc := range rf.Documents {
		if err := seg.Add(doc.ID, doc.Text); err != nil {
			return nil, fmt.Errorf("indexing document %d: %w", doc.ID, err)
		}
	}
	return seg, nil
}

func (rf *requestFile) requests() []krill.Request {
	reqs := make([]krill.Request, 0, len(rf.Matches))
	for _, m := range rf.Matches {
		req := krill.NewRequest(m.Doc, m.Start, m.End)
		for _, h := range m.Highlights {
			req.Highlights = append(req.Highlights, krill.HighlightInterval(h.Class, h.Start, h.End))
		}
		if m.PotentialStart != nil || m.PotentialEnd != nil {
			pot := krill.OffsetPair{Start: -1, End: -1}
			if m.PotentialStart != nil {
				pot.Start = *m.PotentialStart
			}
			if m.PotentialEnd != nil {
				pot.End = *m.PotentialEnd
			}
			req.Potential = &pot
		}
		reqs = append(reqs, req)
	}
	return reqs
}
