package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/korap/krill"
	"github.com/spf13/cobra"
)

var (
	renderFormat  string
	renderColor   string
	renderWorkers int
)

var renderCmd = &cobra.Command{
	Use:   "render <request.yaml>",
	Short: "Render the snippets of a request file",
	Long:  "Index the documents of a request file and render every match as a snippet",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderFormat, "format", "brackets", "Output format: brackets, html, terminal")
	renderCmd.Flags().StringVar(&renderColor, "color", "auto", "Terminal colors: auto, always, never")
	renderCmd.Flags().IntVar(&renderWorkers, "workers", krill.DefaultConfig().Workers, "Number of documents rendered in parallel")
}

func runRender(cmd *cobra.Command, args []string) error {
	format, err := formatter(renderFormat)
	if err != nil {
		return err
	}
	if renderFormat == "terminal" {
		if err := configureColor(renderColor); err != nil {
			return err
		}
	}

	rf, err := loadRequestFile(args[0])
	if err != nil {
		return fmt.Errorf("loading request: %w", err)
	}
	cfg, err := rf.snippetConfig(renderWorkers)
	if err != nil {
		return fmt.Errorf("loading request: %w", err)
	}
	seg, err := rf.segment()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	builder := krill.NewBuilder(cfg, seg, seg)
	results, err := builder.BuildAll(ctx, rf.requests())
	if err != nil {
		return fmt.Errorf("rendering snippets: %w", err)
	}
	return writeResults(cmd.OutOrStdout(), results, format)
}

// formatter returns the snippet renderer of a --format value.
func formatter(name string) (func(*krill.Snippet) string, error) {
	switch name {
	case "brackets":
		return krill.RenderBrackets, nil
	case "html":
		hr := krill.NewHTMLRenderer()
		return hr.Render, nil
	case "terminal":
		return renderTerminal, nil
	}
	return nil, fmt.Errorf("unknown format %q (want brackets, html or terminal)", name)
}

// writeResults prints one line per snippet. Failed snippets are logged and
// counted.
func writeResults(out io.Writer, results []krill.Result, format func(*krill.Snippet) string) error {
	failed := 0
	for i, res := range results {
		if res.Err != nil {
			slog.Error("snippet failed", slog.Int("match", i), slog.String("error", res.Err.Error()))
			failed++
			continue
		}
		s := res.Snippet
		fmt.Fprintf(out, "doc %d [%d, %d)\t%s\n", s.DocID, s.StartChar, s.EndChar, format(s))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d snippets failed", failed, len(results))
	}
	return nil
}
