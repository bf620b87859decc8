package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/korap/krill"
	"github.com/spf13/cobra"
)

var tokensDoc int

var tokensCmd = &cobra.Command{
	Use:   "tokens <request.yaml>",
	Short: "List the token positions of a document",
	Long:  "Index the documents of a request file and print the positions, offsets and layers of one document",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokens,
}

func init() {
	tokensCmd.Flags().IntVar(&tokensDoc, "doc", 0, "Document id")
}

func runTokens(cmd *cobra.Command, args []string) error {
	rf, err := loadRequestFile(args[0])
	if err != nil {
		return fmt.Errorf("loading request: %w", err)
	}
	seg, err := rf.segment()
	if err != nil {
		return err
	}
	if _, ok := seg.Primary(tokensDoc); !ok {
		return fmt.Errorf("%w: %d", krill.ErrUnknownDocument, tokensDoc)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tSTART\tEND\tSURFACE\tLEMMA")
	for _, tok := range seg.Tokens(tokensDoc) {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n", tok.Position, tok.Start, tok.End, tok.Surface, tok.Lemma)
	}
	return w.Flush()
}
