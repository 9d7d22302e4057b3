package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/example/go-spm-encode/internal/segment"
	"github.com/spf13/cobra"
)

func newVocabCmd() *cobra.Command {
	var withIDs bool
	var types []string

	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Print the vocabulary of the SentencePiece model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			sp, err := segment.Load(cfg.Paths.ModelPath)
			if err != nil {
				return err
			}

			return writeVocab(cmd.OutOrStdout(), sp.Vocab(), withIDs, types)
		},
	}

	cmd.Flags().BoolVar(&withIDs, "ids", false, "Prefix each entry with its id")
	cmd.Flags().StringSliceVar(&types, "type", nil, "Only print pieces of these types (e.g. NORMAL,CONTROL)")

	return cmd
}

// writeVocab prints one tab-separated "piece score" line per entry.
func writeVocab(w io.Writer, vocab []segment.Piece, withIDs bool, types []string) error {
	keep := make(map[string]bool, len(types))
	for _, t := range types {
		keep[strings.ToUpper(strings.TrimSpace(t))] = true
	}

	for _, p := range vocab {
		if len(keep) > 0 && !keep[p.Type] {
			continue
		}

		var err error
		if withIDs {
			_, err = fmt.Fprintf(w, "%d\t%s\t%g\n", p.ID, p.Piece, p.Score)
		} else {
			_, err = fmt.Fprintf(w, "%s\t%g\n", p.Piece, p.Score)
		}
		if err != nil {
			return err
		}
	}

	return nil
}
