package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/quotekit/internal/jsonl"
	"github.com/cognicore/quotekit/pkg/quotekit/quote"
	"github.com/cognicore/quotekit/pkg/quotekit/retrieve"
	"github.com/cognicore/quotekit/pkg/quotekit/store/sqlite"
)

func searchCmd() *cobra.Command {
	var (
		corpusPath string
		dbPath     string
		limit      int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find quotes by word and topic overlap",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var records []quote.Record
			switch {
			case corpusPath != "":
				var err error
				if records, err = jsonl.ReadCorpus(corpusPath); err != nil {
					return err
				}
			case dbPath != "":
				st, err := sqlite.OpenSQLite(ctx, dbPath)
				if err != nil {
					return fmt.Errorf("open %s: %w", dbPath, err)
				}
				defer st.Close()
				if records, err = st.LoadCorpus(ctx); err != nil {
					return err
				}
			default:
				return errors.New("one of --corpus or --db is required")
			}

			hits, err := retrieve.NewOverlap(records).Search(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if asJSON {
				data, err := json.MarshalIndent(hits, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal results: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			return printHits(cmd, hits)
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "", "corpus file (JSONL)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite corpus database")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	cmd.MarkFlagsMutuallyExclusive("corpus", "db")
	return cmd
}

func printHits(cmd *cobra.Command, hits []retrieve.Hit) error {
	w := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}
	for i, h := range hits {
		r := h.Record
		fmt.Fprintf(w, "[%d] %s\n", i+1, r.Text)
		fmt.Fprintf(w, "    %s", r.Author)
		if r.Source != "" {
			fmt.Fprintf(w, ", %s", r.Source)
		}
		fmt.Fprintf(w, "  (%s, %s, score %.3f)\n", r.Era, r.Tradition, h.Score)
		if len(r.Topics) > 0 {
			fmt.Fprintf(w, "    topics: %s\n", strings.Join(r.Topics, ", "))
		}
		fmt.Fprintf(w, "    id: %s\n", r.ID)
	}
	return nil
}
