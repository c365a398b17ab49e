package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cognicore/quotekit/pkg/quotekit"
	"github.com/cognicore/quotekit/pkg/quotekit/store/sqlite"
)

func statsCmd() *cobra.Command {
	var (
		dbPath  string
		history int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the report of the latest stored run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			st, err := sqlite.OpenSQLite(ctx, dbPath)
			if err != nil {
				return fmt.Errorf("open %s: %w", dbPath, err)
			}
			engine, err := quotekit.New(quotekit.Options{Store: st})
			if err != nil {
				st.Close()
				return err
			}
			defer engine.Close()

			stats, err := engine.LatestStats(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(stats, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(w, string(data))
				return nil
			}
			if err := stats.WriteSummary(w); err != nil {
				return err
			}

			if history > 0 {
				runs, err := st.Runs(ctx, history)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "history")
				for _, r := range runs {
					fmt.Fprintf(w, "  %s  %s  %s records\n",
						r.ID, humanize.Time(r.FinishedAt), humanize.Comma(int64(r.CorpusSize)))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite corpus database")
	cmd.Flags().IntVar(&history, "history", 0, "also list this many recent runs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the report as JSON")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
