package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/quotekit/internal/watch"
)

func assembleCmd() *cobra.Command {
	var f buildFlags

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Build the corpus from raw quote files",
		Example: `  quotekit assemble -i 'data/**/*.jsonl' -o corpus.jsonl
  quotekit assemble -i seed.jsonl -i scraped.json --prior corpus.jsonl -o corpus.jsonl --db corpus.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, err := f.engine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			res, err := engine.Build(ctx, f.request())
			if err != nil {
				return err
			}
			return res.Stats.WriteSummary(cmd.OutOrStdout())
		},
	}

	f.register(cmd)
	return cmd
}

func watchCmd() *cobra.Command {
	var (
		f        buildFlags
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the corpus whenever an input file changes",
		Long: `watch builds the corpus once, then rebuilds it after input files change.
Each rebuild carries the current output forward, so record IDs never move.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, err := f.engine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			return engine.Watch(ctx, f.request(), debounce)
		},
	}

	f.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "wait this long for more changes before rebuilding")
	return cmd
}
