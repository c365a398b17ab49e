// Command quotekit assembles, searches and reports on a deduplicated quote
// corpus.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cognicore/quotekit/pkg/quotekit"
	"github.com/cognicore/quotekit/pkg/quotekit/config"
	"github.com/cognicore/quotekit/pkg/quotekit/metrics"
	"github.com/cognicore/quotekit/pkg/quotekit/store"
	"github.com/cognicore/quotekit/pkg/quotekit/store/sqlite"
)

const appName = "quotekit"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Build a deduplicated, classified quote corpus",
		Long: `quotekit turns raw quote records (JSONL or JSON array batches) into a
deduplicated corpus. Each record is filtered by field, checked for exact
and fuzzy duplicates, classified by era, tradition and topic, and scored
for quality before it is given a stable ID.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every rejection at debug level")

	cmd.AddCommand(assembleCmd(), searchCmd(), statsCmd(), watchCmd())
	return cmd
}

// buildFlags are shared by assemble and watch.
type buildFlags struct {
	inputs      []string
	prior       string
	out         string
	db          string
	configPath  string
	authorsPath string
	report      string
	metricsFile string
	workers     int
	partitioned bool
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.inputs, "input", "i", nil, "input glob, repeatable (supports **)")
	cmd.Flags().StringVar(&f.prior, "prior", "", "previously emitted corpus to carry forward")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output corpus (JSONL)")
	cmd.Flags().StringVar(&f.db, "db", "", "SQLite database to store the corpus and run history")
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "tables and settings file (YAML or TOML)")
	cmd.Flags().StringVar(&f.authorsPath, "authors", "", "extra author|bucket list")
	cmd.Flags().StringVar(&f.report, "report", "", "write the statistics report as JSON")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "screen input files in parallel (overrides config)")
	cmd.Flags().BoolVar(&f.partitioned, "partitioned", false, "screen each input file separately, then merge")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("out")
}

func (f *buildFlags) request() quotekit.BuildRequest {
	return quotekit.BuildRequest{
		Inputs:      f.inputs,
		PriorPath:   f.prior,
		OutPath:     f.out,
		ReportPath:  f.report,
		MetricsPath: f.metricsFile,
		Partitioned: f.partitioned || f.workers > 1,
	}
}

// engine wires config, store and metrics into a quotekit.Engine.
func (f *buildFlags) engine(ctx context.Context) (*quotekit.Engine, error) {
	comp, err := (&config.Loader{Path: f.configPath, AuthorsPath: f.authorsPath}).Load()
	if err != nil {
		return nil, err
	}
	if f.workers > 0 {
		comp.Settings.Workers = f.workers
	}

	var st store.Store
	if f.db != "" {
		if st, err = sqlite.OpenSQLite(ctx, f.db); err != nil {
			return nil, fmt.Errorf("open %s: %w", f.db, err)
		}
	}

	var m *metrics.Collector
	if f.metricsFile != "" {
		m = metrics.New()
	}

	engine, err := quotekit.New(quotekit.Options{
		Components: comp,
		Store:      st,
		Metrics:    m,
		Logger:     slog.Default(),
	})
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, err
	}
	return engine, nil
}
