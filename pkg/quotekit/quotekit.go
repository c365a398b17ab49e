// Package quotekit is the facade over the corpus pipeline: it reads raw
// quote files, runs the assembler, writes the corpus atomically and keeps
// the store, metrics and search index in step with each run.
package quotekit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cognicore/quotekit/internal/jsonl"
	"github.com/cognicore/quotekit/internal/watch"
	"github.com/cognicore/quotekit/pkg/quotekit/assemble"
	"github.com/cognicore/quotekit/pkg/quotekit/config"
	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
	"github.com/cognicore/quotekit/pkg/quotekit/metrics"
	"github.com/cognicore/quotekit/pkg/quotekit/quote"
	"github.com/cognicore/quotekit/pkg/quotekit/retrieve"
	"github.com/cognicore/quotekit/pkg/quotekit/store"
)

// Engine is the main corpus facade
type Engine struct {
	comp      *config.Components
	assembler *assemble.Assembler
	store     store.Store
	metrics   *metrics.Collector
	reader    *jsonl.Reader
	logger    *slog.Logger
}

// Options configures an Engine
type Options struct {
	// Components from config.Loader. Nil uses the built-in tables.
	Components *config.Components
	// Store is optional. When set, every successful build replaces the
	// stored corpus and records the run.
	Store store.Store
	// Metrics is optional.
	Metrics *metrics.Collector
	Logger  *slog.Logger
	Now     func() time.Time
}

// New creates an Engine with the given dependencies
func New(opts Options) (*Engine, error) {
	comp := opts.Components
	if comp == nil {
		var err error
		if comp, err = (&config.Loader{}).Load(); err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var obs assemble.Observer
	if opts.Metrics != nil {
		obs = opts.Metrics
	}
	aopts := comp.AssemblerOptions(logger, obs)
	aopts.Now = opts.Now

	return &Engine{
		comp:      comp,
		assembler: assemble.New(aopts),
		store:     opts.Store,
		metrics:   opts.Metrics,
		reader:    &jsonl.Reader{Workers: comp.Settings.Workers, Logger: logger},
		logger:    logger,
	}, nil
}

// Close cleanly shuts down the Engine
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Settings returns the run settings in effect.
func (e *Engine) Settings() config.Settings { return e.comp.Settings }

// BuildRequest describes one assembly run
type BuildRequest struct {
	// Inputs are glob patterns of raw quote files.
	Inputs []string
	// PriorPath is a previously emitted corpus carried into this run.
	// A missing file is an empty corpus.
	PriorPath string
	// PriorFromStore carries the stored corpus instead of PriorPath.
	PriorFromStore bool
	// OutPath receives the corpus. Empty keeps records in memory only.
	OutPath string
	// ReportPath receives the statistics report as JSON.
	ReportPath string
	// MetricsPath receives a Prometheus textfile.
	MetricsPath string
	// Partitioned screens each input file on its own worker and merges
	// the survivors.
	Partitioned bool
}

// BuildResult is the outcome of a successful build
type BuildResult struct {
	Stats   *assemble.Stats
	Records []quote.Record
}

// Build runs one assembly. On error no output file is replaced and the
// store is left untouched; the returned stats describe the partial run.
func (e *Engine) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	prior, err := e.loadPrior(ctx, req)
	if err != nil {
		return nil, err
	}

	files, err := e.reader.ReadAll(ctx, req.Inputs)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	var (
		collect assemble.Collect
		sink    assemble.Sink = &collect
		out     *jsonl.Writer
	)
	if req.OutPath != "" {
		if out, err = jsonl.Create(req.OutPath); err != nil {
			return nil, err
		}
		sink = tee{&collect, out}
	}

	raws, skipped := jsonl.Flatten(files)

	var stats *assemble.Stats
	if req.Partitioned {
		stats, err = e.assembler.RunPartitioned(ctx, prior, jsonl.Partitions(files), sink)
	} else {
		stats, err = e.assembler.Run(ctx, prior, raws, sink)
	}
	if err != nil {
		if out != nil {
			out.Abort()
		}
		return &BuildResult{Stats: stats}, err
	}
	stats.AddUnreadable(skipped)

	if out != nil {
		if err := out.Commit(); err != nil {
			return &BuildResult{Stats: stats}, err
		}
	}

	if err := e.persist(ctx, stats, collect.Records); err != nil {
		return &BuildResult{Stats: stats}, err
	}
	if err := e.report(stats, req); err != nil {
		return &BuildResult{Stats: stats}, err
	}

	e.logger.Info("corpus built",
		"run_id", stats.RunID,
		"records", stats.Total(),
		"out", req.OutPath)
	return &BuildResult{Stats: stats, Records: collect.Records}, nil
}

func (e *Engine) loadPrior(ctx context.Context, req BuildRequest) ([]quote.Record, error) {
	if req.PriorFromStore {
		if e.store == nil {
			return nil, fmt.Errorf("%w: prior from store requested without a store", internalerr.ErrInvalidConfig)
		}
		return e.store.LoadCorpus(ctx)
	}
	if req.PriorPath == "" {
		return nil, nil
	}
	return jsonl.ReadCorpus(req.PriorPath)
}

func (e *Engine) persist(ctx context.Context, stats *assemble.Stats, records []quote.Record) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.ReplaceCorpus(ctx, stats.RunID, records); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return e.store.RecordRun(ctx, store.Run{
		ID:         stats.RunID,
		StartedAt:  stats.StartedAt,
		FinishedAt: stats.FinishedAt,
		CorpusSize: stats.Total(),
		StatsJSON:  string(data),
	})
}

func (e *Engine) report(stats *assemble.Stats, req BuildRequest) error {
	if e.metrics != nil {
		e.metrics.ObserveRun(stats)
		if req.MetricsPath != "" {
			if err := e.metrics.WriteTextfile(req.MetricsPath); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
		}
	}
	if req.ReportPath != "" {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		if err := jsonl.WriteFile(req.ReportPath, append(data, '\n')); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

// Watch builds once, then rebuilds whenever an input changes. Each rebuild
// carries the current output as its prior corpus, so IDs stay stable.
func (e *Engine) Watch(ctx context.Context, req BuildRequest, debounce time.Duration) error {
	if req.OutPath == "" {
		return fmt.Errorf("%w: watch needs an output path", internalerr.ErrInvalidConfig)
	}
	if req.PriorPath == "" && !req.PriorFromStore {
		req.PriorPath = req.OutPath
	}

	build := func(ctx context.Context) error {
		res, err := e.Build(ctx, req)
		if err != nil {
			return err
		}
		e.logger.Info("rebuild complete",
			"accepted", res.Stats.Accepted,
			"rejected", res.Stats.TotalRejected())
		return nil
	}
	if err := build(ctx); err != nil {
		return err
	}

	w, err := watch.New(watch.Config{
		Patterns: req.Inputs,
		Debounce: debounce,
		Ignore:   []string{req.OutPath, req.ReportPath, req.MetricsPath},
	}, e.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		e.logger.Debug("rebuilding", "changed", changed)
		return build(ctx)
	})
}

// Retriever returns a search index over the stored corpus.
func (e *Engine) Retriever(ctx context.Context, opts ...retrieve.Option) (*retrieve.Overlap, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: no store configured", internalerr.ErrInvalidConfig)
	}
	records, err := e.store.LoadCorpus(ctx)
	if err != nil {
		return nil, err
	}
	return retrieve.NewOverlap(records, opts...), nil
}

// Search runs a query against the stored corpus.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]retrieve.Hit, error) {
	r, err := e.Retriever(ctx)
	if err != nil {
		return nil, err
	}
	return r.Search(ctx, query, k)
}

// LatestStats returns the report of the most recent stored run.
func (e *Engine) LatestStats(ctx context.Context) (*assemble.Stats, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: no store configured", internalerr.ErrInvalidConfig)
	}
	run, err := e.store.LatestRun(ctx)
	if err != nil {
		return nil, err
	}
	var stats assemble.Stats
	if err := json.Unmarshal([]byte(run.StatsJSON), &stats); err != nil {
		return nil, fmt.Errorf("decode stats of run %s: %w", run.ID, err)
	}
	return &stats, nil
}

// tee emits to every sink in order.
type tee []assemble.Sink

func (t tee) Emit(r quote.Record) error {
	for _, s := range t {
		if err := s.Emit(r); err != nil {
			return err
		}
	}
	return nil
}
