package store

import (
	"context"
	"time"

	"github.com/cognicore/quotekit/pkg/quotekit/quote"
)

// Store is the main interface for persisting the assembled corpus and the
// history of assembly runs
type Store interface {
	Close() error

	// Corpus
	ReplaceCorpus(ctx context.Context, runID string, records []quote.Record) error
	LoadCorpus(ctx context.Context) ([]quote.Record, error)
	GetRecord(ctx context.Context, id string) (quote.Record, error)
	CorpusSize(ctx context.Context) (int, error)

	// Runs
	RecordRun(ctx context.Context, r Run) error
	LatestRun(ctx context.Context) (Run, error)
	Runs(ctx context.Context, limit int) ([]Run, error)
}

// Run is one stored assembly run
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	CorpusSize int
	StatsJSON  string // JSON-encoded statistics report
}
