package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
	"github.com/cognicore/quotekit/pkg/quotekit/quote"
	"github.com/cognicore/quotekit/pkg/quotekit/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu      sync.RWMutex
	records []quote.Record
	index   map[string]int
	runs    []store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// ReplaceCorpus swaps the whole corpus. Duplicate IDs or text hashes leave
// the current corpus untouched.
func (s *Store) ReplaceCorpus(ctx context.Context, runID string, records []quote.Record) error {
	index := make(map[string]int, len(records))
	hashes := make(map[string]struct{}, len(records))
	next := make([]quote.Record, len(records))
	for i, r := range records {
		if _, ok := index[r.ID]; ok || r.ID == "" {
			return fmt.Errorf("%w: duplicate or empty id %q", internalerr.ErrInvalidInput, r.ID)
		}
		if _, ok := hashes[r.TextHash]; ok {
			return fmt.Errorf("%w: duplicate text hash in %s", internalerr.ErrInvalidInput, r.ID)
		}
		index[r.ID] = i
		hashes[r.TextHash] = struct{}{}
		next[i] = copyRecord(r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = next
	s.index = index
	return nil
}

// LoadCorpus returns the corpus in acceptance order.
func (s *Store) LoadCorpus(ctx context.Context) ([]quote.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]quote.Record, len(s.records))
	for i, r := range s.records {
		out[i] = copyRecord(r)
	}
	return out, nil
}

// GetRecord returns one record by ID.
func (s *Store) GetRecord(ctx context.Context, id string) (quote.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return quote.Record{}, fmt.Errorf("record %s: %w", id, internalerr.ErrNotFound)
	}
	return copyRecord(s.records[i]), nil
}

// CorpusSize returns the number of stored records.
func (s *Store) CorpusSize(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// RecordRun stores a run, replacing any run with the same ID.
func (s *Store) RecordRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run without id", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.runs {
		if s.runs[i].ID == r.ID {
			s.runs[i] = r
			return nil
		}
	}
	s.runs = append(s.runs, r)
	return nil
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (store.Run, error) {
	runs, _ := s.Runs(ctx, 1)
	if len(runs) == 0 {
		return store.Run{}, fmt.Errorf("latest run: %w", internalerr.ErrNotFound)
	}
	return runs[0], nil
}

// Runs returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	runs := make([]store.Run, len(s.runs))
	copy(runs, s.runs)
	s.mu.RUnlock()

	sort.SliceStable(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID > runs[j].ID
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func copyRecord(r quote.Record) quote.Record {
	out := r
	if r.Topics != nil {
		out.Topics = append([]string(nil), r.Topics...)
	}
	return out
}
