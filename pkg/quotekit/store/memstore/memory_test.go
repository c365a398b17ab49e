package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
	"github.com/cognicore/quotekit/pkg/quotekit/quote"
	"github.com/cognicore/quotekit/pkg/quotekit/store"
)

var _ store.Store = (*Store)(nil)

func TestReplaceAndLoad(t *testing.T) {
	ctx := context.Background()
	s := New()

	records := []quote.Record{
		{ID: "a_001", TextHash: "h1", Topics: []string{"ethics"}},
		{ID: "a_002", TextHash: "h2"},
	}
	require.NoError(t, s.ReplaceCorpus(ctx, "run-1", records))

	// Mutating the input must not reach the store
	records[0].Topics[0] = "changed"

	loaded, err := s.LoadCorpus(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "a_001", loaded[0].ID)
	assert.Equal(t, []string{"ethics"}, loaded[0].Topics, "store keeps its own copy")

	r, err := s.GetRecord(ctx, "a_002")
	require.NoError(t, err)
	assert.Equal(t, "h2", r.TextHash)

	_, err = s.GetRecord(ctx, "zzz")
	assert.ErrorIs(t, err, internalerr.ErrNotFound)
}

func TestReplaceRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.ReplaceCorpus(ctx, "run-1", []quote.Record{{ID: "keep_001", TextHash: "k"}}))

	cases := [][]quote.Record{
		{{ID: "a_001", TextHash: "h1"}, {ID: "a_001", TextHash: "h2"}},
		{{ID: "a_001", TextHash: "h1"}, {ID: "a_002", TextHash: "h1"}},
		{{ID: "", TextHash: "h1"}},
	}
	for i, c := range cases {
		assert.ErrorIs(t, s.ReplaceCorpus(ctx, "run-2", c), internalerr.ErrInvalidInput, "case %d", i)
	}

	n, err := s.CorpusSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "failed replace keeps the previous corpus")
}

func TestRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.LatestRun(ctx)
	assert.ErrorIs(t, err, internalerr.ErrNotFound)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordRun(ctx, store.Run{ID: "r1", StartedAt: base}))
	require.NoError(t, s.RecordRun(ctx, store.Run{ID: "r2", StartedAt: base.Add(time.Minute)}))
	require.NoError(t, s.RecordRun(ctx, store.Run{ID: "r1", StartedAt: base, CorpusSize: 5}))

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r2", latest.ID)

	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 5, runs[1].CorpusSize, "r1 is upserted in place")

	assert.ErrorIs(t, s.RecordRun(ctx, store.Run{}), internalerr.ErrInvalidInput)
}
