package quotekit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/quotekit/internal/jsonl"
	"github.com/cognicore/quotekit/pkg/quotekit/assemble"
	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
	"github.com/cognicore/quotekit/pkg/quotekit/metrics"
	"github.com/cognicore/quotekit/pkg/quotekit/store/memstore"
)

const seedJSONL = `{"quote": "The unexamined life is not worth living.", "author": "Socrates", "field": "philosophy"}
{"quote": "The UNEXAMINED life is not worth living!!", "author": "Socrates", "field": "philosophy"}
{"quote": "Knowledge is power, and the truth is the beat.", "author": "MC Somebody", "field": "hip-hop lyrics"}
{"quote": "Knowledge is power.", "author": "Francis Bacon", "field": "philosophy of science"}
this line is not json
{"quote": "", "author": "Nobody"}
`

const moreJSONL = `[
  {"quote": "I think, therefore I am.", "author": "René Descartes", "source": "Discourse on the Method"},
  {"quote": "<p>Happiness depends upon <em>ourselves</em>.</p>", "author": "Aristotle", "source": "Nicomachean Ethics"}
]`

const habitJSONL = `{"quote": "We are what we repeatedly do. Excellence, then, is not an act, but a habit.", "author": "Aristotle", "source": "Nicomachean Ethics"}
{"quote": "We are what we repeatedly do. Excellence then is not an act but a habits", "author": "Will Durant", "source": "The Story of Philosophy"}
`

func fixedNow() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

func setupInputs(t *testing.T) (dir string, pattern string) {
	t.Helper()
	dir = t.TempDir()
	in := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(in, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(in, "a_seed.jsonl"), []byte(seedJSONL), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "b_more.json"), []byte(moreJSONL), 0o644))
	return dir, filepath.Join(in, "*.json*")
}

func newTestEngine(t *testing.T) (*Engine, *memstore.Store, *metrics.Collector) {
	t.Helper()
	st := memstore.New()
	m := metrics.New()
	engine, err := New(Options{Store: st, Metrics: m, Now: fixedNow})
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine, st, m
}

func TestBuildWritesEverything(t *testing.T) {
	ctx := context.Background()
	dir, pattern := setupInputs(t)
	engine, st, _ := newTestEngine(t)

	req := BuildRequest{
		Inputs:      []string{pattern},
		OutPath:     filepath.Join(dir, "out", "corpus.jsonl"),
		ReportPath:  filepath.Join(dir, "out", "stats.json"),
		MetricsPath: filepath.Join(dir, "out", "quotekit.prom"),
	}
	res, err := engine.Build(ctx, req)
	require.NoError(t, err)

	stats := res.Stats
	assert.Equal(t, 4, stats.Accepted)
	assert.Equal(t, 8, stats.Input, "the unreadable line counts as input")
	assert.Equal(t, 2, stats.Rejected[assemble.ReasonMalformed])
	assert.Equal(t, 1, stats.Rejected[assemble.ReasonFieldFiltered])
	assert.Equal(t, 1, stats.Rejected[assemble.ReasonExactDuplicate])

	corpus, err := jsonl.ReadCorpus(req.OutPath)
	require.NoError(t, err)
	require.Len(t, corpus, 4)
	assert.Equal(t, "aristotle_001", corpus[3].ID)
	assert.Equal(t, "Happiness depends upon ourselves.", corpus[3].Text, "markup is stripped before assembly")

	n, err := st.CorpusSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	latest, err := engine.LatestStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats.RunID, latest.RunID)
	assert.Equal(t, 4, latest.Accepted)

	assert.FileExists(t, req.ReportPath)
	prom, err := os.ReadFile(req.MetricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `quotekit_records_total{outcome="accepted"} 4`)
}

func TestBuildRerunIsStable(t *testing.T) {
	ctx := context.Background()
	dir, pattern := setupInputs(t)
	engine, _, _ := newTestEngine(t)

	out := filepath.Join(dir, "corpus.jsonl")
	req := BuildRequest{Inputs: []string{pattern}, OutPath: out, PriorPath: out}

	first, err := engine.Build(ctx, req)
	require.NoError(t, err)
	second, err := engine.Build(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, len(first.Records), second.Stats.Carried)
	assert.Equal(t, 0, second.Stats.Accepted)
	require.Len(t, second.Records, len(first.Records))
	for i := range first.Records {
		assert.Equal(t, first.Records[i].ID, second.Records[i].ID)
		assert.Equal(t, first.Records[i].Text, second.Records[i].Text)
	}
}

func TestBuildRerunKeepsNearCopiesOut(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	in := filepath.Join(dir, "habit.jsonl")
	require.NoError(t, os.WriteFile(in, []byte(habitJSONL), 0o644))
	engine, _, _ := newTestEngine(t)

	out := filepath.Join(dir, "corpus.jsonl")
	req := BuildRequest{Inputs: []string{in}, OutPath: out, PriorPath: out}

	for run := 1; run <= 3; run++ {
		res, err := engine.Build(ctx, req)
		require.NoError(t, err)
		require.Len(t, res.Records, 1, "run %d", run)
		assert.Equal(t, "aristotle_001", res.Records[0].ID)
		assert.Equal(t, 1, res.Stats.Rejected[assemble.ReasonFuzzyDuplicate], "run %d", run)
	}
}

func TestBuildPartitionedMatchesSequential(t *testing.T) {
	ctx := context.Background()
	_, pattern := setupInputs(t)

	seqEngine, _, _ := newTestEngine(t)
	seq, err := seqEngine.Build(ctx, BuildRequest{Inputs: []string{pattern}})
	require.NoError(t, err)

	parEngine, _, _ := newTestEngine(t)
	par, err := parEngine.Build(ctx, BuildRequest{Inputs: []string{pattern}, Partitioned: true})
	require.NoError(t, err)

	assert.Equal(t, seq.Records, par.Records)
	assert.Equal(t, seq.Stats.Input, par.Stats.Input)
	assert.Equal(t, seq.Stats.Rejected, par.Stats.Rejected)
	assert.Equal(t, 2, par.Stats.Partitions)
}

func TestBuildMissingInputKeepsOutput(t *testing.T) {
	ctx := context.Background()
	dir, pattern := setupInputs(t)
	engine, st, _ := newTestEngine(t)

	out := filepath.Join(dir, "corpus.jsonl")
	_, err := engine.Build(ctx, BuildRequest{Inputs: []string{pattern}, OutPath: out})
	require.NoError(t, err)
	before, err := os.ReadFile(out)
	require.NoError(t, err)

	_, err = engine.Build(ctx, BuildRequest{Inputs: []string{filepath.Join(dir, "missing", "*.jsonl")}, OutPath: out})
	require.ErrorIs(t, err, internalerr.ErrNotFound)

	after, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "failed build must not touch the output")
	n, err := st.CorpusSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n, "failed build must not touch the store")
}

func TestSearchStoredCorpus(t *testing.T) {
	ctx := context.Background()
	_, pattern := setupInputs(t)
	engine, _, _ := newTestEngine(t)

	_, err := engine.Build(ctx, BuildRequest{Inputs: []string{pattern}})
	require.NoError(t, err)

	hits, err := engine.Search(ctx, "unexamined life", 3)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "socrates_001", hits[0].Record.ID)
}

func TestEngineWithoutStore(t *testing.T) {
	engine, err := New(Options{})
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.Search(context.Background(), "life", 1)
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
	_, err = engine.Build(context.Background(), BuildRequest{PriorFromStore: true})
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
	assert.ErrorIs(t, engine.Watch(context.Background(), BuildRequest{}, 0), internalerr.ErrInvalidConfig)
}
