package jsonl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
	"github.com/cognicore/quotekit/pkg/quotekit/quote"
	"github.com/cognicore/quotekit/pkg/quotekit/taxonomy"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFileSkipsMalformedLines(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "seed.jsonl"), `{"quote": "The unexamined life is not worth living.", "author": "Socrates", "field": "philosophy"}

not json at all
{"quote": "Knowledge is power.", "author": "Francis Bacon", "topics": "knowledge, power"}
{"quote": 42}
`)

	var r Reader
	f, err := r.ReadFile(path)
	require.NoError(t, err)

	require.Len(t, f.Records, 2)
	assert.Equal(t, 2, f.Skipped)
	assert.Equal(t, 1, f.Records[0].Line)
	assert.Equal(t, 4, f.Records[1].Line)
	assert.Equal(t, path, f.Records[0].Origin)
	assert.Equal(t, "philosophy", f.Records[0].CategoryField())
	assert.Equal(t, quote.StringList{"knowledge", "power"}, f.Records[1].Topics)
}

func TestReadFileArrayBatch(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "batch.json"), `
[
  {"quote": "<p>Happiness depends upon <em>ourselves</em>.</p>", "author": "Aristotle", "source": "Nicomachean Ethics"},
  {"quote": ["wrong"], "author": "Nobody"},
  {"quote": "Wonder is the beginning of wisdom.", "author": "Socrates"}
]`)

	var r Reader
	f, err := r.ReadFile(path)
	require.NoError(t, err)

	require.Len(t, f.Records, 2)
	assert.Equal(t, 1, f.Skipped)
	assert.Equal(t, "Happiness depends upon ourselves.", f.Records[0].Quote)
	assert.Equal(t, 3, f.Records[1].Line)
}

func TestReadFileKeepMarkup(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "seed.jsonl"),
		`{"quote": "a <b>bold</b> claim", "author": "X"}`+"\n")

	r := Reader{KeepMarkup: true}
	f, err := r.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a <b>bold</b> claim", f.Records[0].Quote)
}

func TestReadFileMissing(t *testing.T) {
	var r Reader
	_, err := r.ReadFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStripMarkup(t *testing.T) {
	cases := map[string]string{
		"plain text":                     "plain text",
		"Tom &amp; Jerry":                "Tom & Jerry",
		"line one<br>line two":           "line one line two",
		"<p>first</p><p>second</p>":      "first second",
		"caf&eacute; &ldquo;noir&rdquo;": "café “noir”",
		"x < y":                          "x < y",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripMarkup(in), in)
	}
}

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.jsonl"), "")
	b := writeFile(t, filepath.Join(dir, "nested", "deep", "b.jsonl"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")

	files, err := Expand([]string{filepath.Join(dir, "**", "*.jsonl"), a})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)

	_, err = Expand([]string{filepath.Join(dir, "*.csv")})
	assert.True(t, errors.Is(err, internalerr.ErrNotFound))
}

func TestReadAllKeepsPathOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.jsonl"), `{"quote": "Second file.", "author": "B"}`+"\n")
	writeFile(t, filepath.Join(dir, "a.jsonl"), `{"quote": "First file.", "author": "A"}`+"\nbroken\n")

	r := Reader{Workers: 2}
	files, err := r.ReadAll(context.Background(), []string{filepath.Join(dir, "*.jsonl")})
	require.NoError(t, err)
	require.Len(t, files, 2)

	records, skipped := Flatten(files)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].Author)
	assert.Equal(t, "B", records[1].Author)
	assert.Equal(t, 1, skipped)

	parts := Partitions(files)
	assert.Len(t, parts, 2)
	assert.Len(t, parts[0], 1)
}

func sampleRecords() []quote.Record {
	return []quote.Record{
		{
			ID: "socrates_001", Text: "The unexamined life is not worth living.",
			NormalizedText: "the unexamined life is not worth living", TextHash: "abc",
			Author: "Socrates", Era: taxonomy.EraAncient, Tradition: taxonomy.TraditionWestern,
			Topics: []string{"existence"}, QualityScore: 0.6, WordCount: 7,
		},
		{
			ID: "laozi_001", Text: "A journey of a thousand miles begins with a single step.",
			NormalizedText: "a journey of a thousand miles begins with a single step", TextHash: "def",
			Author: "Laozi", Era: taxonomy.EraAncient, Tradition: taxonomy.TraditionEastern,
			QualityScore: 0.5, WordCount: 11,
		},
	}
}

func TestCorpusRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "corpus.jsonl")
	require.NoError(t, WriteCorpus(path, sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"topics":[]`, "nil topics are written as an empty list")

	got, err := ReadCorpus(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "laozi_001", got[1].ID)
	assert.Equal(t, taxonomy.TraditionEastern, got[1].Tradition)
	assert.Equal(t, []string{}, got[1].Topics)
}

func TestReadCorpusMissingIsEmpty(t *testing.T) {
	got, err := ReadCorpus(filepath.Join(t.TempDir(), "none.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadCorpusRejectsUnknownEra(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "corpus.jsonl"),
		`{"id":"x_001","text":"t","author":"X","era":"medieval","tradition":"western","topics":[]}`+"\n")

	_, err := ReadCorpus(path)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestWriterAbortLeavesDestination(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.jsonl")
	require.NoError(t, WriteCorpus(path, sampleRecords()[:1]))

	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Emit(sampleRecords()[1]))
	assert.Equal(t, 1, w.Count())
	w.Abort()
	w.Abort()

	got, err := ReadCorpus(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "socrates_001", got[0].ID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be removed")
}

func TestWriteFileReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, WriteFile(path, []byte("one")))
	require.NoError(t, WriteFile(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}
