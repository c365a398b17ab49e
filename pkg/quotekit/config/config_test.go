package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tables.yaml", `version: "test-1"
settings:
  fuzzy_threshold: 0.9
  window_size: 50
  require_field: true
filter:
  exclude: [music]
  include: [philosophy]
buckets:
  - name: greek
    era: ancient
    tradition: western
    authors: [socrates, plato]
concepts:
  - label: knowledge
    keywords: [know, wisdom]
`)

	f, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test-1", f.Version)
	assert.Equal(t, 0.9, f.Settings.FuzzyThreshold)
	assert.Equal(t, 50, f.Settings.WindowSize)
	assert.True(t, f.Settings.RequireField)

	// Untouched keys keep defaults
	assert.Equal(t, 0.4, f.Settings.QualityThreshold)
	assert.Equal(t, 6, f.Settings.MaxTopics)
	assert.Equal(t, 1, f.Settings.Workers)

	require.Len(t, f.Buckets, 1)
	assert.Len(t, f.Buckets[0].Authors, 2)
	assert.Nil(t, f.Quality, "absent quality table stays nil")
}

func TestLoadFileTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tables.toml", `version = "toml-1"

[settings]
quality_threshold = 0.5
workers = 4

[[buckets]]
name = "sages"
era = "ancient"
tradition = "eastern"
authors = ["confucius", "laozi"]

[quality]
weak_sources = ["attributed"]
topic_cap = 5
`)

	f, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, f.Settings.QualityThreshold)
	assert.Equal(t, 4, f.Settings.Workers)
	assert.Equal(t, 0.95, f.Settings.FuzzyThreshold, "default fuzzy threshold survives")
	require.Len(t, f.Buckets, 1)
	assert.Equal(t, "eastern", f.Buckets[0].Tradition)
	require.NotNil(t, f.Quality)
	assert.Equal(t, 5, f.Quality.TopicCap)
}

func TestLoadFileEmptyYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yaml", "")

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), f.Settings)
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"threshold.yaml": "settings:\n  fuzzy_threshold: 1.5\n",
		"zero.yaml":      "settings:\n  fuzzy_threshold: 0\n",
		"window.yaml":    "settings:\n  window_size: 0\n",
		"quality.toml":   "[settings]\nquality_threshold = -0.1\n",
		"workers.yaml":   "settings:\n  workers: 0\n",
		"unknown.yaml":   "settings:\n  fuzzy: 0.9\n",
		"malformed.yaml": "settings: [unclosed\n",
		"tables.json":    "{}",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, dir, name, content))
			assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("/nonexistent/tables.yaml")
	assert.Error(t, err)
}

func TestLoadAuthors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "authors.txt", `# extra authors
Hypatia|ancient-western

Nichiren | ancient-eastern
`)

	entries, err := LoadAuthors(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Nichiren", entries[1].Author)
	assert.Equal(t, "ancient-eastern", entries[1].Bucket)
}

func TestLoadAuthorsMalformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "authors.txt", "Hypatia\n")

	_, err := LoadAuthors(path)
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}
