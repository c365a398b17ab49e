package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/quotekit/pkg/quotekit/assemble"
	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
	"github.com/cognicore/quotekit/pkg/quotekit/taxonomy"
)

func TestLoaderAllEmpty(t *testing.T) {
	loader := Loader{}

	comp, err := loader.Load()
	require.NoError(t, err)

	require.NotNil(t, comp.Filter)
	require.NotNil(t, comp.Classifier)
	require.NotNil(t, comp.Scorer)
	assert.Equal(t, taxonomy.TablesVersion, comp.Version)
	assert.Equal(t, DefaultSettings(), comp.Settings)

	cls := comp.Classifier.Classify("Socrates", "philosophy", "Know thyself.")
	assert.Equal(t, taxonomy.EraAncient, cls.Era)
	assert.True(t, comp.Filter.IsIncluded("philosophy"))

	opts := comp.AssemblerOptions(nil, nil)
	assert.Equal(t, assemble.DefaultQualityThreshold, opts.QualityThreshold)
	assert.False(t, opts.DisableQualityThreshold)
}

func TestLoaderNonExistentConfig(t *testing.T) {
	_, err := (&Loader{Path: "/nonexistent/tables.yaml"}).Load()
	assert.Error(t, err)
}

func TestLoaderNonExistentAuthors(t *testing.T) {
	_, err := (&Loader{AuthorsPath: "/nonexistent/authors.txt"}).Load()
	assert.Error(t, err)
}

func TestLoaderValidFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "tables.yaml", `settings:
  max_topics: 2
filter:
  exclude: [poetry]
  include: [poetics]
  qualifiers: [criticism]
buckets:
  - name: greek
    era: ancient
    tradition: western
    authors: [plato]
concepts:
  - label: knowledge
    keywords: [know]
  - label: truth
    keywords: ["true"]
  - label: beauty
    keywords: [beauty]
quality:
  weak_sources: [blog]
`)
	authorsPath := writeFile(t, dir, "authors.txt", "Hypatia|greek\n")

	comp, err := (&Loader{Path: cfgPath, AuthorsPath: authorsPath}).Load()
	require.NoError(t, err)

	assert.False(t, comp.Filter.IsIncluded("philosophy"), "configured filter replaces the built-in include list")
	assert.True(t, comp.Filter.IsIncluded("poetry and poetics criticism"))

	cls := comp.Classifier.Classify("Hypatia of Alexandria", "", "To know the true is beauty.")
	assert.Equal(t, "greek", cls.Bucket, "extra author joins bucket greek")
	assert.Equal(t, []string{"knowledge", "truth"}, cls.Topics, "topics capped at two")

	assert.Equal(t, 0.5, comp.Scorer.SourceScore("my blog"))
	assert.Equal(t, 1.0, comp.Scorer.SourceScore("Attributed"), "weak sources are replaced, not merged")

	opts := comp.AssemblerOptions(nil, nil)
	assert.Same(t, comp.Classifier, opts.Classifier)
	assert.Equal(t, 0.95, opts.FuzzyThreshold)
}

func TestLoaderZeroQualityThresholdDisablesIt(t *testing.T) {
	cfgPath := writeFile(t, t.TempDir(), "tables.yaml", "settings:\n  quality_threshold: 0\n")

	comp, err := (&Loader{Path: cfgPath}).Load()
	require.NoError(t, err)

	opts := comp.AssemblerOptions(nil, nil)
	assert.True(t, opts.DisableQualityThreshold)
}

func TestLoaderUnknownBucket(t *testing.T) {
	authorsPath := writeFile(t, t.TempDir(), "authors.txt", "Hypatia|nowhere\n")

	_, err := (&Loader{AuthorsPath: authorsPath}).Load()
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}

func TestLoaderInvalidBucketEra(t *testing.T) {
	cfgPath := writeFile(t, t.TempDir(), "tables.yaml", `buckets:
  - name: medieval
    era: medieval
    tradition: western
    authors: [aquinas]
`)

	_, err := (&Loader{Path: cfgPath}).Load()
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}
