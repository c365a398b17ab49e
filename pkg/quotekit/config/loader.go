package config

import (
	"fmt"
	"log/slog"

	"github.com/cognicore/quotekit/pkg/quotekit/assemble"
	"github.com/cognicore/quotekit/pkg/quotekit/fieldfilter"
	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
	"github.com/cognicore/quotekit/pkg/quotekit/quality"
	"github.com/cognicore/quotekit/pkg/quotekit/taxonomy"
)

// Loader loads configuration files and constructs components
type Loader struct {
	Path        string // YAML or TOML settings and tables
	AuthorsPath string // optional author|bucket list
}

// Components holds all loaded configuration components
type Components struct {
	Version    string
	Settings   Settings
	Filter     *fieldfilter.Filter
	Classifier *taxonomy.Classifier
	Scorer     *quality.Scorer
}

// Load reads the configured files and returns initialized components.
// With no paths set, the built-in tables and default settings are used.
func (l *Loader) Load() (*Components, error) {
	f := &File{Settings: DefaultSettings()}
	if l.Path != "" {
		loaded, err := LoadFile(l.Path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		f = loaded
	}

	comp := &Components{
		Version:  f.Version,
		Settings: f.Settings,
	}
	if comp.Version == "" {
		comp.Version = taxonomy.TablesVersion
	}

	// Field filter
	if f.Filter != nil {
		comp.Filter = fieldfilter.New(fieldfilter.Keywords{
			Exclude:    f.Filter.Exclude,
			Include:    f.Filter.Include,
			Qualifiers: f.Filter.Qualifiers,
			Indicators: f.Filter.Indicators,
		})
	} else {
		comp.Filter = fieldfilter.Default()
	}

	// Classifier
	cls, err := buildClassifier(f)
	if err != nil {
		return nil, err
	}
	comp.Classifier = cls

	if l.AuthorsPath != "" {
		entries, err := LoadAuthors(l.AuthorsPath)
		if err != nil {
			return nil, fmt.Errorf("load authors: %w", err)
		}
		for _, e := range entries {
			if !comp.Classifier.AddAuthors(e.Bucket, e.Author) {
				return nil, fmt.Errorf("load authors: %w: unknown bucket %q", internalerr.ErrInvalidConfig, e.Bucket)
			}
		}
	}

	// Scorer
	comp.Scorer = quality.New(comp.Classifier)
	if q := f.Quality; q != nil {
		if q.WeakSources != nil {
			comp.Scorer.WeakSources = q.WeakSources
		}
		if q.Optimal != nil {
			comp.Scorer.Optimal = *q.Optimal
		}
		if q.Acceptable != nil {
			comp.Scorer.Acceptable = *q.Acceptable
		}
		if q.TopicCap > 0 {
			comp.Scorer.TopicCap = q.TopicCap
		}
		if q.TermCap > 0 {
			comp.Scorer.TermCap = q.TermCap
		}
	}

	return comp, nil
}

func buildClassifier(f *File) (*taxonomy.Classifier, error) {
	c := taxonomy.NewClassifier()
	c.SetMaxTopics(f.Settings.MaxTopics)

	if f.Buckets != nil {
		for _, b := range f.Buckets {
			era, err := taxonomy.ParseEra(b.Era)
			if err != nil {
				return nil, fmt.Errorf("%w: bucket %q: %v", internalerr.ErrInvalidConfig, b.Name, err)
			}
			tradition, err := taxonomy.ParseTradition(b.Tradition)
			if err != nil {
				return nil, fmt.Errorf("%w: bucket %q: %v", internalerr.ErrInvalidConfig, b.Name, err)
			}
			c.AddBucket(b.Name, era, tradition, b.Authors)
		}
	} else {
		for _, b := range taxonomy.DefaultBuckets {
			c.AddBucket(b.Name, b.Era, b.Tradition, b.Authors)
		}
	}

	concepts := taxonomy.DefaultConcepts
	if f.Concepts != nil {
		concepts = make([]taxonomy.Concept, len(f.Concepts))
		for i, ct := range f.Concepts {
			concepts[i] = taxonomy.Concept{Label: ct.Label, Keywords: ct.Keywords}
		}
	}
	for _, ct := range concepts {
		if ct.Label == "" {
			return nil, fmt.Errorf("%w: concept with empty label", internalerr.ErrInvalidConfig)
		}
		c.AddConcept(ct.Label, ct.Keywords)
	}

	if f.EasternFields != nil {
		c.SetEasternFieldKeywords(f.EasternFields)
	} else {
		c.SetEasternFieldKeywords(taxonomy.DefaultEasternFieldKeywords)
	}
	return c, nil
}

// AssemblerOptions returns assembler options wired to these components.
func (c *Components) AssemblerOptions(logger *slog.Logger, obs assemble.Observer) assemble.Options {
	// An explicit zero in the settings file turns the threshold off.
	disable := c.Settings.QualityThreshold == 0
	return assemble.Options{
		Filter:                  c.Filter,
		Classifier:              c.Classifier,
		Scorer:                  c.Scorer,
		FuzzyThreshold:          c.Settings.FuzzyThreshold,
		WindowSize:              c.Settings.WindowSize,
		QualityThreshold:        c.Settings.QualityThreshold,
		DisableQualityThreshold: disable,
		RequireField:            c.Settings.RequireField,
		Workers:                 c.Settings.Workers,
		Logger:                  logger,
		Observer:                obs,
	}
}
