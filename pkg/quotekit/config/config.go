package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
	"github.com/cognicore/quotekit/pkg/quotekit/quality"
)

// File is the on-disk configuration: run settings plus the lookup tables.
// Absent tables fall back to the built-in ones; a present table replaces
// its built-in counterpart wholesale.
type File struct {
	Version       string         `yaml:"version" toml:"version"`
	Settings      Settings       `yaml:"settings" toml:"settings"`
	Filter        *FilterTable   `yaml:"filter" toml:"filter"`
	Buckets       []BucketTable  `yaml:"buckets" toml:"buckets"`
	Concepts      []ConceptTable `yaml:"concepts" toml:"concepts"`
	EasternFields []string       `yaml:"eastern_fields" toml:"eastern_fields"`
	Quality       *QualityTable  `yaml:"quality" toml:"quality"`
}

// Settings are the tunable run parameters.
type Settings struct {
	FuzzyThreshold   float64 `yaml:"fuzzy_threshold" toml:"fuzzy_threshold" json:"fuzzy_threshold"`
	WindowSize       int     `yaml:"window_size" toml:"window_size" json:"window_size"`
	QualityThreshold float64 `yaml:"quality_threshold" toml:"quality_threshold" json:"quality_threshold"`
	MaxTopics        int     `yaml:"max_topics" toml:"max_topics" json:"max_topics"`
	RequireField     bool    `yaml:"require_field" toml:"require_field" json:"require_field"`
	Workers          int     `yaml:"workers" toml:"workers" json:"workers"`
}

// FilterTable holds the field filter keyword sets.
type FilterTable struct {
	Exclude    []string `yaml:"exclude" toml:"exclude"`
	Include    []string `yaml:"include" toml:"include"`
	Qualifiers []string `yaml:"qualifiers" toml:"qualifiers"`
	Indicators []string `yaml:"indicators" toml:"indicators"`
}

// BucketTable is one author bucket. Order in the file is priority order.
type BucketTable struct {
	Name      string   `yaml:"name" toml:"name"`
	Era       string   `yaml:"era" toml:"era"`
	Tradition string   `yaml:"tradition" toml:"tradition"`
	Authors   []string `yaml:"authors" toml:"authors"`
}

// ConceptTable is one concept and its keywords.
type ConceptTable struct {
	Label    string   `yaml:"label" toml:"label"`
	Keywords []string `yaml:"keywords" toml:"keywords"`
}

// QualityTable tunes the quality scorer.
type QualityTable struct {
	WeakSources []string      `yaml:"weak_sources" toml:"weak_sources"`
	Optimal     *quality.Band `yaml:"optimal" toml:"optimal"`
	Acceptable  *quality.Band `yaml:"acceptable" toml:"acceptable"`
	TopicCap    int           `yaml:"topic_cap" toml:"topic_cap"`
	TermCap     int           `yaml:"term_cap" toml:"term_cap"`
}

// DefaultSettings returns the built-in run parameters.
func DefaultSettings() Settings {
	return Settings{
		FuzzyThreshold:   0.95,
		WindowSize:       1000,
		QualityThreshold: 0.4,
		MaxTopics:        6,
		Workers:          1,
	}
}

// Validate rejects settings no run could use.
func (s Settings) Validate() error {
	switch {
	case s.FuzzyThreshold <= 0 || s.FuzzyThreshold > 1:
		return fmt.Errorf("%w: fuzzy_threshold %v outside (0,1]", internalerr.ErrInvalidConfig, s.FuzzyThreshold)
	case s.WindowSize < 1:
		return fmt.Errorf("%w: window_size %d must be at least 1", internalerr.ErrInvalidConfig, s.WindowSize)
	case s.QualityThreshold < 0 || s.QualityThreshold > 1:
		return fmt.Errorf("%w: quality_threshold %v outside [0,1]", internalerr.ErrInvalidConfig, s.QualityThreshold)
	case s.MaxTopics < 1:
		return fmt.Errorf("%w: max_topics %d must be at least 1", internalerr.ErrInvalidConfig, s.MaxTopics)
	case s.Workers < 1:
		return fmt.Errorf("%w: workers %d must be at least 1", internalerr.ErrInvalidConfig, s.Workers)
	}
	return nil
}

// LoadFile reads a YAML (.yaml, .yml) or TOML (.toml) configuration file.
// Keys missing from the file keep their defaults.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(filepath.Ext(path), data)
}

// Parse decodes configuration data in the format named by ext.
func Parse(ext string, data []byte) (*File, error) {
	f := &File{Settings: DefaultSettings()}

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(f); err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", internalerr.ErrInvalidConfig, ext)
	}

	if err := f.Settings.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// AuthorEntry adds one author name to a named bucket.
type AuthorEntry struct {
	Author string
	Bucket string
}

// LoadAuthors loads extra author names from a line-oriented file.
// Format: author|bucket. Blank lines and lines starting with # are skipped.
func LoadAuthors(path string) ([]AuthorEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []AuthorEntry
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %s:%d: want author|bucket", internalerr.ErrInvalidConfig, path, i+1)
		}
		author, bucket := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if author == "" || bucket == "" {
			return nil, fmt.Errorf("%w: %s:%d: empty author or bucket", internalerr.ErrInvalidConfig, path, i+1)
		}
		entries = append(entries, AuthorEntry{Author: author, Bucket: bucket})
	}
	return entries, nil
}
