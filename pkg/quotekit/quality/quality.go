// Package quality scores how rich and well sourced a quote record is.
//
// The score is the mean of four sub-scores, each in [0,1]: length, topic
// richness, source authority and terminology density. Scoring never
// rejects anything; admission thresholds are the assembler's business.
package quality

import (
	"math"
	"strings"

	"github.com/cognicore/quotekit/pkg/quotekit/quote"
	"github.com/cognicore/quotekit/pkg/quotekit/taxonomy"
)

// Sub-score values.
const (
	LengthOptimal    = 1.0
	LengthAcceptable = 0.7
	LengthPoor       = 0.3

	SourceNamed   = 1.0
	SourceWeak    = 0.5
	SourceMissing = 0.3
)

// DefaultWeakSourceMarkers mark provenance that is not a named work.
var DefaultWeakSourceMarkers = []string{
	"attributed", "unknown", "web search", "internet", "anonymous", "unsourced",
	"n/a", "various", "disputed",
}

// Band is an inclusive word-count range.
type Band struct {
	Min int `yaml:"min" toml:"min"`
	Max int `yaml:"max" toml:"max"`
}

// Contains reports whether n falls inside the band.
func (b Band) Contains(n int) bool { return n >= b.Min && n <= b.Max }

// TermCounter counts distinct concept keywords in normalized text.
// *taxonomy.Classifier satisfies it.
type TermCounter interface {
	TermHits(normalized string) int
}

// Features are the inputs the score is computed from.
type Features struct {
	WordCount int
	Topics    int
	Source    string
	TermHits  int
}

// Breakdown is a score with its parts.
type Breakdown struct {
	Length float64 `json:"length"`
	Topics float64 `json:"topics"`
	Source float64 `json:"source"`
	Terms  float64 `json:"terms"`
	Score  float64 `json:"score"`
}

// Scorer computes quality scores.
type Scorer struct {
	Optimal     Band
	Acceptable  Band
	TopicCap    int
	TermCap     int
	WeakSources []string

	terms TermCounter
}

// New creates a scorer with default bands and caps. terms may be nil, in
// which case terminology density is always zero.
func New(terms TermCounter) *Scorer {
	return &Scorer{
		Optimal:     Band{Min: 15, Max: 100},
		Acceptable:  Band{Min: 5, Max: 150},
		TopicCap:    3,
		TermCap:     4,
		WeakSources: DefaultWeakSourceMarkers,
		terms:       terms,
	}
}

// Features extracts scoring inputs from a candidate and its
// classification.
func (s *Scorer) Features(c quote.Candidate, cls taxonomy.Classification) Features {
	f := Features{
		WordCount: c.WordCount,
		Topics:    len(cls.Topics),
		Source:    c.Source,
	}
	if s.terms != nil {
		f.TermHits = s.terms.TermHits(c.NormalizedText)
	}
	return f
}

// ScoreCandidate scores a classified candidate.
func (s *Scorer) ScoreCandidate(c quote.Candidate, cls taxonomy.Classification) Breakdown {
	return s.Score(s.Features(c, cls))
}

// Score computes the composite score. It is monotonic in Topics, TermHits
// and source strength.
func (s *Scorer) Score(f Features) Breakdown {
	b := Breakdown{
		Length: s.lengthScore(f.WordCount),
		Topics: capped(f.Topics, s.TopicCap),
		Source: s.SourceScore(f.Source),
		Terms:  capped(f.TermHits, s.TermCap),
	}
	b.Score = clamp((b.Length + b.Topics + b.Source + b.Terms) / 4)
	return b
}

func (s *Scorer) lengthScore(words int) float64 {
	switch {
	case s.Optimal.Contains(words):
		return LengthOptimal
	case s.Acceptable.Contains(words):
		return LengthAcceptable
	default:
		return LengthPoor
	}
}

// SourceScore rates provenance: a named work beats a weak marker, which
// beats nothing.
func (s *Scorer) SourceScore(source string) float64 {
	src := strings.ToLower(strings.TrimSpace(source))
	if src == "" {
		return SourceMissing
	}
	for _, m := range s.WeakSources {
		if m != "" && strings.Contains(src, strings.ToLower(m)) {
			return SourceWeak
		}
	}
	return SourceNamed
}

func capped(n, limit int) float64 {
	if limit <= 0 || n <= 0 {
		return 0
	}
	if n > limit {
		n = limit
	}
	return float64(n) / float64(limit)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
