// Package retrieve finds corpus records relevant to a free-text query.
//
// Retriever is the collaborator interface downstream consumers program
// against. Overlap is the built-in implementation: it needs no index or
// embeddings and scores records by plain token overlap, so it is always
// available as a fallback.
package retrieve

import (
	"context"
	"sort"

	"github.com/cognicore/quotekit/pkg/quotekit/quote"
)

// Retriever returns up to k records ranked by relevance to query.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Hit, error)
}

// Hit is one ranked search result.
type Hit struct {
	Record    quote.Record `json:"record"`
	Score     float64      `json:"score"`
	Breakdown Breakdown    `json:"breakdown"`
}

// Weights defines how the overlap components combine.
//
//	score = α·text_overlap + β·topic_overlap + γ·quality
type Weights struct {
	AlphaText    float64 `yaml:"alpha_text" toml:"alpha_text"`
	BetaTopics   float64 `yaml:"beta_topics" toml:"beta_topics"`
	GammaQuality float64 `yaml:"gamma_quality" toml:"gamma_quality"`
}

// DefaultWeights keeps quality a tiebreaker: it can reorder records with
// similar overlap but never lifts a weak match over a strong one.
var DefaultWeights = Weights{
	AlphaText:    1.0,
	BetaTopics:   0.25,
	GammaQuality: 0.05,
}

// Breakdown provides the weighted components of a score.
type Breakdown struct {
	Text    float64 `json:"text"`
	Topics  float64 `json:"topics"`
	Quality float64 `json:"quality"`
	Total   float64 `json:"total"`
}

type document struct {
	rec    quote.Record
	tokens map[string]struct{}
	topics map[string]struct{}
}

// Overlap ranks records by Jaccard overlap between query tokens and quote
// tokens, plus a bonus for topic labels named in the query. It is read-only
// after construction and safe for concurrent use.
type Overlap struct {
	weights Weights
	tok     *Tokenizer
	docs    []document
}

// Option configures an Overlap retriever.
type Option func(*Overlap)

// WithWeights overrides DefaultWeights.
func WithWeights(w Weights) Option {
	return func(o *Overlap) { o.weights = w }
}

// WithTokenizer overrides the default stopword tokenizer.
func WithTokenizer(t *Tokenizer) Option {
	return func(o *Overlap) { o.tok = t }
}

// NewOverlap indexes records for searching.
func NewOverlap(records []quote.Record, opts ...Option) *Overlap {
	o := &Overlap{
		weights: DefaultWeights,
		tok:     NewTokenizer(DefaultStopwords),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.docs = make([]document, 0, len(records))
	for _, r := range records {
		text := r.NormalizedText
		if text == "" {
			text = r.Text
		}
		topics := make(map[string]struct{})
		for _, label := range r.Topics {
			for tok := range o.tok.Set(label) {
				topics[tok] = struct{}{}
			}
		}
		o.docs = append(o.docs, document{
			rec:    r,
			tokens: o.tok.Set(text),
			topics: topics,
		})
	}
	return o
}

// Len returns the number of indexed records.
func (o *Overlap) Len() int { return len(o.docs) }

// Search implements Retriever. Records sharing no token or topic with the
// query are never returned. k <= 0 returns every match. Ties are broken by
// quality, then by ID, so results are deterministic.
func (o *Overlap) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	q := o.tok.Set(query)
	if len(q) == 0 {
		return nil, nil
	}

	var hits []Hit
	for i, d := range o.docs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		b, ok := o.score(q, d)
		if !ok {
			continue
		}
		hits = append(hits, Hit{Record: d.rec, Score: b.Total, Breakdown: b})
	}

	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Record.QualityScore != b.Record.QualityScore {
			return a.Record.QualityScore > b.Record.QualityScore
		}
		return a.Record.ID < b.Record.ID
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (o *Overlap) score(q map[string]struct{}, d document) (Breakdown, bool) {
	text := jaccard(q, d.tokens)
	topics := coverage(q, d.topics)
	if text == 0 && topics == 0 {
		return Breakdown{}, false
	}

	b := Breakdown{
		Text:    o.weights.AlphaText * text,
		Topics:  o.weights.BetaTopics * topics,
		Quality: o.weights.GammaQuality * d.rec.QualityScore,
	}
	b.Total = b.Text + b.Topics + b.Quality
	return b, true
}

// jaccard calculates Jaccard similarity between two token sets
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := intersect(a, b)
	return float64(inter) / float64(len(a)+len(b)-inter)
}

// coverage is the fraction of query tokens that name a topic of the record.
func coverage(q, topics map[string]struct{}) float64 {
	if len(q) == 0 || len(topics) == 0 {
		return 0
	}
	return float64(intersect(q, topics)) / float64(len(q))
}

func intersect(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for s := range a {
		if _, ok := b[s]; ok {
			n++
		}
	}
	return n
}
