// Package quote holds the corpus data model: raw upstream records, the
// canonical Record emitted by the assembler, and the ID generator that keeps
// record IDs stable across runs.
package quote

import (
	"fmt"

	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
	"github.com/cognicore/quotekit/pkg/quotekit/normalize"
	"github.com/cognicore/quotekit/pkg/quotekit/taxonomy"
)

// Record is the canonical corpus entry. It is built once by the assembler
// and never mutated afterwards.
type Record struct {
	ID             string             `json:"id"`
	Text           string             `json:"text"`
	NormalizedText string             `json:"normalized_text"`
	TextHash       string             `json:"text_hash"`
	Author         string             `json:"author"`
	Source         string             `json:"source"`
	Era            taxonomy.Era       `json:"era"`
	Tradition      taxonomy.Tradition `json:"tradition"`
	Topics         []string           `json:"topics"`
	QualityScore   float64            `json:"quality_score"`
	WordCount      int                `json:"word_count"`
}

// Candidate is a record that has passed validation and carries its
// comparison keys but has not been classified, scored or given an ID yet.
type Candidate struct {
	Raw            Raw
	Text           string
	Author         string
	Source         string
	NormalizedText string
	TextHash       string
	WordCount      int
}

// NewCandidate validates raw and derives its display and comparison forms.
func NewCandidate(raw Raw) (Candidate, error) {
	if err := raw.Validate(); err != nil {
		return Candidate{}, err
	}
	text := normalize.Display(raw.Quote)
	norm := normalize.Text(text)
	if norm == "" {
		return Candidate{}, fmt.Errorf("%w: quote has no letters or digits", internalerr.ErrMalformedRecord)
	}
	return Candidate{
		Raw:            raw,
		Text:           text,
		Author:         normalize.Display(raw.Author),
		Source:         normalize.Display(raw.Source),
		NormalizedText: norm,
		TextHash:       normalize.Hash(norm),
		WordCount:      normalize.WordCount(text),
	}, nil
}

// Build finalizes a candidate into a Record.
func (c Candidate) Build(id string, cls taxonomy.Classification, score float64) Record {
	topics := make([]string, len(cls.Topics))
	copy(topics, cls.Topics)
	return Record{
		ID:             id,
		Text:           c.Text,
		NormalizedText: c.NormalizedText,
		TextHash:       c.TextHash,
		Author:         c.Author,
		Source:         c.Source,
		Era:            cls.Era,
		Tradition:      cls.Tradition,
		Topics:         topics,
		QualityScore:   score,
		WordCount:      c.WordCount,
	}
}

// Candidate rebuilds the comparison keys of an emitted record so it can be
// registered with a deduplication context on a re-run.
func (r Record) Candidate() Candidate {
	norm := r.NormalizedText
	if norm == "" {
		norm = normalize.Text(r.Text)
	}
	hash := r.TextHash
	if hash == "" {
		hash = normalize.Hash(norm)
	}
	return Candidate{
		Raw:            Raw{Quote: r.Text, Author: r.Author, Source: r.Source},
		Text:           r.Text,
		Author:         r.Author,
		Source:         r.Source,
		NormalizedText: norm,
		TextHash:       hash,
		WordCount:      r.WordCount,
	}
}
