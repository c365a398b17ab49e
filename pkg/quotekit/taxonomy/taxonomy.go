// Package taxonomy assigns era, tradition and topics to quotes from
// keyword evidence.
//
// Everything here is table lookup, not inference: author name lists map to
// an era/tradition bucket, and a concept table maps keywords to topic
// labels. Both tables are ordered so results are deterministic.
package taxonomy

import (
	"strings"
	"unicode/utf8"

	"github.com/cognicore/quotekit/pkg/quotekit/normalize"
)

// DefaultMaxTopics caps the topic set of a single quote.
const DefaultMaxTopics = 6

// Default era/tradition for authors that match no bucket.
const (
	DefaultEra       = EraContemporary
	DefaultTradition = TraditionWestern
)

// Bucket maps a list of author names to an era and a tradition.
type Bucket struct {
	Name      string
	Era       Era
	Tradition Tradition
	Authors   []string // folded with normalize.Words
}

// Concept maps keywords to a topic label.
type Concept struct {
	Label    string
	Keywords []string // normalized with normalize.Text
}

// Classifier holds the lookup tables. Buckets are checked in insertion
// order and the first match wins; concepts contribute topics in insertion
// order.
type Classifier struct {
	buckets         []Bucket
	concepts        []Concept
	easternKeywords []string
	maxTopics       int
}

// NewClassifier creates a classifier with empty tables.
func NewClassifier() *Classifier {
	return &Classifier{maxTopics: DefaultMaxTopics}
}

// AddBucket appends an author bucket. Later buckets have lower priority.
func (c *Classifier) AddBucket(name string, era Era, tradition Tradition, authors []string) {
	normalized := make([]string, 0, len(authors))
	for _, a := range authors {
		if w := normalize.Words(a); w != "" {
			normalized = append(normalized, w)
		}
	}
	c.buckets = append(c.buckets, Bucket{Name: name, Era: era, Tradition: tradition, Authors: normalized})
}

// AddAuthors appends names to an existing bucket. It reports false when no
// bucket has that name.
func (c *Classifier) AddAuthors(bucket string, authors ...string) bool {
	for i := range c.buckets {
		if c.buckets[i].Name != bucket {
			continue
		}
		for _, a := range authors {
			if w := normalize.Words(a); w != "" {
				c.buckets[i].Authors = append(c.buckets[i].Authors, w)
			}
		}
		return true
	}
	return false
}

// AddConcept appends a concept. If the label already exists its keywords
// are merged and its position is kept.
func (c *Classifier) AddConcept(label string, keywords []string) {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if n := normalize.Text(kw); n != "" {
			normalized = append(normalized, n)
		}
	}
	for i := range c.concepts {
		if c.concepts[i].Label == label {
			c.concepts[i].Keywords = append(c.concepts[i].Keywords, normalized...)
			return
		}
	}
	c.concepts = append(c.concepts, Concept{Label: label, Keywords: normalized})
}

// SetEasternFieldKeywords sets category-field keywords that file an
// otherwise unknown author under the eastern tradition.
func (c *Classifier) SetEasternFieldKeywords(keywords []string) {
	c.easternKeywords = c.easternKeywords[:0]
	for _, kw := range keywords {
		if w := normalize.Words(kw); w != "" {
			c.easternKeywords = append(c.easternKeywords, w)
		}
	}
}

// SetMaxTopics changes the topic cap. Values below 1 are ignored.
func (c *Classifier) SetMaxTopics(n int) {
	if n > 0 {
		c.maxTopics = n
	}
}

// MaxTopics returns the topic cap.
func (c *Classifier) MaxTopics() int { return c.maxTopics }

// Buckets returns the bucket table in priority order.
func (c *Classifier) Buckets() []Bucket { return c.buckets }

// Concepts returns the concept table in order.
func (c *Classifier) Concepts() []Concept { return c.concepts }

// Input carries everything the classifier may use. Hints come from the raw
// record and are only consulted when the author matches no bucket.
type Input struct {
	Author        string
	Field         string
	Text          string
	Meaning       string
	EraHint       string
	TraditionHint string
	TopicHints    []string
}

// Classification is the taxonomy attached to one quote. Era and Tradition
// are always set.
type Classification struct {
	Era       Era
	Tradition Tradition
	Topics    []string

	// Bucket is the matched author bucket, empty when none matched.
	Bucket string
	// EraDefaulted is set when no bucket matched and the era or the
	// tradition fell back to the default.
	EraDefaulted bool
	// TopicsDefaulted is set when no concept keyword and no hint matched.
	TopicsDefaulted bool
}

// Defaulted reports whether any default was applied.
func (c Classification) Defaulted() bool {
	return c.EraDefaulted || c.TopicsDefaulted
}

// Classify assigns era, tradition and topics from the author name, the
// category field and the quote text.
func (c *Classifier) Classify(author, field, text string) Classification {
	return c.ClassifyInput(Input{Author: author, Field: field, Text: text})
}

// ClassifyInput is Classify with the optional gloss and raw-record hints.
func (c *Classifier) ClassifyInput(in Input) Classification {
	var out Classification

	if b, ok := c.MatchAuthor(in.Author); ok {
		out.Era, out.Tradition, out.Bucket = b.Era, b.Tradition, b.Name
	} else {
		out.Era, out.Tradition, out.EraDefaulted = c.fallback(in)
	}

	out.Topics = c.topics(in)
	out.TopicsDefaulted = len(out.Topics) == 0
	return out
}

// MatchAuthor returns the first bucket whose name list contains the author
// as a run of whole words.
func (c *Classifier) MatchAuthor(author string) (Bucket, bool) {
	words := normalize.Words(author)
	if words == "" {
		return Bucket{}, false
	}
	for _, b := range c.buckets {
		for _, name := range b.Authors {
			if strings.Contains(" "+words+" ", " "+name+" ") {
				return b, true
			}
		}
	}
	return Bucket{}, false
}

func (c *Classifier) fallback(in Input) (Era, Tradition, bool) {
	era, eraErr := ParseEra(in.EraHint)
	tradition, tradErr := ParseTradition(in.TraditionHint)

	if tradErr != nil && c.fieldIsEastern(in.Field) {
		tradition, tradErr = TraditionEastern, nil
	}

	defaulted := eraErr != nil || tradErr != nil
	if eraErr != nil {
		era = DefaultEra
	}
	if tradErr != nil {
		tradition = DefaultTradition
	}
	return era, tradition, defaulted
}

func (c *Classifier) fieldIsEastern(field string) bool {
	words := normalize.Words(field)
	if words == "" {
		return false
	}
	for _, kw := range c.easternKeywords {
		if strings.Contains(" "+words+" ", " "+kw+" ") {
			return true
		}
	}
	return false
}

func (c *Classifier) topics(in Input) []string {
	text := normalize.Text(in.Text)
	meaning := normalize.Text(in.Meaning)

	seen := make(map[string]struct{})
	var out []string
	add := func(label string) {
		if label == "" || len(out) >= c.maxTopics {
			return
		}
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}

	for _, concept := range c.concepts {
		for _, kw := range concept.Keywords {
			if containsPhrase(text, kw) || containsPhrase(meaning, kw) {
				add(concept.Label)
				break
			}
		}
	}
	for _, hint := range in.TopicHints {
		add(strings.ToLower(strings.TrimSpace(hint)))
	}
	return out
}

// TermHits counts the distinct words of a normalized text that match a
// concept keyword, plus any multi-word keywords present. A word matching
// several keywords ("knowledge" matches both "know" and "knowledge")
// counts once.
func (c *Classifier) TermHits(normalizedText string) int {
	if normalizedText == "" {
		return 0
	}
	words := strings.Fields(normalizedText)
	seen := make(map[string]struct{})
	for _, concept := range c.concepts {
		for _, kw := range concept.Keywords {
			if strings.Contains(kw, " ") {
				if containsPhrase(normalizedText, kw) {
					seen[kw] = struct{}{}
				}
				continue
			}
			for _, w := range words {
				if wordMatches(w, kw) {
					seen[w] = struct{}{}
				}
			}
		}
	}
	return len(seen)
}

// MinStemLen is the shortest keyword that also matches longer words it
// starts ("learn" matches "learning"). Shorter keywords ("art", "die")
// match whole words only.
const MinStemLen = 4

func wordMatches(word, kw string) bool {
	if word == kw {
		return true
	}
	return utf8.RuneCountInString(kw) >= MinStemLen && strings.HasPrefix(word, kw)
}

// containsPhrase reports whether kw occurs in normalized text starting at
// a word boundary. Keywords shorter than MinStemLen must also end at one.
func containsPhrase(normalized, kw string) bool {
	if normalized == "" || kw == "" {
		return false
	}
	if utf8.RuneCountInString(kw) < MinStemLen {
		return strings.Contains(" "+normalized+" ", " "+kw+" ")
	}
	return strings.Contains(" "+normalized, " "+kw)
}
