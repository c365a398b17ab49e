package retrieve

import (
	"strings"
	"unicode"

	"github.com/cognicore/quotekit/pkg/quotekit/normalize"
)

// DefaultStopwords are dropped from queries and quote text before overlap
// is computed.
var DefaultStopwords = []string{
	"a", "about", "all", "an", "and", "any", "are", "as", "at", "be", "been",
	"but", "by", "can", "do", "does", "for", "from", "had", "has", "have",
	"he", "her", "his", "how", "i", "if", "in", "into", "is", "it", "its",
	"me", "my", "no", "not", "of", "on", "one", "only", "or", "our", "so",
	"than", "that", "the", "their", "them", "then", "there", "they", "this",
	"to", "too", "us", "was", "we", "were", "what", "when", "which", "who",
	"will", "with", "would", "you", "your",
}

// Tokenizer splits text into normalized tokens and removes stopwords.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a tokenizer with the given stopword list
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[normalize.Words(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops}
}

// Tokenize folds text the same way quote metadata is folded and returns the
// surviving tokens in order. Duplicates are kept.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	for _, word := range strings.Fields(normalize.Words(text)) {
		if word = t.processToken(word); word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// Set returns the distinct tokens of text.
func (t *Tokenizer) Set(text string) map[string]struct{} {
	tokens := t.Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

func (t *Tokenizer) processToken(word string) string {
	if len([]rune(word)) <= 1 {
		return ""
	}
	// Pure numbers carry little meaning; "1984" alone is dropped, "b12" is kept.
	if isNumericOnly(word) {
		return ""
	}
	if t.isStopword(word) {
		return ""
	}
	return word
}

func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func (t *Tokenizer) isStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}

// AddStopword adds a word to the stopword list
func (t *Tokenizer) AddStopword(word string) {
	t.stopwords[normalize.Words(word)] = struct{}{}
}

// RemoveStopword removes a word from the stopword list
func (t *Tokenizer) RemoveStopword(word string) {
	delete(t.stopwords, normalize.Words(word))
}
