// Package dedup detects exact and near duplicate quotes within one
// assembly run.
//
// A Context owns all duplicate-tracking state for a run: the set of text
// hashes, the set of author+text keys, and a bounded window of recently
// accepted normalized texts for fuzzy matching. It is created at run start
// and discarded at run end. A Context is not safe for concurrent use.
package dedup

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/cognicore/quotekit/pkg/quotekit/quote"
)

const (
	// DefaultThreshold is the similarity ratio at or above which two texts
	// are fuzzy duplicates.
	DefaultThreshold = 0.95
	// DefaultWindowSize is the number of recent texts compared for fuzzy
	// duplicates.
	DefaultWindowSize = 1000
)

// Options configure a Context.
type Options struct {
	Threshold  float64
	WindowSize int
}

// Context tracks what has been accepted so far in a run.
type Context struct {
	hashes    map[string]struct{}
	authorKey map[uint64]struct{}
	window    *Window
	threshold float64
}

// New creates an empty context. Zero or out-of-range options fall back to
// the defaults.
func New(opts Options) *Context {
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		opts.Threshold = DefaultThreshold
	}
	if opts.WindowSize < 1 {
		opts.WindowSize = DefaultWindowSize
	}
	return &Context{
		hashes:    make(map[string]struct{}),
		authorKey: make(map[uint64]struct{}),
		window:    NewWindow(opts.WindowSize),
		threshold: opts.Threshold,
	}
}

// Threshold returns the fuzzy similarity threshold.
func (d *Context) Threshold() float64 { return d.threshold }

// IsExactDuplicate reports whether c's text hash, or its author+text pair,
// was already registered.
func (d *Context) IsExactDuplicate(c quote.Candidate) bool {
	if _, ok := d.hashes[c.TextHash]; ok {
		return true
	}
	_, ok := d.authorKey[authorKey(c.Author, c.NormalizedText)]
	return ok
}

// IsFuzzyDuplicate compares c against every text in the window and
// returns the best ratio found. The candidate is a duplicate when that
// ratio is at or above the threshold. Ratios below the threshold may be
// reported as their upper bound.
func (d *Context) IsFuzzyDuplicate(c quote.Candidate) (bool, float64) {
	if d.window.Len() == 0 {
		return false, 0
	}
	m := newCandidateMatcher(c.NormalizedText)
	best := 0.0
	dup := false
	d.window.Each(func(text string) bool {
		r := m.ratio(text, d.threshold)
		if r > best {
			best = r
		}
		if r >= d.threshold {
			dup = true
			return false
		}
		return true
	})
	return dup, best
}

// Register records c as accepted: its exact keys go into the hash sets and
// its normalized text into the fuzzy window.
func (d *Context) Register(c quote.Candidate) {
	d.hashes[c.TextHash] = struct{}{}
	d.authorKey[authorKey(c.Author, c.NormalizedText)] = struct{}{}
	d.window.Push(c.NormalizedText)
}

// SeedFromPrior registers previously emitted records, oldest first, so the
// most recent prior records are the ones the window retains.
func (d *Context) SeedFromPrior(prior []quote.Record) {
	for _, r := range prior {
		d.Register(r.Candidate())
	}
}

// Len returns the number of distinct text hashes registered.
func (d *Context) Len() int { return len(d.hashes) }

// WindowLen returns the number of texts currently in the fuzzy window.
func (d *Context) WindowLen() int { return d.window.Len() }

func authorKey(author, normalized string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(strings.ToLower(strings.TrimSpace(author)))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(normalized)
	return h.Sum64()
}
