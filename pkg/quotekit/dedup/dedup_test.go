package dedup

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/quotekit/pkg/quotekit/quote"
	"github.com/cognicore/quotekit/pkg/quotekit/taxonomy"
)

func candidate(t *testing.T, text, author string) quote.Candidate {
	t.Helper()
	c, err := quote.NewCandidate(quote.Raw{Quote: text, Author: author})
	require.NoError(t, err)
	return c
}

func classification() taxonomy.Classification {
	return taxonomy.Classification{Era: taxonomy.EraAncient, Tradition: taxonomy.TraditionWestern}
}

func TestExactDuplicateIgnoresQuotingAndWhitespace(t *testing.T) {
	d := New(Options{})

	first := candidate(t, "The unexamined life is not worth living.", "Socrates")
	require.False(t, d.IsExactDuplicate(first))
	d.Register(first)

	variants := []string{
		`"The unexamined life is not worth living."`,
		"“The unexamined   life is not\tworth living”",
		"The UNEXAMINED life is not worth living!!",
		"  'The unexamined life, is not worth living'  ",
	}
	for _, v := range variants {
		assert.True(t, d.IsExactDuplicate(candidate(t, v, "Plato")), v)
	}
	assert.Equal(t, 1, d.Len())
}

func TestExactDuplicateFirstOccurrenceWins(t *testing.T) {
	d := New(Options{})

	a := candidate(t, "Know thyself.", "Socrates")
	b := candidate(t, "Know thyself!", "Thales")

	assert.False(t, d.IsExactDuplicate(a))
	d.Register(a)
	assert.True(t, d.IsExactDuplicate(b))
}

func TestExactCheckDoesNotRegister(t *testing.T) {
	d := New(Options{})

	c := candidate(t, "Cogito, ergo sum.", "Descartes")
	assert.False(t, d.IsExactDuplicate(c))
	assert.False(t, d.IsExactDuplicate(c))
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 0, d.WindowLen())
}

func TestAuthorKeyMatchesCaseInsensitively(t *testing.T) {
	d := New(Options{})

	c := candidate(t, "Man is the measure of all things.", "Protagoras")
	d.Register(c)

	// Same author key even if the hash set were missing the text.
	delete(d.hashes, c.TextHash)
	assert.True(t, d.IsExactDuplicate(candidate(t, "Man is the measure of all things", "  PROTAGORAS ")))
	assert.False(t, d.IsExactDuplicate(candidate(t, "Man is the measure of all things", "Plato")))
}

func TestFuzzyThresholdBoundary(t *testing.T) {
	base := "abcdefghijklmnopqrst"
	oneOff := "abcdefghijklmnopqrs1" // 19 of 20 runes match: 38/40 = 0.95
	twoOff := "abcdefghijklmnopqr12" // 18 of 20: 0.90

	assert.InDelta(t, 0.95, Similarity(base, oneOff), 1e-9)
	assert.InDelta(t, 0.90, Similarity(base, twoOff), 1e-9)

	d := New(Options{Threshold: 0.95})
	d.Register(candidate(t, base, "A"))

	dup, ratio := d.IsFuzzyDuplicate(candidate(t, oneOff, "B"))
	assert.True(t, dup, "ratio at threshold is a duplicate")
	assert.InDelta(t, 0.95, ratio, 1e-9)

	dup, _ = d.IsFuzzyDuplicate(candidate(t, twoOff, "B"))
	assert.False(t, dup, "ratio below threshold is not a duplicate")
}

func TestFuzzyCatchesNearDuplicates(t *testing.T) {
	d := New(Options{})
	d.Register(candidate(t, "We are what we repeatedly do. Excellence, then, is not an act, but a habit.", "Aristotle"))

	dup, ratio := d.IsFuzzyDuplicate(candidate(t, "We are what we repeatedly do. Excellence then is not an act but a habits", "Will Durant"))
	assert.True(t, dup)
	assert.GreaterOrEqual(t, ratio, DefaultThreshold)
}

func TestFuzzyKeepsDistinctQuotes(t *testing.T) {
	d := New(Options{})
	d.Register(candidate(t, "Happiness depends upon ourselves alone.", "Aristotle"))

	dup, _ := d.IsFuzzyDuplicate(candidate(t, "The only constant in life is change!", "Heraclitus"))
	assert.False(t, dup)
	assert.Less(t, Similarity("happiness depends upon ourselves alone", "the only constant in life is change"), DefaultThreshold)
}

func TestFuzzyLongTextsAreCompared(t *testing.T) {
	long := ""
	for i := 0; i < 12; i++ {
		long += fmt.Sprintf("sentence number %d about the nature of things ", i)
	}
	d := New(Options{})
	d.Register(candidate(t, long, "Lucretius"))

	dup, _ := d.IsFuzzyDuplicate(candidate(t, long+"x", "Lucretius"))
	assert.True(t, dup, "texts over 200 runes must not lose matches to autojunk")
}

func TestWindowEvictsOldest(t *testing.T) {
	d := New(Options{WindowSize: 2})

	first := candidate(t, "abcdefghijklmnopqrst", "A")
	d.Register(first)
	d.Register(candidate(t, "zzzzzzzzzzzzzzzzzzzz", "B"))
	d.Register(candidate(t, "yyyyyyyyyyyyyyyyyyyy", "C"))

	assert.Equal(t, 2, d.WindowLen())
	dup, _ := d.IsFuzzyDuplicate(candidate(t, "abcdefghijklmnopqrs1", "D"))
	assert.False(t, dup, "evicted text is no longer compared")

	// Exact keys are not windowed.
	assert.True(t, d.IsExactDuplicate(first))
}

func TestSeedFromPrior(t *testing.T) {
	prior := []quote.Record{
		candidate(t, "abcdefghijklmnopqrst", "A").Build("a_001", classification(), 0.5),
	}

	d := New(Options{})
	d.SeedFromPrior(prior)
	assert.True(t, d.IsExactDuplicate(candidate(t, "ABCDEFGHIJKLMNOPQRST!", "Z")))
	dup, _ := d.IsFuzzyDuplicate(candidate(t, "abcdefghijklmnopqrs1", "Z"))
	assert.True(t, dup, "near copies of prior records stay out")
}

func TestSeedFromPriorKeepsNewestInWindow(t *testing.T) {
	prior := []quote.Record{
		candidate(t, "abcdefghijklmnopqrst", "A").Build("a_001", classification(), 0.5),
		candidate(t, "zzzzzzzzzzzzzzzzzzzz", "B").Build("b_001", classification(), 0.5),
		candidate(t, "yyyyyyyyyyyyyyyyyyyy", "C").Build("c_001", classification(), 0.5),
	}

	d := New(Options{WindowSize: 2})
	d.SeedFromPrior(prior)

	assert.Equal(t, 3, d.Len())
	assert.Equal(t, 2, d.WindowLen())
	dup, _ := d.IsFuzzyDuplicate(candidate(t, "yyyyyyyyyyyyyyyyyyy1", "D"))
	assert.True(t, dup)
	dup, _ = d.IsFuzzyDuplicate(candidate(t, "abcdefghijklmnopqrs1", "D"))
	assert.False(t, dup, "oldest prior record left the window")
	assert.True(t, d.IsExactDuplicate(candidate(t, "abcdefghijklmnopqrst", "D")))
}

func TestNewFallsBackToDefaults(t *testing.T) {
	d := New(Options{Threshold: 1.5, WindowSize: -3})
	assert.Equal(t, DefaultThreshold, d.Threshold())
	assert.Equal(t, DefaultWindowSize, d.window.Cap())
}

func TestWindowOrder(t *testing.T) {
	w := NewWindow(3)
	for _, s := range []string{"a", "b", "c", "d"} {
		w.Push(s)
	}

	var got []string
	w.Each(func(s string) bool {
		got = append(got, s)
		return true
	})
	assert.Equal(t, []string{"d", "c", "b"}, got)

	got = got[:0]
	w.Each(func(s string) bool {
		got = append(got, s)
		return false
	})
	assert.Equal(t, []string{"d"}, got)
}
