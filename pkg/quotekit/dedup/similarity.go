package dedup

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Similarity returns the longest-matching-blocks ratio of a and b at the
// character level: 2*M/T where M is the number of matched runes and T the
// total rune count. Identical texts score 1, disjoint texts 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	m := newMatcher(b)
	m.SetSeq1(runes(a))
	return m.Ratio()
}

// matcher compares one candidate against many texts. The candidate is
// seq2, which SequenceMatcher indexes once; each window text is swapped in
// as seq1.
type matcher struct {
	sm        *difflib.SequenceMatcher
	candidate string
}

func newMatcher(candidate string) *difflib.SequenceMatcher {
	// Autojunk is off: on texts of 200+ runes it would junk spaces and
	// common letters and collapse the ratio.
	return difflib.NewMatcherWithJunk(nil, runes(candidate), false, nil)
}

func newCandidateMatcher(candidate string) *matcher {
	return &matcher{sm: newMatcher(candidate), candidate: candidate}
}

// ratio returns the similarity of text to the candidate. When a cheap
// upper bound already falls below threshold, that bound is returned
// instead of the exact ratio.
func (m *matcher) ratio(text string, threshold float64) float64 {
	if text == m.candidate {
		return 1
	}
	m.sm.SetSeq1(runes(text))
	if r := m.sm.RealQuickRatio(); r < threshold {
		return r
	}
	if r := m.sm.QuickRatio(); r < threshold {
		return r
	}
	return m.sm.Ratio()
}

func runes(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "")
}
