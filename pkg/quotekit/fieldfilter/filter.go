// Package fieldfilter decides whether a record's free-text category field
// puts it inside the corpus domain.
//
// The filter is precision-biased: a field is admitted only on a positive
// signal. Exclusions are checked first, but an exclusion is waived when
// the same field also carries an academic qualifier ("art" next to
// "philosophy", "art criticism"). The qualifier then counts as the
// positive signal.
package fieldfilter

import (
	"strings"

	"github.com/cognicore/quotekit/pkg/quotekit/normalize"
)

// Reason explains a filter decision.
type Reason string

const (
	ReasonIncluded        Reason = "included"
	ReasonExclusionWaived Reason = "exclusion_waived"
	ReasonIndicator       Reason = "academic_indicator"
	ReasonExcluded        Reason = "excluded"
	ReasonNoSignal        Reason = "no_signal"
	ReasonEmpty           Reason = "empty_field"
)

// Decision is the outcome of checking one field.
type Decision struct {
	Admit   bool
	Reason  Reason
	Keyword string // the keyword that decided, if any
}

// Keywords are the four keyword sets the filter works with.
type Keywords struct {
	Exclude    []string // entertainment, activism, music-only categories
	Include    []string // academic, philosophical, scientific categories
	Qualifiers []string // academic co-occurrence terms that waive an exclusion
	Indicators []string // weak fallback substrings
}

// Filter applies Keywords to category fields.
type Filter struct {
	exclude    []string
	include    []string
	qualifiers []string
	indicators []string
}

// New creates a filter. Exclude matches whole words of the folded field,
// so "art" never fires inside "artificial". Include and Qualifiers match
// at the start of a word, so the stem "philosoph" admits "philosophers"
// and "philosophical". Indicators match as plain substrings.
func New(kw Keywords) *Filter {
	return &Filter{
		exclude:    fold(kw.Exclude, normalize.Words),
		include:    fold(kw.Include, normalize.Words),
		qualifiers: fold(kw.Qualifiers, normalize.Words),
		indicators: fold(kw.Indicators, func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }),
	}
}

// IsIncluded reports whether field is in scope.
func (f *Filter) IsIncluded(field string) bool {
	return f.Decide(field).Admit
}

// Decide runs the exclusion, inclusion and indicator checks in order and
// reports which one decided.
func (f *Filter) Decide(field string) Decision {
	words := normalize.Words(field)
	if words == "" {
		return Decision{Reason: ReasonEmpty}
	}

	if kw, ok := firstWord(words, f.exclude); ok {
		q, qualified := firstPrefix(words, f.qualifiers)
		if !qualified {
			return Decision{Reason: ReasonExcluded, Keyword: kw}
		}
		if inc, ok := firstPrefix(words, f.include); ok {
			q = inc
		}
		return Decision{Admit: true, Reason: ReasonExclusionWaived, Keyword: q}
	}

	if kw, ok := firstPrefix(words, f.include); ok {
		return Decision{Admit: true, Reason: ReasonIncluded, Keyword: kw}
	}

	lower := strings.ToLower(field)
	for _, ind := range f.indicators {
		if strings.Contains(lower, ind) {
			return Decision{Admit: true, Reason: ReasonIndicator, Keyword: ind}
		}
	}
	return Decision{Reason: ReasonNoSignal}
}

func firstWord(words string, keywords []string) (string, bool) {
	padded := " " + words + " "
	for _, kw := range keywords {
		if strings.Contains(padded, " "+kw+" ") {
			return kw, true
		}
	}
	return "", false
}

// firstPrefix is firstWord matching keywords at the start of any word.
func firstPrefix(words string, keywords []string) (string, bool) {
	padded := " " + words
	for _, kw := range keywords {
		if strings.Contains(padded, " "+kw) {
			return kw, true
		}
	}
	return "", false
}

func fold(in []string, fn func(string) string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := fn(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}
