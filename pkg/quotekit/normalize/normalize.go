// Package normalize canonicalizes quote text for comparison and hashing.
//
// Normalized text is never displayed. It exists so that two quotes that
// differ only by quoting style, case, punctuation or whitespace compare
// equal and hash to the same value.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// QuoteChars are stripped from both ends of a quote before anything else.
const QuoteChars = "\"'`“”„‟‘’‚‛«»‹›"

// Text returns the comparison form of a quote: outer quotation marks
// removed, NFKC folded, lowercased, every rune that is not a letter, digit
// or space dropped, and whitespace runs collapsed to a single space.
//
// Text is pure and idempotent: Text(Text(s)) == Text(s).
func Text(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, QuoteChars)
	return fold(s, false)
}

// Words is like Text but treats punctuation as a word separator, so
// "hip-hop/rap" becomes "hip hop rap". Used for short metadata such as
// category fields and author names, never for quote hashing.
func Words(s string) string {
	return fold(s, true)
}

func fold(s string, punctIsSpace bool) string {
	out := foldOnce(s, punctIsSpace)
	// Dropping a separator can bring two runes together that NFKC composes
	// (Hangul jamo, for one). Refold until stable.
	for i := 0; i < 3 && !norm.NFKC.IsNormalString(out); i++ {
		out = foldOnce(out, punctIsSpace)
	}
	return out
}

func foldOnce(s string, punctIsSpace bool) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	s = norm.NFKC.String(s)
	s = cases.Lower(language.Und).String(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r), punctIsSpace:
			pendingSpace = true
		}
	}
	return b.String()
}

// Hash returns the hex SHA-256 of an already normalized text.
func Hash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Display trims surrounding whitespace and keeps everything else, casing
// and punctuation included.
func Display(s string) string {
	return strings.TrimSpace(s)
}

// WordCount counts whitespace-separated words in display text.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Contains reports whether phrase occurs in normalized text as a run of
// whole words. The phrase goes through Text first.
func Contains(normalized, phrase string) bool {
	p := Text(phrase)
	if p == "" || normalized == "" {
		return false
	}
	return strings.Contains(" "+normalized+" ", " "+p+" ")
}

// ContainsWords is Contains for text produced by Words.
func ContainsWords(words, phrase string) bool {
	p := Words(phrase)
	if p == "" || words == "" {
		return false
	}
	return strings.Contains(" "+words+" ", " "+p+" ")
}
