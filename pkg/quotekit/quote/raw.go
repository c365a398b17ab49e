package quote

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
)

// Raw is one upstream quote record as delivered by scrapers, seed files or
// search extraction. Only Quote and Author are required; everything else is
// a hint.
type Raw struct {
	Quote     string     `json:"quote"`
	Author    string     `json:"author"`
	Field     string     `json:"field,omitempty"`
	Category  string     `json:"category,omitempty"`
	Source    string     `json:"source,omitempty"`
	Era       string     `json:"era,omitempty"`
	Tradition string     `json:"tradition,omitempty"`
	Topics    StringList `json:"topics,omitempty"`
	Meaning   string     `json:"meaning,omitempty"`

	// Set by the reader, not by producers.
	Origin string `json:"-"`
	Line   int    `json:"-"`
}

// Validate checks that the record carries a quote and an author.
func (r Raw) Validate() error {
	if strings.TrimSpace(r.Quote) == "" {
		return fmt.Errorf("%w: quote is required", internalerr.ErrMalformedRecord)
	}
	if strings.TrimSpace(r.Author) == "" {
		return fmt.Errorf("%w: author is required", internalerr.ErrMalformedRecord)
	}
	return nil
}

// CategoryField returns the free-text category, preferring "field" over the
// older "category" key.
func (r Raw) CategoryField() string {
	if f := strings.TrimSpace(r.Field); f != "" {
		return f
	}
	return strings.TrimSpace(r.Category)
}

// StringList decodes either a JSON array of strings or a single
// comma-separated string.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = cleanList(list)
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("topics must be a string or a list of strings: %w", err)
	}
	*l = cleanList(strings.Split(single, ","))
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
