package taxonomy

import (
	"fmt"
	"strings"

	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
)

// Era is the historical period a quote is filed under.
type Era string

const (
	EraAncient      Era = "ancient"
	EraModern       Era = "modern"
	EraContemporary Era = "contemporary"
	EraUnknown      Era = "unknown"
)

// Eras lists every valid Era in report order.
var Eras = []Era{EraAncient, EraModern, EraContemporary, EraUnknown}

// ParseEra accepts only the four known eras, case-insensitively.
func ParseEra(s string) (Era, error) {
	e := Era(strings.ToLower(strings.TrimSpace(s)))
	if !e.Valid() {
		return "", fmt.Errorf("%w: unknown era %q", internalerr.ErrInvalidInput, s)
	}
	return e, nil
}

// Valid reports whether e is one of the known eras.
func (e Era) Valid() bool {
	switch e {
	case EraAncient, EraModern, EraContemporary, EraUnknown:
		return true
	}
	return false
}

func (e Era) String() string { return string(e) }

// MarshalText implements encoding.TextMarshaler.
func (e Era) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: unknown era %q", internalerr.ErrInvalidInput, string(e))
	}
	return []byte(e), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Era) UnmarshalText(b []byte) error {
	v, err := ParseEra(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// Tradition is the broad cultural tradition a quote is filed under.
type Tradition string

const (
	TraditionWestern Tradition = "western"
	TraditionEastern Tradition = "eastern"
	TraditionOther   Tradition = "other"
	TraditionUnknown Tradition = "unknown"
)

// Traditions lists every valid Tradition in report order.
var Traditions = []Tradition{TraditionWestern, TraditionEastern, TraditionOther, TraditionUnknown}

// ParseTradition accepts only the four known traditions, case-insensitively.
func ParseTradition(s string) (Tradition, error) {
	t := Tradition(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown tradition %q", internalerr.ErrInvalidInput, s)
	}
	return t, nil
}

// Valid reports whether t is one of the known traditions.
func (t Tradition) Valid() bool {
	switch t {
	case TraditionWestern, TraditionEastern, TraditionOther, TraditionUnknown:
		return true
	}
	return false
}

func (t Tradition) String() string { return string(t) }

// MarshalText implements encoding.TextMarshaler.
func (t Tradition) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown tradition %q", internalerr.ErrInvalidInput, string(t))
	}
	return []byte(t), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tradition) UnmarshalText(b []byte) error {
	v, err := ParseTradition(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
