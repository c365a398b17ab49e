package assemble

import (
	"fmt"

	"github.com/cognicore/quotekit/pkg/quotekit/internalerr"
)

// Reason names the stage that dropped a record.
type Reason string

const (
	ReasonMalformed      Reason = "malformed"
	ReasonFieldFiltered  Reason = "field_filtered"
	ReasonExactDuplicate Reason = "exact_duplicate"
	ReasonFuzzyDuplicate Reason = "fuzzy_duplicate"
	ReasonLowQuality     Reason = "low_quality"
)

// Reasons lists every rejection reason in pipeline order.
var Reasons = []Reason{
	ReasonMalformed,
	ReasonFieldFiltered,
	ReasonExactDuplicate,
	ReasonFuzzyDuplicate,
	ReasonLowQuality,
}

// Rejection is a per-record, recoverable failure. It never aborts a run.
type Rejection struct {
	Reason Reason
	State  State
	Author string
	Origin string
	Line   int
	Detail string
	Err    error
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return fmt.Sprintf("%s: %v", r.Reason, r.Err)
	}
	return fmt.Sprintf("%s: %v (%s)", r.Reason, r.Err, r.Detail)
}

func (r *Rejection) Unwrap() error { return r.Err }

func sentinel(reason Reason) error {
	switch reason {
	case ReasonMalformed:
		return internalerr.ErrMalformedRecord
	case ReasonFieldFiltered:
		return internalerr.ErrFieldRejected
	case ReasonExactDuplicate:
		return internalerr.ErrExactDuplicate
	case ReasonFuzzyDuplicate:
		return internalerr.ErrFuzzyDuplicate
	default:
		return internalerr.ErrLowQuality
	}
}

func reject(reason Reason, state State, s staged, detail string) *Rejection {
	return &Rejection{
		Reason: reason,
		State:  state,
		Author: s.raw.Author,
		Origin: s.raw.Origin,
		Line:   s.raw.Line,
		Detail: detail,
		Err:    sentinel(reason),
	}
}
