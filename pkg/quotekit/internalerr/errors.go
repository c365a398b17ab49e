package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// Per-record rejections. None of these abort a run.
var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrFieldRejected   = errors.New("field rejected")
	ErrExactDuplicate  = errors.New("exact duplicate")
	ErrFuzzyDuplicate  = errors.New("fuzzy duplicate")
	ErrLowQuality      = errors.New("low quality")
)
