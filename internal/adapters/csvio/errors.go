package csvio

import "errors"

// Sentinel kinds for CSV errors.
var (
	ErrMissingColumn  = errors.New("required column missing")
	ErrTooManyRecords = errors.New("too many records")
	ErrEmptyInput     = errors.New("input has no header")
)
