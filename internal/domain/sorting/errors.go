package sorting

import "errors"

// Sentinel kinds for sorting errors.
var (
	ErrUnknownAlgorithm = errors.New("unknown sort algorithm")
	ErrIncomparable     = errors.New("non-comparable key value")
	ErrUnknownTieBreak  = errors.New("unknown tie-break policy")
)
