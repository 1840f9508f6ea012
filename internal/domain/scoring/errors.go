package scoring

import "errors"

// Sentinel kinds for scoring configuration errors.
var (
	ErrUnknownPolicy   = errors.New("unknown mean policy")
	ErrInvalidMinVotes = errors.New("min votes must not be negative")
)
