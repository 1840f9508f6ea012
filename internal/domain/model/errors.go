package model

import "errors"

// Sentinel kinds for model parsing errors.
var (
	ErrUnknownKey       = errors.New("unknown sort key")
	ErrUnknownDirection = errors.New("unknown sort direction")
)
