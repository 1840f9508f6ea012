package worker

import "errors"

// ErrPanicked marks a chunk whose sorter panicked.
var ErrPanicked = errors.New("sorter panicked")
