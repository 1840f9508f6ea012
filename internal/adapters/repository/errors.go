package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound     = errors.New("name not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrEmpty        = errors.New("no ranking published")
	ErrUnordered    = errors.New("records are not ordered by the ranking key")
)
