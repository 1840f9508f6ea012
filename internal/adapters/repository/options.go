package repository

import "time"

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithMaxLimit caps how many rows TopN returns. Zero disables the cap.
func WithMaxLimit(limit int) Option {
	return func(s *SnapshotStore) {
		if limit >= 0 {
			s.maxLimit = limit
		}
	}
}

// WithCaseInsensitiveNames makes Rank lookups and unique listings ignore
// letter case.
func WithCaseInsensitiveNames() Option {
	return func(s *SnapshotStore) {
		s.foldCase = true
	}
}

// WithClock sets the time source used to stamp published rankings.
func WithClock(now func() time.Time) Option {
	return func(s *SnapshotStore) {
		if now != nil {
			s.now = now
		}
	}
}
