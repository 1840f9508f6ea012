package csvio

import "github.com/okian/rankr/pkg/logger"

// Option applies a configuration option to a read.
type Option func(*reader)

// WithMaxRecords fails the read once more than n records are accepted.
// Zero disables the limit.
func WithMaxRecords(n int) Option {
	return func(r *reader) {
		if n >= 0 {
			r.maxRecords = n
		}
	}
}

// WithLogger sets the logger that receives skipped-row warnings.
func WithLogger(l logger.Logger) Option {
	return func(r *reader) {
		if l != nil {
			r.logger = l
		}
	}
}

type writer struct {
	scorePrecision int
}

// WriteOption applies a configuration option to a write.
type WriteOption func(*writer)

// WithScorePrecision rounds the score column to digits decimals. A
// negative value writes the shortest exact representation.
func WithScorePrecision(digits int) WriteOption {
	return func(w *writer) {
		w.scorePrecision = digits
	}
}
