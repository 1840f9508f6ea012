package engine

import (
	"time"

	"github.com/okian/rankr/internal/domain/sorting"
	"github.com/okian/rankr/pkg/logger"
)

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithTieBreak sets which run wins equal keys during the final merge.
func WithTieBreak(tie sorting.TieBreak) Option {
	return func(o *Orchestrator) {
		o.tie = tie
	}
}

// WithTimeout bounds the wait at the collection barrier. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// WithSorter replaces the algorithm's sorter, keeping its name for logs
// and metrics.
func WithSorter(s sorting.Sorter) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.sorter = s
		}
	}
}

// WithLogger sets a custom logger for the orchestrator.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStateHook registers fn to observe every state transition.
func WithStateHook(fn func(State)) Option {
	return func(o *Orchestrator) {
		o.hook = fn
	}
}
