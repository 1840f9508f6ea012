package worker

import (
	"github.com/okian/rankr/pkg/logger"
)

// Option applies a configuration option to a Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithAlgorithm sets the algorithm label used in metrics.
func WithAlgorithm(algorithm string) Option {
	return func(w *Worker) {
		if algorithm != "" {
			w.algorithm = algorithm
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}
