package service

import (
	"time"

	"github.com/okian/rankr/internal/adapters/repository"
	"github.com/okian/rankr/internal/domain/sorting"
	"github.com/okian/rankr/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithParallelism sets the default worker count of every sort pass.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithTieBreak sets which run wins equal keys when chunks are merged.
func WithTieBreak(tie sorting.TieBreak) Option {
	return func(s *Service) {
		s.tie = tie
	}
}

// WithPassTimeout bounds every sort pass. Zero disables the bound.
func WithPassTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.passTimeout = d
		}
	}
}

// WithStore sets the store runs are published to.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRunIDs replaces the run id generator.
func WithRunIDs(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newRunID = next
		}
	}
}
