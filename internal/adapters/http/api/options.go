package api

import (
	"time"

	service "github.com/okian/rankr/internal/app"
	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/internal/domain/sorting"
	"github.com/okian/rankr/pkg/logger"
	"golang.org/x/time/rate"
)

const (
	defaultMaxLimit       = 100
	defaultMaxRecords     = 1_000_000
	defaultMaxBody        = 256 << 20
	defaultRequestTimeout = 60 * time.Second
	defaultTop            = 10
)

// Defaults fill the fields a POST /rankings request leaves out.
type Defaults struct {
	TwoPhase        bool
	Algorithm       sorting.Algorithm
	SecondAlgorithm sorting.Algorithm
	Key             model.SortKey
	Score           service.ScoreParams
	Parallelism     int
}

// DefaultDefaults returns the two-phase quicksort then heapsort plan.
func DefaultDefaults() Defaults {
	return Defaults{
		TwoPhase:        true,
		Algorithm:       sorting.AlgorithmQuick,
		SecondAlgorithm: sorting.AlgorithmHeap,
		Key:             model.SortKey{Key: model.KeyScore},
		Score:           service.DefaultScoreParams(),
		Parallelism:     service.ParallelismDefault,
	}
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithDefaults sets the plan used for fields a request omits.
func WithDefaults(d Defaults) Option { //nolint:gocritic // hugeParam: applied once at startup
	return func(s *Server) {
		s.defaults = d
	}
}

// WithMaxLimit caps GET /leaderboard?limit.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithMaxRecords caps the records accepted by POST /rankings.
func WithMaxRecords(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxRecords = n
		}
	}
}

// WithMaxBodyBytes caps the POST /rankings body size.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithRequestTimeout bounds POST /rankings.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRankingRate limits POST /rankings to perSecond requests with the
// given burst. A non-positive rate leaves the endpoint unlimited.
func WithRankingRate(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// DefaultsFrom parses plan settings into request defaults.
func DefaultsFrom(c service.PlanConfig) (Defaults, error) { //nolint:gocritic // hugeParam: parsed once at startup
	plan, err := service.ParsePlan(c)
	if err != nil {
		return Defaults{}, err
	}
	second, err := sorting.ParseAlgorithm(c.SecondAlgorithm)
	if err != nil {
		return Defaults{}, err
	}
	key, err := model.ParseKey(c.Key)
	if err != nil {
		return Defaults{}, err
	}
	dir, err := model.ParseDirection(c.Direction)
	if err != nil {
		return Defaults{}, err
	}
	return Defaults{
		TwoPhase:        c.TwoPhase,
		Algorithm:       plan.Passes[0].Sort.Algorithm,
		SecondAlgorithm: second,
		Key:             model.SortKey{Key: key, Direction: dir},
		Score:           plan.Score,
		Parallelism:     c.Parallelism,
	}, nil
}
