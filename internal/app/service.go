// Package service wires scoring, parallel sorting and the ranking store
// into the operations used by the HTTP API and the batch runner.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rankr/internal/adapters/repository"
	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/internal/domain/scoring"
	"github.com/okian/rankr/internal/domain/sorting"
	"github.com/okian/rankr/internal/domain/types"
	"github.com/okian/rankr/internal/engine"
	"github.com/okian/rankr/pkg/logger"
	"github.com/okian/rankr/pkg/metrics"
	"github.com/okian/rankr/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// ScoreParams configures one scoring step. GlobalMean is only read when
// Policy is scoring.MeanFixed.
type ScoreParams struct {
	GlobalMean float64
	MinVotes   float64
	Policy     scoring.MeanPolicy
}

// DefaultScoreParams returns m=100 with the simple mean policy.
func DefaultScoreParams() ScoreParams {
	return ScoreParams{
		GlobalMean: scoring.DefaultFixedMean,
		MinVotes:   scoring.DefaultMinVotes,
		Policy:     scoring.MeanSimple,
	}
}

// ParallelismDefault asks for the service's worker count. Any other value
// below one is rejected.
const ParallelismDefault = -1

// SortParams configures one parallel sort pass. Parallelism must be at
// least one or ParallelismDefault.
type SortParams struct {
	Key         model.Key
	Direction   model.Direction
	Algorithm   sorting.Algorithm
	Parallelism int
}

// SortKey returns the key and direction as one value.
func (p SortParams) SortKey() model.SortKey {
	return model.SortKey{Key: p.Key, Direction: p.Direction}
}

// Pass is one step of a Plan. Rescore recomputes scores over the current
// sequence before sorting.
type Pass struct {
	Sort    SortParams
	Rescore bool
}

// Plan is an ordered list of passes run against the same records.
type Plan struct {
	Score  ScoreParams
	Passes []Pass
}

// SinglePass scores unscored input once and sorts it once.
func SinglePass(alg sorting.Algorithm, key model.SortKey, score ScoreParams) Plan {
	return Plan{
		Score: score,
		Passes: []Pass{{Sort: SortParams{
			Key:         key.Key,
			Direction:   key.Direction,
			Algorithm:   alg,
			Parallelism: ParallelismDefault,
		}}},
	}
}

// TwoPhase orders by review count with first, recomputes scores with the
// mean of that output, then orders by score with second.
func TwoPhase(first, second sorting.Algorithm, score ScoreParams) Plan {
	return Plan{
		Score: score,
		Passes: []Pass{
			{Sort: SortParams{Key: model.KeyVotes, Algorithm: first, Parallelism: ParallelismDefault}},
			{Sort: SortParams{Key: model.KeyScore, Algorithm: second, Parallelism: ParallelismDefault}, Rescore: true},
		},
	}
}

// Result is the output of Run.
type Result struct {
	Records []model.Record
	Summary types.RunSummary

	ranking *repository.Snapshot
}

// Top returns the first n rows of the ranking this run published, even if
// another run has been published since. A run that published nothing has
// no rows.
func (r *Result) Top(ctx context.Context, n int, unique bool) ([]types.Entry, error) {
	if r.ranking == nil {
		return []types.Entry{}, nil
	}
	entries, err := r.ranking.TopN(ctx, n, unique)
	if err != nil {
		return nil, err
	}
	return toEntries(entries), nil
}

// Service runs ranking plans and serves the published ranking.
type Service struct {
	store       repository.Store
	parallelism int
	tie         sorting.TieBreak
	passTimeout time.Duration
	logger      logger.Logger
	newRunID    func() string

	runs    atomic.Int64
	mu      sync.RWMutex
	lastRun *types.RunSummary
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		parallelism: engine.DefaultParallelism(),
		tie:         sorting.TieLeft,
		newRunID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewSnapshotStore()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Parallelism returns the default worker count.
func (s *Service) Parallelism() int { return s.parallelism }

// Score returns a scored copy of records and the global mean used.
func (s *Service) Score(ctx context.Context, records []model.Record, p ScoreParams) ([]model.Record, float64, error) {
	start := time.Now()
	calc := scoring.NewCalculator(
		scoring.WithMinVotes(p.MinVotes),
		scoring.WithPolicy(p.Policy),
		scoring.WithFixedMean(p.GlobalMean),
	)
	out, mean, err := calc.Apply(ctx, records)
	if err != nil {
		metrics.RecordErrorByComponent("scoring", errorType(err))
		return nil, 0, err
	}
	metrics.RecordScoring(len(out), mean, metrics.Milliseconds(time.Since(start)))
	return out, mean, nil
}

// workers resolves ParallelismDefault to the service's worker count.
func (s *Service) workers(p SortParams) int {
	if p.Parallelism == ParallelismDefault {
		return s.parallelism
	}
	return p.Parallelism
}

// Sort runs one parallel sort pass and returns a new ordered slice. Zero or
// negative parallelism other than ParallelismDefault fails with
// engine.ErrInvalidParallelism.
func (s *Service) Sort(ctx context.Context, records []model.Record, p SortParams) ([]model.Record, error) {
	return engine.Sort(ctx, records, p.Algorithm, p.SortKey(), s.workers(p),
		engine.WithTieBreak(s.tie),
		engine.WithTimeout(s.passTimeout),
		engine.WithLogger(s.logger.Named("engine")),
	)
}

// Run executes plan against records and publishes the final order. Empty
// input returns an empty result and leaves the published ranking alone.
func (s *Service) Run(ctx context.Context, records []model.Record, plan Plan) (Result, error) {
	start := time.Now()
	if len(plan.Passes) == 0 {
		return Result{}, ErrEmptyPlan
	}

	summary := types.RunSummary{
		RunID:    s.newRunID(),
		Records:  len(records),
		MinVotes: plan.Score.MinVotes,
		Policy:   plan.Score.Policy.String(),
		Passes:   make([]types.PassSummary, 0, len(plan.Passes)),
	}
	log := s.logger

	if len(records) == 0 {
		summary.Elapsed = time.Since(start)
		return Result{Records: []model.Record{}, Summary: summary}, nil
	}

	ctx, end := tracing.StartSpan(ctx, "ranking.run",
		attribute.String("run_id", summary.RunID),
		attribute.Int("records", len(records)),
		attribute.Int("passes", len(plan.Passes)),
	)
	var ranking *repository.Snapshot
	out, err := s.run(ctx, records, plan, &summary)
	if err == nil {
		ranking, err = s.store.Publish(ctx, summary.RunID, plan.FinalKey(), out)
		if err != nil {
			err = fmt.Errorf("publish run %s: %w", summary.RunID, err)
		}
	}
	end(err)
	summary.Elapsed = time.Since(start)
	if err != nil {
		metrics.RecordRun("error", metrics.Milliseconds(summary.Elapsed))
		metrics.RecordErrorByComponent("pipeline", errorType(err))
		log.Error(ctx, "ranking run failed",
			logger.String("run_id", summary.RunID),
			logger.Int("records", len(records)),
			logger.Error(err),
		)
		return Result{}, err
	}

	s.runs.Add(1)
	s.mu.Lock()
	s.lastRun = &summary
	s.mu.Unlock()

	metrics.RecordRun("success", metrics.Milliseconds(summary.Elapsed))
	log.Info(ctx, "ranking run completed",
		logger.String("run_id", summary.RunID),
		logger.Int("records", len(out)),
		logger.Int("passes", len(summary.Passes)),
		logger.Float64("global_mean", summary.GlobalMean),
		logger.Duration("elapsed", summary.Elapsed),
	)
	return Result{Records: out, Summary: summary, ranking: ranking}, nil
}

func (s *Service) run(ctx context.Context, records []model.Record, plan Plan, summary *types.RunSummary) ([]model.Record, error) {
	current := records
	scored := allScored(records)
	for i, pass := range plan.Passes {
		if pass.Rescore || (!scored && needsScore(plan.Passes[i:])) {
			out, mean, err := s.Score(ctx, current, plan.Score)
			if err != nil {
				return nil, fmt.Errorf("pass %d: %w", i+1, err)
			}
			current, scored = out, true
			summary.GlobalMean = mean
		}

		passStart := time.Now()
		out, err := s.Sort(ctx, current, pass.Sort)
		if err != nil {
			return nil, fmt.Errorf("pass %d: %w", i+1, err)
		}
		current = out

		summary.Passes = append(summary.Passes, types.PassSummary{
			Algorithm:   string(pass.Sort.Algorithm),
			Key:         pass.Sort.SortKey().String(),
			Parallelism: s.workers(pass.Sort),
			Elapsed:     time.Since(passStart),
		})
	}
	if !scored {
		out, mean, err := s.Score(ctx, current, plan.Score)
		if err != nil {
			return nil, err
		}
		current = out
		summary.GlobalMean = mean
	}
	return current, nil
}

// needsScore reports whether scores must exist before the first of passes.
// A leading pass ordered by another key can run on raw records as long as
// a later pass rescores.
func needsScore(passes []Pass) bool {
	for _, p := range passes {
		if p.Sort.Key == model.KeyScore {
			return true
		}
		if p.Rescore {
			return false
		}
	}
	return false
}

func allScored(records []model.Record) bool {
	for i := range records {
		if !records[i].Scored {
			return false
		}
	}
	return true
}

// TopN returns the first n rows of the published ranking.
func (s *Service) TopN(ctx context.Context, n int, unique bool) ([]types.Entry, error) {
	entries, err := s.store.TopN(ctx, n, unique)
	if err != nil {
		return nil, err
	}
	return toEntries(entries), nil
}

// Rank returns the best published row for name.
func (s *Service) Rank(ctx context.Context, name string) (types.Entry, error) {
	entry, err := s.store.Rank(ctx, name)
	if err != nil {
		return types.Entry{}, err
	}
	return toEntry(entry), nil
}

// Stats describes the published ranking and the last successful run.
func (s *Service) Stats(ctx context.Context) types.Stats {
	stats := types.Stats{
		Records:     s.store.Count(ctx),
		Parallelism: s.parallelism,
		Runs:        s.runs.Load(),
	}
	if info, err := s.store.Latest(ctx); err == nil {
		published := info.PublishedAt
		stats.RunID = info.RunID
		stats.Key = info.Key
		stats.PublishedAt = &published
	}
	s.mu.RLock()
	if s.lastRun != nil {
		last := *s.lastRun
		stats.LastRun = &last
	}
	s.mu.RUnlock()
	return stats
}

func toEntries(entries []repository.Entry) []types.Entry {
	out := make([]types.Entry, len(entries))
	for i := range entries {
		out[i] = toEntry(entries[i])
	}
	return out
}

func toEntry(e repository.Entry) types.Entry { //nolint:gocritic // hugeParam: mirrors the store's value API
	return types.Entry{
		Rank:     e.Rank,
		Position: e.Position,
		Name:     e.Name,
		Rating:   e.Rating,
		Votes:    e.Votes,
		Score:    e.Score,
	}
}

// errorType buckets err for the error-by-component metric.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, engine.ErrPassTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, engine.ErrWorkerFailed):
		return "worker_failure"
	case errors.Is(err, repository.ErrUnordered):
		return "publish"
	default:
		return "config"
	}
}
