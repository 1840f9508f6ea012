// Package engine runs one parallel sort pass: partition the input into
// owned chunks, sort them on a worker pool, wait at a single barrier and
// merge the runs in submission order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/rankr/internal/adapters/mq/queue"
	"github.com/okian/rankr/internal/adapters/mq/worker"
	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/internal/domain/sorting"
	"github.com/okian/rankr/pkg/logger"
	"github.com/okian/rankr/pkg/metrics"
	"github.com/okian/rankr/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// State is the lifecycle position of an Orchestrator.
type State int

// Orchestrator states, in the order a successful pass visits them.
const (
	StateIdle State = iota
	StatePartitioned
	StateDispatched
	StateCollected
	StateMerged
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePartitioned:
		return "partitioned"
	case StateDispatched:
		return "dispatched"
	case StateCollected:
		return "collected"
	case StateMerged:
		return "merged"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultParallelism is the worker count used when none is configured.
func DefaultParallelism() int { return runtime.NumCPU() }

// Orchestrator drives a single parallel sort pass. It is single-use.
type Orchestrator struct {
	algorithm   sorting.Algorithm
	sorter      sorting.Sorter
	key         model.SortKey
	parallelism int
	tie         sorting.TieBreak
	timeout     time.Duration
	logger      logger.Logger
	hook        func(State)

	mu    sync.Mutex
	used  bool
	state State
}

// New validates the configuration and returns an idle orchestrator.
func New(alg sorting.Algorithm, key model.SortKey, parallelism int, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		algorithm:   alg,
		key:         key,
		parallelism: parallelism,
		tie:         sorting.TieLeft,
	}
	for _, opt := range opts {
		opt(o)
	}

	if parallelism < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidParallelism, parallelism)
	}
	if o.timeout < 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidTimeout, o.timeout)
	}
	s, err := sorting.For(alg)
	if err != nil {
		return nil, err
	}
	if o.sorter == nil {
		o.sorter = s
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("engine")
	}
	return o, nil
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) transition(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	if o.hook != nil {
		o.hook(s)
	}
}

// Run sorts records and returns a new ordered slice. The input is not
// modified. Any chunk failure, cancellation or barrier timeout fails the
// whole pass with no partial result.
func (o *Orchestrator) Run(ctx context.Context, records []model.Record) ([]model.Record, error) {
	o.mu.Lock()
	if o.used {
		o.mu.Unlock()
		return nil, ErrOrchestratorUsed
	}
	o.used = true
	o.mu.Unlock()

	ctx, end := tracing.StartSpan(ctx, "engine.pass",
		attribute.String("algorithm", string(o.algorithm)),
		attribute.String("key", o.key.String()),
		attribute.Int("records", len(records)),
		attribute.Int("parallelism", o.parallelism),
	)
	start := time.Now()
	out, err := o.run(ctx, records)
	elapsed := time.Since(start)
	end(err)

	if err != nil {
		o.transition(StateFailed)
		metrics.RecordPass(string(o.algorithm), "failed", metrics.Milliseconds(elapsed))
		o.logger.Error(ctx, "sort pass failed",
			logger.String("algorithm", string(o.algorithm)),
			logger.String("key", o.key.String()),
			logger.Int("records", len(records)),
			logger.Duration("elapsed", elapsed),
			logger.Error(err),
		)
		return nil, err
	}

	o.transition(StateDone)
	metrics.RecordPass(string(o.algorithm), "ok", metrics.Milliseconds(elapsed))
	metrics.RecordRecordsSorted(len(out))
	o.logger.Debug(ctx, "sort pass done",
		logger.String("algorithm", string(o.algorithm)),
		logger.String("key", o.key.String()),
		logger.Int("records", len(out)),
		logger.Duration("elapsed", elapsed),
	)
	return out, nil
}

func (o *Orchestrator) run(ctx context.Context, records []model.Record) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sort pass cancelled: %w", err)
	}
	if len(records) == 0 {
		return []model.Record{}, nil
	}

	chunks := Partition(records, o.parallelism)
	o.transition(StatePartitioned)

	q := queue.NewInMemoryQueue(queue.WithCapacity(len(chunks)))
	for i, chunk := range chunks {
		if err := q.Enqueue(ctx, queue.Task{Index: i, Records: chunk}); err != nil {
			_ = q.Close()
			return nil, fmt.Errorf("dispatch chunk %d: %w", i, err)
		}
	}
	_ = q.Close()
	metrics.RecordChunksDispatched(len(chunks))
	o.transition(StateDispatched)

	runs, err := o.collect(ctx, q, len(chunks))
	if err != nil {
		return nil, err
	}
	o.transition(StateCollected)

	mergeStart := time.Now()
	out := sorting.NWayReduce(runs, o.key, o.tie)
	metrics.RecordMergeLatency(metrics.Milliseconds(time.Since(mergeStart)))
	o.transition(StateMerged)
	return out, nil
}

// collect runs the pool and blocks at the barrier until every chunk is
// sorted, one fails, ctx ends or the pass timeout fires.
func (o *Orchestrator) collect(ctx context.Context, q *queue.InMemoryQueue, n int) ([][]model.Record, error) {
	passCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var deadline <-chan time.Time
	if o.timeout > 0 {
		timer := time.NewTimer(o.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	runs := make([][]model.Record, n)
	pool := worker.NewPool(n, o.sorter, o.key,
		worker.WithAlgorithm(string(o.algorithm)),
		worker.WithLogger(o.logger),
	)

	done := make(chan error, 1)
	go func() {
		done <- pool.Run(passCtx, q, func(r worker.Result) {
			runs[r.Index] = r.Records
		})
	}()

	select {
	case err := <-done:
		if err == nil {
			return runs, nil
		}
		var ce *worker.ChunkError
		if errors.As(err, &ce) {
			return nil, fmt.Errorf("%w: %w", ErrWorkerFailed, err)
		}
		return nil, fmt.Errorf("sort pass cancelled: %w", err)
	case <-deadline:
		metrics.RecordErrorByComponent("engine", "timeout")
		return nil, fmt.Errorf("%w after %s", ErrPassTimeout, o.timeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("sort pass cancelled: %w", ctx.Err())
	}
}

// Partition splits records into at most parallelism owned chunks of
// ceil(n/workers) records, where workers = min(parallelism, n).
func Partition(records []model.Record, parallelism int) [][]model.Record {
	n := len(records)
	if n == 0 {
		return nil
	}
	workers := min(max(parallelism, 1), n)
	size := (n + workers - 1) / workers

	chunks := make([][]model.Record, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		chunks = append(chunks, model.Clone(records[lo:hi]))
	}
	return chunks
}

// Sort runs a fresh orchestrator once.
func Sort(ctx context.Context, records []model.Record, alg sorting.Algorithm, key model.SortKey, parallelism int, opts ...Option) ([]model.Record, error) {
	o, err := New(alg, key, parallelism, opts...)
	if err != nil {
		return nil, err
	}
	return o.Run(ctx, records)
}
