// Package worker runs sequential sorters over chunks pulled from a task queue.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/rankr/internal/adapters/mq/queue"
	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/pkg/logger"
	"github.com/okian/rankr/pkg/metrics"
)

// Sorter orders one chunk. It matches sorting.Sorter.
type Sorter interface {
	Sort(ctx context.Context, records []model.Record, key model.SortKey) ([]model.Record, error)
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue() <-chan queue.Task
}

// Result is a sorted chunk tagged with its submission index.
type Result struct {
	Index   int
	Records []model.Record
}

// Deliver receives finished chunks. It is called concurrently from every
// worker, once per task.
type Deliver func(Result)

// ChunkError reports the chunk a worker failed on.
type ChunkError struct {
	Index  int
	Worker string
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d (%s): %v", e.Index, e.Worker, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Worker sorts tasks from a queue until it is drained.
type Worker struct {
	sorter    Sorter
	key       model.SortKey
	name      string
	algorithm string
	logger    logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(sorter Sorter, key model.SortKey, opts ...Option) *Worker {
	w := &Worker{
		sorter:    sorter,
		key:       key,
		name:      "worker",
		algorithm: "custom",
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get()
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Name returns the worker name.
func (w *Worker) Name() string { return w.name }

// Run drains q, handing every sorted chunk to deliver. It returns nil once
// the queue is closed and empty, the context error if ctx ends first, or a
// *ChunkError on the first failed chunk.
func (w *Worker) Run(ctx context.Context, q Queue, deliver Deliver) error {
	tasks := q.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task, ok := <-tasks:
			if !ok {
				return nil
			}
			metrics.RecordQueueDequeue()
			out, err := w.process(ctx, task)
			if err != nil {
				return err
			}
			deliver(Result{Index: task.Index, Records: out})
		}
	}
}

// process sorts a single task. A panicking sorter is reported as a failure
// of that chunk.
func (w *Worker) process(ctx context.Context, task queue.Task) (out []model.Record, err error) {
	start := time.Now()
	metrics.IncWorkerActive()
	defer func() {
		metrics.DecWorkerActive()
		if r := recover(); r != nil {
			err = w.fail(ctx, task, "panic", fmt.Errorf("%w: %v", ErrPanicked, r))
		}
	}()

	out, err = w.sorter.Sort(ctx, task.Records, w.key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, w.fail(ctx, task, "sort_error", err)
	}

	elapsed := time.Since(start)
	metrics.RecordChunkSortLatency(w.algorithm, metrics.Milliseconds(elapsed))
	w.logger.Debug(ctx, "chunk sorted",
		logger.Int("chunk", task.Index),
		logger.Int("records", len(task.Records)),
		logger.Duration("elapsed", elapsed),
	)
	return out, nil
}

func (w *Worker) fail(ctx context.Context, task queue.Task, reason string, err error) error {
	metrics.RecordWorkerFailure(reason)
	metrics.RecordErrorByComponent("worker", reason)
	w.logger.Error(ctx, "chunk sort failed",
		logger.Int("chunk", task.Index),
		logger.Int("records", len(task.Records)),
		logger.Error(err),
	)
	return &ChunkError{Index: task.Index, Worker: w.name, Err: err}
}

// Pool runs a fixed number of workers against one queue.
type Pool struct {
	workers []*Worker
}

// NewPool creates size workers sharing sorter and key. Options apply to
// every worker; each gets its own name.
func NewPool(size int, sorter Sorter, key model.SortKey, opts ...Option) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{workers: make([]*Worker, size)}
	for i := range p.workers {
		wopts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)))
		p.workers[i] = NewWorker(sorter, key, wopts...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Run starts every worker and waits for all of them. The first failure
// cancels the others and is returned.
func (p *Pool) Run(ctx context.Context, q Queue, deliver Deliver) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range p.workers {
		g.Go(func() error {
			return w.Run(gctx, q, deliver)
		})
	}
	return g.Wait()
}
