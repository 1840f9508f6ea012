package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/rankr/internal/adapters/mq/queue"
	"github.com/okian/rankr/internal/adapters/mq/worker"
	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/internal/domain/sorting"
	"github.com/okian/rankr/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

var byVotes = model.SortKey{Key: model.KeyVotes, Direction: model.Ascending}

// collector gathers delivered results.
type collector struct {
	mu      sync.Mutex
	results map[int][]model.Record
}

func newCollector() *collector {
	return &collector{results: make(map[int][]model.Record)}
}

func (c *collector) deliver(r worker.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[r.Index] = r.Records
}

func filledQueue(chunks ...[]model.Record) *queue.InMemoryQueue {
	q := queue.NewInMemoryQueue(queue.WithCapacity(len(chunks) + 1))
	for i, c := range chunks {
		if err := q.Enqueue(context.Background(), queue.Task{Index: i, Records: c}); err != nil {
			panic(err)
		}
	}
	_ = q.Close()
	return q
}

func votes(vs ...int) []model.Record {
	out := make([]model.Record, len(vs))
	for i, v := range vs {
		out[i] = model.Record{Name: "n", Votes: v}
	}
	return out
}

func voteValues(records []model.Record) []int {
	out := make([]int, len(records))
	for i := range records {
		out[i] = records[i].Votes
	}
	return out
}

func TestWorker_Run(t *testing.T) {
	convey.Convey("Given a worker with the heapsort sorter", t, func() {
		sorter, err := sorting.For(sorting.AlgorithmHeap)
		convey.So(err, convey.ShouldBeNil)
		w := worker.NewWorker(sorter, byVotes, worker.WithName("w-test"), worker.WithLogger(logger.Nop()))

		convey.Convey("When it drains a closed queue", func() {
			q := filledQueue(votes(3, 1, 2), votes(9, 7), votes())
			c := newCollector()
			err := w.Run(context.Background(), q, c.deliver)

			convey.Convey("Then every chunk is sorted under its own index", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Name(), convey.ShouldEqual, "w-test")
				convey.So(c.results, convey.ShouldHaveLength, 3)
				convey.So(voteValues(c.results[0]), convey.ShouldResemble, []int{1, 2, 3})
				convey.So(voteValues(c.results[1]), convey.ShouldResemble, []int{7, 9})
				convey.So(c.results[2], convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			q := queue.NewInMemoryQueue()
			err := w.Run(ctx, q, newCollector().deliver)

			convey.Convey("Then it returns the context error", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a sorter that fails", t, func() {
		boom := errors.New("boom")
		failing := sorting.SorterFunc(func(context.Context, []model.Record, model.SortKey) ([]model.Record, error) {
			return nil, boom
		})
		w := worker.NewWorker(failing, byVotes, worker.WithLogger(logger.Nop()))

		convey.Convey("When the worker runs", func() {
			err := w.Run(context.Background(), filledQueue(votes(1)), newCollector().deliver)

			convey.Convey("Then the failing chunk is reported", func() {
				var ce *worker.ChunkError
				convey.So(errors.As(err, &ce), convey.ShouldBeTrue)
				convey.So(ce.Index, convey.ShouldEqual, 0)
				convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a sorter that panics", t, func() {
		panicking := sorting.SorterFunc(func(context.Context, []model.Record, model.SortKey) ([]model.Record, error) {
			panic("index out of range")
		})
		w := worker.NewWorker(panicking, byVotes, worker.WithLogger(logger.Nop()))

		convey.Convey("When the worker runs", func() {
			err := w.Run(context.Background(), filledQueue(votes(1), votes(2)), newCollector().deliver)

			convey.Convey("Then the panic becomes a chunk failure", func() {
				convey.So(errors.Is(err, worker.ErrPanicked), convey.ShouldBeTrue)
			})
		})
	})
}

func TestPool_Run(t *testing.T) {
	convey.Convey("Given a pool of four mergesort workers", t, func() {
		sorter, err := sorting.For(sorting.AlgorithmMerge)
		convey.So(err, convey.ShouldBeNil)
		pool := worker.NewPool(4, sorter, byVotes, worker.WithAlgorithm("mergesort"), worker.WithLogger(logger.Nop()))

		convey.Convey("When running over eight chunks", func() {
			chunks := make([][]model.Record, 8)
			for i := range chunks {
				chunks[i] = votes(i*10+3, i*10+1, i*10+2)
			}
			c := newCollector()
			err := pool.Run(context.Background(), filledQueue(chunks...), c.deliver)

			convey.Convey("Then every chunk comes back sorted", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pool.Size(), convey.ShouldEqual, 4)
				for i := range chunks {
					convey.So(voteValues(c.results[i]), convey.ShouldResemble, []int{i*10 + 1, i*10 + 2, i*10 + 3})
				}
			})
		})
	})

	convey.Convey("Given a pool where one chunk fails and another blocks", t, func() {
		boom := errors.New("bad chunk")
		blockedSaw := make(chan error, 1)
		sorter := sorting.SorterFunc(func(ctx context.Context, records []model.Record, _ model.SortKey) ([]model.Record, error) {
			if records[0].Votes == 1 {
				return nil, boom
			}
			select {
			case <-ctx.Done():
				blockedSaw <- ctx.Err()
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return records, nil
			}
		})
		pool := worker.NewPool(2, sorter, byVotes, worker.WithLogger(logger.Nop()))

		convey.Convey("When the pool runs", func() {
			start := time.Now()
			err := pool.Run(context.Background(), filledQueue(votes(2), votes(1)), newCollector().deliver)

			convey.Convey("Then the failure wins and the sibling is cancelled", func() {
				var ce *worker.ChunkError
				convey.So(errors.As(err, &ce), convey.ShouldBeTrue)
				convey.So(ce.Index, convey.ShouldEqual, 1)
				convey.So(time.Since(start), convey.ShouldBeLessThan, 4*time.Second)
				convey.So(errors.Is(<-blockedSaw, context.Canceled), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool with a non-positive size", t, func() {
		pool := worker.NewPool(0, sorting.SorterFunc(sorting.QuickSort), byVotes, worker.WithLogger(logger.Nop()))

		convey.Convey("Then it still has one worker", func() {
			convey.So(pool.Size(), convey.ShouldEqual, 1)
		})
	})
}
