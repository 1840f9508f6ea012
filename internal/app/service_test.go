package service_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	service "github.com/okian/rankr/internal/app"
	"github.com/okian/rankr/internal/adapters/repository"
	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/internal/domain/scoring"
	"github.com/okian/rankr/internal/domain/sorting"
	"github.com/okian/rankr/internal/engine"
	"github.com/okian/rankr/pkg/logger"
	"github.com/okian/rankr/pkg/tracing"
	. "github.com/smartystreets/goconvey/convey"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newService(opts ...service.Option) *service.Service {
	ids := 0
	base := []service.Option{
		service.WithLogger(logger.Nop()),
		service.WithParallelism(2),
		service.WithRunIDs(func() string {
			ids++
			return fmt.Sprintf("run-%d", ids)
		}),
	}
	return service.New(append(base, opts...)...)
}

func abc() []model.Record {
	return []model.Record{
		{Name: "A", Rating: 5.0, Votes: 10},
		{Name: "B", Rating: 3.0, Votes: 1000},
		{Name: "C", Rating: 4.0, Votes: 100},
	}
}

func names(records []model.Record) []string {
	out := make([]string, len(records))
	for i := range records {
		out[i] = records[i].Name
	}
	return out
}

var descScore = model.SortKey{Key: model.KeyScore}

func TestService_ScoreAndSort(t *testing.T) {
	Convey("Given the three record example with a fixed mean of 4.0", t, func() {
		svc := newService()
		ctx := context.Background()
		params := service.ScoreParams{GlobalMean: 4.0, MinVotes: 100, Policy: scoring.MeanFixed}

		Convey("When scoring", func() {
			scored, mean, err := svc.Score(ctx, abc(), params)

			Convey("Then the smoothed scores match", func() {
				So(err, ShouldBeNil)
				So(mean, ShouldEqual, 4.0)
				So(scored[0].Score, ShouldAlmostEqual, 4.0909, 0.001)
				So(scored[1].Score, ShouldAlmostEqual, 3.0909, 0.001)
				So(scored[2].Score, ShouldAlmostEqual, 4.0, 0.001)
			})

			Convey("And sorting by score descending yields A, C, B with every algorithm", func() {
				So(err, ShouldBeNil)
				for _, alg := range sorting.Algorithms() {
					out, err := svc.Sort(ctx, scored, service.SortParams{Key: model.KeyScore, Algorithm: alg, Parallelism: service.ParallelismDefault})
					So(err, ShouldBeNil)
					So(names(out), ShouldResemble, []string{"A", "C", "B"})
				}
			})
		})

		Convey("When scoring with a negative confidence constant", func() {
			_, _, err := svc.Score(ctx, abc(), service.ScoreParams{MinVotes: -1})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, scoring.ErrInvalidMinVotes), ShouldBeTrue)
			})
		})

		Convey("When sorting with an unknown algorithm", func() {
			_, err := svc.Sort(ctx, abc(), service.SortParams{Algorithm: "bogosort", Parallelism: service.ParallelismDefault})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, sorting.ErrUnknownAlgorithm), ShouldBeTrue)
			})
		})

		Convey("When sorting with negative parallelism", func() {
			_, err := svc.Sort(ctx, abc(), service.SortParams{Algorithm: sorting.AlgorithmHeap, Parallelism: -2})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, engine.ErrInvalidParallelism), ShouldBeTrue)
			})
		})

		Convey("When sorting with zero parallelism", func() {
			out, err := svc.Sort(ctx, abc(), service.SortParams{Algorithm: sorting.AlgorithmQuick})

			Convey("Then it is a config error, not the service default", func() {
				So(out, ShouldBeNil)
				So(errors.Is(err, engine.ErrInvalidParallelism), ShouldBeTrue)
			})
		})

		Convey("When sorting with the default parallelism marker", func() {
			out, err := svc.Sort(ctx, abc(), service.SortParams{Algorithm: sorting.AlgorithmQuick, Parallelism: service.ParallelismDefault})

			Convey("Then the service worker count is used", func() {
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 3)
			})
		})
	})
}

// generated returns n records whose ratings are exact in binary so every
// mean policy sums to the same value in any order.
func generated(n int) []model.Record {
	out := make([]model.Record, n)
	for i := range out {
		out[i] = model.Record{
			Name:   fmt.Sprintf("org-%04d", i),
			Rating: float64((i*37)%17) / 4,
			Votes:  (i * 7919) % 1500,
		}
	}
	return out
}

func TestService_Run(t *testing.T) {
	Convey("Given a service with a snapshot store", t, func() {
		store := repository.NewSnapshotStore()
		svc := newService(service.WithStore(store))
		ctx := context.Background()
		params := service.DefaultScoreParams()

		Convey("When running the two-phase plan", func() {
			in := generated(2000)
			twoPhase, err := svc.Run(ctx, in, service.TwoPhase(sorting.AlgorithmQuick, sorting.AlgorithmHeap, params))
			So(err, ShouldBeNil)

			Convey("Then it matches scoring once and sorting once by score", func() {
				scored, mean, err := svc.Score(ctx, in, params)
				So(err, ShouldBeNil)
				single, err := svc.Sort(ctx, scored, service.SortParams{Key: model.KeyScore, Algorithm: sorting.AlgorithmMerge, Parallelism: 3})
				So(err, ShouldBeNil)

				So(twoPhase.Summary.GlobalMean, ShouldEqual, mean)
				So(len(twoPhase.Records), ShouldEqual, len(single))
				for i := range single {
					So(twoPhase.Records[i].Score, ShouldEqual, single[i].Score)
				}
			})

			Convey("And the summary describes both passes", func() {
				So(twoPhase.Summary.RunID, ShouldEqual, "run-1")
				So(twoPhase.Summary.Records, ShouldEqual, 2000)
				So(twoPhase.Summary.Policy, ShouldEqual, "simple")
				So(len(twoPhase.Summary.Passes), ShouldEqual, 2)
				So(twoPhase.Summary.Passes[0].Algorithm, ShouldEqual, "quicksort")
				So(twoPhase.Summary.Passes[0].Key, ShouldEqual, "votes desc")
				So(twoPhase.Summary.Passes[1].Algorithm, ShouldEqual, "heapsort")
				So(twoPhase.Summary.Passes[1].Parallelism, ShouldEqual, 2)
			})

			Convey("And the result is published", func() {
				info, err := store.Latest(ctx)
				So(err, ShouldBeNil)
				So(info.RunID, ShouldEqual, "run-1")
				So(info.Count, ShouldEqual, 2000)

				stats := svc.Stats(ctx)
				So(stats.Runs, ShouldEqual, 1)
				So(stats.Records, ShouldEqual, 2000)
				So(stats.LastRun, ShouldNotBeNil)
				So(stats.LastRun.RunID, ShouldEqual, "run-1")
			})
		})

		Convey("When running a single pass on the three record example", func() {
			params.Policy = scoring.MeanFixed
			params.GlobalMean = 4.0
			res, err := svc.Run(ctx, abc(), service.SinglePass(sorting.AlgorithmMerge, descScore, params))
			So(err, ShouldBeNil)

			Convey("Then the leaderboard lists A, C, B", func() {
				So(names(res.Records), ShouldResemble, []string{"A", "C", "B"})

				top, err := svc.TopN(ctx, 10, false)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 3)
				So(top[0].Name, ShouldEqual, "A")
				So(top[0].Rank, ShouldEqual, 1)
				So(top[2].Name, ShouldEqual, "B")

				entry, err := svc.Rank(ctx, "C")
				So(err, ShouldBeNil)
				So(entry.Position, ShouldEqual, 2)
			})
		})

		Convey("When a single pass orders raw records by votes", func() {
			res, err := svc.Run(ctx, abc(), service.SinglePass(sorting.AlgorithmQuick, model.SortKey{Key: model.KeyVotes}, params))

			Convey("Then records are still scored for the leaderboard", func() {
				So(err, ShouldBeNil)
				So(names(res.Records), ShouldResemble, []string{"B", "C", "A"})
				for _, r := range res.Records {
					So(r.Scored, ShouldBeTrue)
				}
			})
		})

		Convey("When the input already carries scores", func() {
			in := []model.Record{
				{Name: "x", Score: 1, Scored: true},
				{Name: "y", Score: 9, Scored: true},
			}
			res, err := svc.Run(ctx, in, service.SinglePass(sorting.AlgorithmHeap, descScore, params))

			Convey("Then they are kept", func() {
				So(err, ShouldBeNil)
				So(names(res.Records), ShouldResemble, []string{"y", "x"})
				So(res.Records[0].Score, ShouldEqual, 9)
			})
		})

		Convey("When the input is empty", func() {
			res, err := svc.Run(ctx, nil, service.TwoPhase(sorting.AlgorithmQuick, sorting.AlgorithmHeap, params))

			Convey("Then nothing is published", func() {
				So(err, ShouldBeNil)
				So(res.Records, ShouldBeEmpty)
				_, err := store.Latest(ctx)
				So(errors.Is(err, repository.ErrEmpty), ShouldBeTrue)
			})
		})

		Convey("When the plan has no passes", func() {
			_, err := svc.Run(ctx, abc(), service.Plan{Score: params})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrEmptyPlan), ShouldBeTrue)
			})
		})

		Convey("When a record cannot be compared", func() {
			in := []model.Record{{Name: "a", Score: 1, Scored: true}, {Name: "b", Score: math.NaN(), Scored: true}}
			_, err := svc.Run(ctx, in, service.SinglePass(sorting.AlgorithmQuick, descScore, params))

			Convey("Then the run fails with a worker failure and publishes nothing", func() {
				So(errors.Is(err, engine.ErrWorkerFailed), ShouldBeTrue)
				So(errors.Is(err, sorting.ErrIncomparable), ShouldBeTrue)
				So(svc.Stats(ctx).Runs, ShouldEqual, 0)
			})
		})
	})
}

func TestParsePlan(t *testing.T) {
	Convey("Given plan settings from flags", t, func() {
		cfg := service.PlanConfig{
			TwoPhase:        true,
			Algorithm:       "quick",
			SecondAlgorithm: "heap",
			MinVotes:        100,
			MeanPolicy:      "weighted",
			Parallelism:     4,
		}

		Convey("When parsing a two-phase plan", func() {
			plan, err := service.ParsePlan(cfg)

			Convey("Then it orders by votes then by score", func() {
				So(err, ShouldBeNil)
				So(len(plan.Passes), ShouldEqual, 2)
				So(plan.Passes[0].Sort.Key, ShouldEqual, model.KeyVotes)
				So(plan.Passes[1].Rescore, ShouldBeTrue)
				So(plan.Passes[1].Sort.Parallelism, ShouldEqual, 4)
				So(plan.Score.Policy, ShouldEqual, scoring.MeanWeighted)
				So(plan.FinalKey(), ShouldResemble, descScore)
			})
		})

		Convey("When parsing a single ascending rating pass", func() {
			cfg.TwoPhase = false
			cfg.Key = "Rating"
			cfg.Direction = "asc"
			plan, err := service.ParsePlan(cfg)

			Convey("Then it has one pass", func() {
				So(err, ShouldBeNil)
				So(len(plan.Passes), ShouldEqual, 1)
				So(plan.FinalKey(), ShouldResemble, model.SortKey{Key: model.KeyRating, Direction: model.Ascending})
			})
		})

		Convey("When several settings are invalid", func() {
			cfg.Algorithm = "bogosort"
			cfg.MeanPolicy = "median"
			cfg.Parallelism = 0
			_, err := service.ParsePlan(cfg)

			Convey("Then each problem is reported", func() {
				So(errors.Is(err, sorting.ErrUnknownAlgorithm), ShouldBeTrue)
				So(errors.Is(err, scoring.ErrUnknownPolicy), ShouldBeTrue)
				So(errors.Is(err, engine.ErrInvalidParallelism), ShouldBeTrue)
			})
		})

		Convey("When parallelism is left to the service", func() {
			cfg.Parallelism = service.ParallelismDefault
			plan, err := service.ParsePlan(cfg)

			Convey("Then every pass carries the default marker", func() {
				So(err, ShouldBeNil)
				for _, p := range plan.Passes {
					So(p.Sort.Parallelism, ShouldEqual, service.ParallelismDefault)
				}
			})
		})
	})
}

func TestResult_TopIsPinnedToItsRun(t *testing.T) {
	Convey("Given two runs published back to back", t, func() {
		svc := newService()
		ctx := context.Background()
		params := service.ScoreParams{GlobalMean: 4.0, MinVotes: 100, Policy: scoring.MeanFixed}

		first, err := svc.Run(ctx, abc(), service.SinglePass(sorting.AlgorithmMerge, descScore, params))
		So(err, ShouldBeNil)
		second, err := svc.Run(ctx, []model.Record{{Name: "Z", Rating: 1, Votes: 1}},
			service.SinglePass(sorting.AlgorithmMerge, descScore, params))
		So(err, ShouldBeNil)

		Convey("Then each result reads its own ranking", func() {
			top, err := first.Top(ctx, 10, false)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 3)
			So(top[0].Name, ShouldEqual, "A")
			So(top[2].Name, ShouldEqual, "B")

			top, err = second.Top(ctx, 10, false)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 1)
			So(top[0].Name, ShouldEqual, "Z")
		})

		Convey("And the store serves only the latest", func() {
			top, err := svc.TopN(ctx, 10, false)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 1)
		})

		Convey("And an empty run has no rows", func() {
			empty, err := svc.Run(ctx, nil, service.SinglePass(sorting.AlgorithmMerge, descScore, params))
			So(err, ShouldBeNil)
			top, err := empty.Top(ctx, 10, false)
			So(err, ShouldBeNil)
			So(top, ShouldBeEmpty)
		})
	})
}

func TestService_RunSpans(t *testing.T) {
	Convey("Given spans recorded in memory", t, func() {
		rec := tracetest.NewSpanRecorder()
		tp := tracing.Install(sdktrace.WithSpanProcessor(rec))
		defer func() { _ = tp.Shutdown(context.Background()) }()

		Convey("When a two-phase run completes", func() {
			plan := service.TwoPhase(sorting.AlgorithmQuick, sorting.AlgorithmHeap, service.DefaultScoreParams())
			_, err := newService().Run(context.Background(), abc(), plan)
			So(err, ShouldBeNil)

			Convey("Then the run span parents one span per pass", func() {
				var run sdktrace.ReadOnlySpan
				passes := 0
				for _, s := range rec.Ended() {
					switch s.Name() {
					case "ranking.run":
						run = s
					case "engine.pass":
						passes++
					}
				}
				So(run, ShouldNotBeNil)
				So(passes, ShouldEqual, 2)
				for _, s := range rec.Ended() {
					if s.Name() == "engine.pass" {
						So(s.Parent().SpanID(), ShouldEqual, run.SpanContext().SpanID())
					}
				}
			})
		})
	})
}
