package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/rankr/internal/adapters/csvio"
	service "github.com/okian/rankr/internal/app"
	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/internal/domain/sorting"
	"github.com/okian/rankr/internal/domain/types"
	"github.com/okian/rankr/pkg/logger"
)

// ErrNoInput is returned when neither an input file nor -generate is set.
var ErrNoInput = errors.New("no input: set -input or -generate")

// Run executes one batch ranking and prints the unique top rows to out.
func Run(ctx context.Context, cfg *Config, out io.Writer) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("batch")

	plan, err := service.ParsePlan(service.PlanConfig{
		TwoPhase:        cfg.TwoPhase,
		Algorithm:       cfg.Algorithm,
		SecondAlgorithm: cfg.SecondAlgorithm,
		Key:             cfg.Key,
		Direction:       cfg.Direction,
		Parallelism:     cfg.Parallelism,
		MinVotes:        cfg.MinVotes,
		MeanPolicy:      cfg.MeanPolicy,
		FixedMean:       cfg.FixedMean,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	tie, err := sorting.ParseTieBreak(cfg.TieBreak)
	if err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	records, err := load(ctx, cfg, stats, log)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "records loaded", logger.Int("records", len(records)), logger.Duration("elapsed", stats.ReadTime))

	var (
		summary types.RunSummary
		top     []types.Entry
	)
	if cfg.URL != "" {
		summary, top, err = rankRemote(ctx, cfg, records, log)
	} else {
		summary, top, err = rankLocal(ctx, cfg, plan, tie, records, stats, log)
	}
	if err != nil {
		return nil, err
	}

	stats.Records = summary.Records
	stats.GlobalMean = summary.GlobalMean
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	if err := PrintTop(out, top); err != nil {
		return nil, fmt.Errorf("print table: %w", err)
	}
	PrintSummary(out, &summary, stats, cfg.Verbose)

	log.Info(ctx, "batch run completed",
		logger.String("run_id", summary.RunID),
		logger.Int("records", summary.Records),
		logger.Duration("read", stats.ReadTime),
		logger.Duration("rank", stats.RankTime),
		logger.Duration("write", stats.WriteTime),
		logger.Duration("total", stats.Duration))
	return stats, nil
}

func load(ctx context.Context, cfg *Config, stats *Stats, log logger.Logger) ([]model.Record, error) {
	start := time.Now()
	defer func() { stats.ReadTime = time.Since(start) }()

	if cfg.Generate > 0 {
		records := Generate(cfg.Generate, cfg.Seed)
		stats.Accepted = len(records)
		return records, nil
	}
	if cfg.Input == "" {
		return nil, ErrNoInput
	}

	src, err := csvio.Open(cfg.Input)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	records, report, err := csvio.Read(ctx, src, csvio.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cfg.Input, err)
	}
	stats.RowsRead = report.Rows
	stats.Accepted = report.Accepted
	stats.Skipped = report.SkippedTotal()
	if stats.Skipped > 0 {
		log.Warn(ctx, "rows skipped", logger.Int("skipped", stats.Skipped), logger.Any("reasons", report.Skipped))
	}
	return records, nil
}

func rankLocal(
	ctx context.Context,
	cfg *Config,
	plan service.Plan,
	tie sorting.TieBreak,
	records []model.Record,
	stats *Stats,
	log logger.Logger,
) (types.RunSummary, []types.Entry, error) {
	opts := []service.Option{service.WithTieBreak(tie), service.WithLogger(log.Named("service"))}
	if cfg.Parallelism > 0 {
		opts = append(opts, service.WithParallelism(cfg.Parallelism))
	}
	svc := service.New(opts...)

	start := time.Now()
	res, err := svc.Run(ctx, records, plan)
	stats.RankTime = time.Since(start)
	if err != nil {
		return types.RunSummary{}, nil, fmt.Errorf("rank: %w", err)
	}
	if err := Verify(records, res.Records, plan.FinalKey()); err != nil {
		return types.RunSummary{}, nil, err
	}

	if cfg.Output != "" {
		start := time.Now()
		if err := writeOutput(ctx, cfg.Output, res.Records, cfg.ScorePrecision); err != nil {
			return types.RunSummary{}, nil, err
		}
		stats.WriteTime = time.Since(start)
		log.Info(ctx, "ranking written", logger.String("output", cfg.Output), logger.Duration("elapsed", stats.WriteTime))
	}

	if len(res.Records) == 0 {
		return res.Summary, nil, nil
	}
	top, err := res.Top(ctx, max(cfg.Top, 1), true)
	if err != nil {
		return types.RunSummary{}, nil, err
	}
	return res.Summary, top, nil
}

func rankRemote(ctx context.Context, cfg *Config, records []model.Record, log logger.Logger) (types.RunSummary, []types.Entry, error) {
	client := NewClient(cfg.URL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return types.RunSummary{}, nil, fmt.Errorf("service health check failed: %w", err)
	}
	if cfg.Output != "" {
		log.Warn(ctx, "output is not written when ranking remotely", logger.String("output", cfg.Output))
	}
	res, err := client.Rank(ctx, records, cfg)
	if err != nil {
		return types.RunSummary{}, nil, fmt.Errorf("remote rank: %w", err)
	}
	if len(records) == 0 {
		return res.Summary, nil, nil
	}
	top, err := client.Leaderboard(ctx, max(cfg.Top, 1), true)
	if err != nil {
		return types.RunSummary{}, nil, fmt.Errorf("remote leaderboard: %w", err)
	}
	return res.Summary, top, nil
}

func writeOutput(ctx context.Context, path string, records []model.Record, precision int) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	dst, err := csvio.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := csvio.Write(ctx, dst, records, true, csvio.WithScorePrecision(precision)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
