package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/rankr/internal/adapters/http/api"
	"github.com/okian/rankr/internal/adapters/repository"
	app "github.com/okian/rankr/internal/app"
	"github.com/okian/rankr/internal/config"
	"github.com/okian/rankr/internal/domain/sorting"
	"github.com/okian/rankr/pkg/logger"
	"github.com/okian/rankr/pkg/metrics"
	"github.com/okian/rankr/pkg/tracing"
)

// HTTP server timeout constants.
const (
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	tp, err := tracing.NewProvider(ctx, tracing.Config{
		Enabled:      cfg.TracingEnabled,
		Endpoint:     cfg.TracingEndpoint,
		SamplingRate: cfg.TracingSampleRate,
		Insecure:     cfg.TracingInsecure,
	})
	if err != nil {
		loggerInstance.Fatal(ctx, "failed to initialize tracing", logger.Error(err))
	}

	srv, err := newServer(cfg, loggerInstance)
	if err != nil {
		loggerInstance.Fatal(ctx, "failed to build server", logger.Error(err))
	}

	// Start system metrics updater
	go metrics.StartSystemCollector(ctx)

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Int("parallelism", cfg.Parallelism),
			logger.Bool("two_phase", cfg.TwoPhase))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(context.Background(), "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(shutdownCtx, "tracer shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(shutdownCtx, "server stopped")
}

// newServer wires the service and the API from cfg.
func newServer(cfg *config.Config, log logger.Logger) (*http.Server, error) {
	defaults, err := api.DefaultsFrom(app.PlanConfig{
		TwoPhase:        cfg.TwoPhase,
		Algorithm:       cfg.Algorithm,
		SecondAlgorithm: cfg.SecondAlgorithm,
		Key:             cfg.SortKey,
		Direction:       cfg.Direction,
		Parallelism:     cfg.Parallelism,
		MinVotes:        cfg.MinVotes,
		MeanPolicy:      cfg.MeanPolicy,
		FixedMean:       cfg.FixedMean,
	})
	if err != nil {
		return nil, err
	}
	tie, err := sorting.ParseTieBreak(cfg.TieBreak)
	if err != nil {
		return nil, err
	}

	storeOpts := []repository.Option{repository.WithMaxLimit(cfg.MaxLeaderboardLimit)}
	if cfg.CaseInsensitiveNames {
		storeOpts = append(storeOpts, repository.WithCaseInsensitiveNames())
	}

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithStore(repository.NewSnapshotStore(storeOpts...)),
		app.WithParallelism(cfg.Parallelism),
		app.WithTieBreak(tie),
		app.WithPassTimeout(cfg.PassTimeout()),
	)

	handler := api.NewServer(svc,
		api.WithLogger(log.Named("api")),
		api.WithDefaults(defaults),
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
		api.WithMaxRecords(cfg.MaxUploadRecords),
		api.WithRankingRate(cfg.RankingsPerSecond, cfg.RankingsBurst),
	).Handler()

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}, nil
}
