// Package config defines process configuration and its loading.
//
// Conventions:
//   - New(ctx) returns the defaults.
//   - Load(ctx) layers a YAML file and RANKR_ environment variables on top.
//   - Validate reports every problem wrapped in ErrInvalidConfig.
package config

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/internal/domain/scoring"
	"github.com/okian/rankr/internal/domain/sorting"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Parallelism is the worker count of every sort pass.
	Parallelism int `koanf:"parallelism"`

	// TwoPhase runs the review-count pass, re-scores, then sorts by score.
	// When false a single pass sorts by SortKey.
	TwoPhase bool `koanf:"two_phase"`

	// Algorithm sorts the first (or only) pass.
	Algorithm string `koanf:"algorithm"`

	// SecondAlgorithm sorts the score pass of a two-phase run.
	SecondAlgorithm string `koanf:"second_algorithm"`

	// SortKey and Direction order a single-pass run.
	SortKey   string `koanf:"sort_key"`
	Direction string `koanf:"direction"`

	// MinVotes is the confidence constant m.
	MinVotes float64 `koanf:"min_votes"`

	// MeanPolicy is simple, weighted or fixed; FixedMean feeds the last.
	MeanPolicy string  `koanf:"mean_policy"`
	FixedMean  float64 `koanf:"fixed_mean"`

	// TieBreak is left or right.
	TieBreak string `koanf:"tie_break"`

	// PassTimeoutMS bounds each sort pass; 0 disables the bound.
	PassTimeoutMS int `koanf:"pass_timeout_ms"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxUploadRecords caps records accepted by POST /rankings.
	MaxUploadRecords int `koanf:"max_upload_records"`

	// CaseInsensitiveNames folds case for rank lookups and unique listings.
	CaseInsensitiveNames bool `koanf:"case_insensitive_names"`

	// RankingsPerSecond and RankingsBurst limit POST /rankings; 0 disables.
	RankingsPerSecond float64 `koanf:"rankings_per_second"`
	RankingsBurst     int     `koanf:"rankings_burst"`

	// Tracing exports OpenTelemetry spans over OTLP/HTTP.
	TracingEnabled    bool    `koanf:"tracing_enabled"`
	TracingEndpoint   string  `koanf:"tracing_endpoint"`
	TracingSampleRate float64 `koanf:"tracing_sample_rate"`
	TracingInsecure   bool    `koanf:"tracing_insecure"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		Parallelism:         runtime.NumCPU(),
		TwoPhase:            true,
		Algorithm:           string(sorting.AlgorithmQuick),
		SecondAlgorithm:     string(sorting.AlgorithmHeap),
		SortKey:             model.KeyScore.String(),
		Direction:           model.Descending.String(),
		MinVotes:            scoring.DefaultMinVotes,
		MeanPolicy:          scoring.MeanSimple.String(),
		FixedMean:           scoring.DefaultFixedMean,
		TieBreak:            sorting.TieLeft.String(),
		PassTimeoutMS:       0,
		MaxLeaderboardLimit: 100,
		MaxUploadRecords:    1_000_000,
		RankingsBurst:       1,
		TracingSampleRate:   1,
	}
}

// PassTimeout returns PassTimeoutMS as a duration.
func (c *Config) PassTimeout() time.Duration {
	return time.Duration(c.PassTimeoutMS) * time.Millisecond
}

// Validate checks every field and joins all problems into one error.
func (c *Config) Validate() error {
	var problems []string
	check := func(field string, err error) {
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", field, err))
		}
	}

	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "addr: must not be empty")
	}
	if c.Parallelism < 1 {
		problems = append(problems, fmt.Sprintf("parallelism: must be at least 1, got %d", c.Parallelism))
	}
	_, err := sorting.ParseAlgorithm(c.Algorithm)
	check("algorithm", err)
	_, err = sorting.ParseAlgorithm(c.SecondAlgorithm)
	check("second_algorithm", err)
	_, err = model.ParseKey(c.SortKey)
	check("sort_key", err)
	_, err = model.ParseDirection(c.Direction)
	check("direction", err)
	if c.MinVotes < 0 {
		problems = append(problems, fmt.Sprintf("min_votes: must not be negative, got %v", c.MinVotes))
	}
	_, err = scoring.ParsePolicy(c.MeanPolicy)
	check("mean_policy", err)
	_, err = sorting.ParseTieBreak(c.TieBreak)
	check("tie_break", err)
	if c.PassTimeoutMS < 0 {
		problems = append(problems, fmt.Sprintf("pass_timeout_ms: must not be negative, got %d", c.PassTimeoutMS))
	}
	if c.MaxLeaderboardLimit < 1 {
		problems = append(problems, fmt.Sprintf("max_leaderboard_limit: must be at least 1, got %d", c.MaxLeaderboardLimit))
	}
	if c.MaxUploadRecords < 1 {
		problems = append(problems, fmt.Sprintf("max_upload_records: must be at least 1, got %d", c.MaxUploadRecords))
	}
	if c.RankingsPerSecond < 0 {
		problems = append(problems, fmt.Sprintf("rankings_per_second: must not be negative, got %v", c.RankingsPerSecond))
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		problems = append(problems, fmt.Sprintf("tracing_sample_rate: must be within [0, 1], got %v", c.TracingSampleRate))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// IsInvalid reports whether err came from Validate.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
