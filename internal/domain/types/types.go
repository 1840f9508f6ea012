// Package types contains the response shapes shared by the API and the
// batch runner.
package types

import "time"

// Entry is one row of a published leaderboard.
type Entry struct {
	Rank     int     `json:"rank"`
	Position int     `json:"position"`
	Name     string  `json:"name"`
	Rating   float64 `json:"rating"`
	Votes    int     `json:"votes"`
	Score    float64 `json:"score"`
}

// PassSummary describes one parallel sort pass of a run.
type PassSummary struct {
	Algorithm   string        `json:"algorithm"`
	Key         string        `json:"key"`
	Parallelism int           `json:"parallelism"`
	Elapsed     time.Duration `json:"elapsed_ns"`
}

// RunSummary describes a finished pipeline run.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Records    int           `json:"records"`
	GlobalMean float64       `json:"global_mean"`
	MinVotes   float64       `json:"min_votes"`
	Policy     string        `json:"mean_policy"`
	Passes     []PassSummary `json:"passes"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// Stats describes the currently published ranking and the last run.
type Stats struct {
	RunID       string      `json:"run_id,omitempty"`
	Key         string      `json:"key,omitempty"`
	Records     int         `json:"records"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
	Parallelism int         `json:"parallelism"`
	Runs        int64       `json:"runs"`
	LastRun     *RunSummary `json:"last_run,omitempty"`
}
