// Package batch runs one ranking over a CSV file (or a remote rankr
// server) and reports the result on a terminal.
package batch

import (
	"runtime"
	"time"

	"github.com/okian/rankr/internal/domain/scoring"
	"github.com/okian/rankr/internal/domain/sorting"
)

// Config holds configuration for one batch run.
type Config struct {
	Input           string        // CSV input path; .gz and .zst are decompressed
	Output          string        // CSV output path; empty skips writing
	Generate        int           // synthesize this many records instead of reading Input
	Seed            int64         // seed for Generate
	URL             string        // rank on a remote server instead of in process
	TwoPhase        bool          // votes pass, rescore, score pass
	Algorithm       string        // first (or only) pass
	SecondAlgorithm string        // score pass of a two-phase run
	Key             string        // single-pass key
	Direction       string        // single-pass direction
	Parallelism     int           // workers per pass
	TieBreak        string        // left or right
	MinVotes        float64       // confidence constant m
	MeanPolicy      string        // simple, weighted or fixed
	FixedMean       float64       // mean for the fixed policy
	Top             int           // rows in the printed table
	ScorePrecision  int           // output score decimals; negative keeps full precision
	Timeout         time.Duration // bound on the whole run
	LogFile         string        // tee logs to this file
	Verbose         bool          // debug logging and per-pass timings
}

// DefaultConfig mirrors the server defaults.
func DefaultConfig() Config {
	return Config{
		TwoPhase:        true,
		Algorithm:       string(sorting.AlgorithmQuick),
		SecondAlgorithm: string(sorting.AlgorithmHeap),
		Key:             "score",
		Direction:       "desc",
		Parallelism:     runtime.NumCPU(),
		TieBreak:        "left",
		MinVotes:        scoring.DefaultMinVotes,
		MeanPolicy:      scoring.MeanSimple.String(),
		FixedMean:       scoring.DefaultFixedMean,
		Top:             defaultTop,
		ScorePrecision:  -1,
		Timeout:         defaultTimeout,
		Seed:            1,
	}
}

// Stats holds run statistics.
type Stats struct {
	RowsRead   int
	Accepted   int
	Skipped    int
	Records    int
	GlobalMean float64
	ReadTime   time.Duration
	RankTime   time.Duration
	WriteTime  time.Duration
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
