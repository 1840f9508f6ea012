package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/rankr/pkg/logger"
)

// SetupLogging routes the global logger to stderr and, when logFile is set,
// to that file as well. The returned func closes the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return nil, err
	}
	if logFile == "" {
		if err := logger.SetOutput(os.Stderr); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return func() error { return nil }, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.SetOutput(io.MultiWriter(os.Stderr, file)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file.Close, nil
}

// ShowHelp prints usage information for the rank tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, strings.TrimLeft(`
rankr batch ranking
===================

Scores a CSV of organizations with a Bayesian confidence score and orders it
with the chunk-parallel sort engine.

Usage:
  rank -input businesses.csv [options]

Options:
  -input string         CSV input (.csv, .csv.gz, .csv.zst)
  -output string        CSV output with Position and ConfidenceScore columns
  -generate int         synthesize N records instead of reading -input
  -seed int             seed for -generate (default 1)
  -url string           rank on a running rankr server instead of in process
  -two-phase            votes pass, rescore, score pass (default true)
  -algorithm string     first pass: quicksort, heapsort, mergesort (default quicksort)
  -second-algorithm s   score pass of a two-phase run (default heapsort)
  -key string           single-pass key: score, rating, votes (default score)
  -direction string     desc or asc (default desc)
  -parallelism int      workers per pass (default CPU cores)
  -tie-break string     left or right (default left)
  -min-votes float      confidence constant m (default 100)
  -mean-policy string   simple, weighted or fixed (default simple)
  -fixed-mean float     mean for the fixed policy (default 3.0)
  -top int              rows in the printed table, unique names (default 10)
  -score-precision int  output score decimals, e.g. 2; ranking is unaffected (default full)
  -timeout duration     bound on the whole run (default 10m)
  -log string           also write logs to this file
  -verbose              debug logging and per-pass timings
  -help                 show this help

Examples:
  rank -input businesses.csv -output ranked.csv
  rank -input businesses.csv.gz -two-phase=false -algorithm mergesort -top 25
  rank -generate 1000000 -parallelism 16 -verbose
`, "\n"))
}
