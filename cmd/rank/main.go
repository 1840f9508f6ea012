package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/okian/rankr/internal/batch"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := batch.DefaultConfig()
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	fs.Usage = func() { batch.ShowHelp(os.Stderr) }

	fs.StringVar(&cfg.Input, "input", "", "CSV input (.csv, .csv.gz, .csv.zst)")
	fs.StringVar(&cfg.Output, "output", "", "CSV output")
	fs.IntVar(&cfg.Generate, "generate", 0, "Synthesize N records instead of reading -input")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for -generate")
	fs.StringVar(&cfg.URL, "url", "", "Rank on a running rankr server")
	fs.BoolVar(&cfg.TwoPhase, "two-phase", cfg.TwoPhase, "Votes pass, rescore, score pass")
	fs.StringVar(&cfg.Algorithm, "algorithm", cfg.Algorithm, "First pass algorithm")
	fs.StringVar(&cfg.SecondAlgorithm, "second-algorithm", cfg.SecondAlgorithm, "Score pass algorithm")
	fs.StringVar(&cfg.Key, "key", cfg.Key, "Single-pass key")
	fs.StringVar(&cfg.Direction, "direction", cfg.Direction, "desc or asc")
	fs.IntVar(&cfg.Parallelism, "parallelism", runtime.NumCPU(), "Workers per pass")
	fs.StringVar(&cfg.TieBreak, "tie-break", cfg.TieBreak, "left or right")
	fs.Float64Var(&cfg.MinVotes, "min-votes", cfg.MinVotes, "Confidence constant m")
	fs.StringVar(&cfg.MeanPolicy, "mean-policy", cfg.MeanPolicy, "simple, weighted or fixed")
	fs.Float64Var(&cfg.FixedMean, "fixed-mean", cfg.FixedMean, "Mean for the fixed policy")
	fs.IntVar(&cfg.Top, "top", cfg.Top, "Rows in the printed table")
	fs.IntVar(&cfg.ScorePrecision, "score-precision", cfg.ScorePrecision, "Decimals of the output score; negative keeps full precision")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Bound on the whole run")
	fs.StringVar(&cfg.LogFile, "log", "", "Also write logs to this file")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Debug logging and per-pass timings")
	help := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		batch.ShowHelp(os.Stdout)
		return 0
	}

	closeLog, err := batch.SetupLogging(cfg.LogFile, cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to setup logging:", err)
		return 1
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if _, err := batch.Run(ctx, &cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Ranking failed:", err)
		return 1
	}
	return 0
}
