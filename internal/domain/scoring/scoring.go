// Package scoring computes Bayesian-average confidence scores from a rating
// and its review count.
package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/rankr/internal/domain/model"
)

// Default scoring configuration constants.
const (
	DefaultMinVotes  = 100.0
	DefaultFixedMean = 3.0
)

// MeanPolicy selects how the global reference mean is derived.
type MeanPolicy int

// Supported mean policies. Simple is the default.
const (
	// MeanSimple is the unweighted mean of all ratings.
	MeanSimple MeanPolicy = iota
	// MeanWeighted is sum(rating*votes) / sum(votes).
	MeanWeighted
	// MeanFixed uses a caller supplied constant.
	MeanFixed
)

func (p MeanPolicy) String() string {
	switch p {
	case MeanSimple:
		return "simple"
	case MeanWeighted:
		return "weighted"
	case MeanFixed:
		return "fixed"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (MeanPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simple", "mean":
		return MeanSimple, nil
	case "weighted", "vote_weighted":
		return MeanWeighted, nil
	case "fixed", "constant":
		return MeanFixed, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Score returns the weighted rating
//
//	(v/(v+m))*R + (m/(v+m))*C
//
// which tends to rating as votes grow and to globalMean as votes vanish.
// A zero denominator yields 0.
func Score(rating float64, votes int, globalMean, minVotes float64) float64 {
	v := float64(votes)
	den := v + minVotes
	if den == 0 {
		return 0
	}
	return (v/den)*rating + (minVotes/den)*globalMean
}

// GlobalMean computes the reference mean of records under policy. fixed is
// only consulted for MeanFixed. Empty input yields 0 for the computed
// policies.
func GlobalMean(records []model.Record, policy MeanPolicy, fixed float64) (float64, error) {
	switch policy {
	case MeanFixed:
		return fixed, nil
	case MeanSimple:
		if len(records) == 0 {
			return 0, nil
		}
		var sum float64
		for i := range records {
			sum += records[i].Rating
		}
		return sum / float64(len(records)), nil
	case MeanWeighted:
		var weighted, votes float64
		for i := range records {
			weighted += records[i].Rating * float64(records[i].Votes)
			votes += float64(records[i].Votes)
		}
		if votes == 0 {
			return 0, nil
		}
		return weighted / votes, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownPolicy, int(policy))
	}
}

// Calculator scores whole collections.
type Calculator struct {
	minVotes  float64
	policy    MeanPolicy
	fixedMean float64
}

// NewCalculator creates a calculator. Options are validated by Apply so a
// misconfigured calculator reports a ConfigError at use time.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		minVotes:  DefaultMinVotes,
		policy:    MeanSimple,
		fixedMean: DefaultFixedMean,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the configured mean policy.
func (c *Calculator) Policy() MeanPolicy { return c.policy }

// MinVotes returns the configured confidence constant.
func (c *Calculator) MinVotes() float64 { return c.minVotes }

// Apply scores records into a new slice and returns it with the mean used.
// The input is not modified.
func (c *Calculator) Apply(ctx context.Context, records []model.Record) ([]model.Record, float64, error) {
	if c.minVotes < 0 {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidMinVotes, c.minVotes)
	}
	mean, err := GlobalMean(records, c.policy, c.fixedMean)
	if err != nil {
		return nil, 0, err
	}
	if len(records) == 0 {
		return []model.Record{}, mean, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("scoring cancelled: %w", err)
	}

	out := make([]model.Record, len(records))
	for i := range records {
		r := records[i]
		r.Score = Score(r.Rating, r.Votes, mean, c.minVotes)
		r.Scored = true
		out[i] = r
	}
	return out, mean, nil
}
