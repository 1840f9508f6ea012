package service

import (
	"errors"
	"fmt"

	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/internal/domain/scoring"
	"github.com/okian/rankr/internal/domain/sorting"
	"github.com/okian/rankr/internal/engine"
)

// PlanConfig describes a plan with the string values carried by config
// files and command-line flags.
type PlanConfig struct {
	TwoPhase        bool
	Algorithm       string
	SecondAlgorithm string
	Key             string
	Direction       string
	// Parallelism is a worker count or ParallelismDefault.
	Parallelism     int
	MinVotes        float64
	MeanPolicy      string
	FixedMean       float64
}

// ParsePlan validates c and builds its Plan. Every invalid field is
// reported.
func ParsePlan(c PlanConfig) (Plan, error) { //nolint:gocritic // hugeParam: parsed once per run
	first, err1 := sorting.ParseAlgorithm(c.Algorithm)
	second, err2 := sorting.ParseAlgorithm(c.SecondAlgorithm)
	key, err3 := model.ParseKey(c.Key)
	dir, err4 := model.ParseDirection(c.Direction)
	policy, err5 := scoring.ParsePolicy(c.MeanPolicy)
	var err6, err7 error
	if c.MinVotes < 0 {
		err6 = scoring.ErrInvalidMinVotes
	}
	if c.Parallelism < 1 && c.Parallelism != ParallelismDefault {
		err7 = fmt.Errorf("%w: got %d", engine.ErrInvalidParallelism, c.Parallelism)
	}
	if err := errors.Join(err1, err2, err3, err4, err5, err6, err7); err != nil {
		return Plan{}, err
	}

	score := ScoreParams{GlobalMean: c.FixedMean, MinVotes: c.MinVotes, Policy: policy}
	var plan Plan
	if c.TwoPhase {
		plan = TwoPhase(first, second, score)
	} else {
		plan = SinglePass(first, model.SortKey{Key: key, Direction: dir}, score)
	}
	for i := range plan.Passes {
		plan.Passes[i].Sort.Parallelism = c.Parallelism
	}
	return plan, nil
}

// FinalKey returns the key the last pass orders by.
func (p Plan) FinalKey() model.SortKey {
	if len(p.Passes) == 0 {
		return model.SortKey{}
	}
	return p.Passes[len(p.Passes)-1].Sort.SortKey()
}
