package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/rankr/internal/app"
	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/internal/domain/scoring"
	"github.com/okian/rankr/internal/domain/sorting"
	"github.com/okian/rankr/internal/domain/types"
	"github.com/okian/rankr/internal/engine"
	"github.com/okian/rankr/pkg/logger"
)

type recordRequest struct {
	Name   string   `json:"name"`
	Rating float64  `json:"rating"`
	Votes  int      `json:"votes"`
	Score  *float64 `json:"score,omitempty"`
}

// rankingRequest is the POST /rankings body. Omitted fields use the server
// defaults.
type rankingRequest struct {
	Records         []recordRequest `json:"records"`
	TwoPhase        *bool           `json:"two_phase,omitempty"`
	Algorithm       string          `json:"algorithm,omitempty"`
	SecondAlgorithm string          `json:"second_algorithm,omitempty"`
	Key             string          `json:"key,omitempty"`
	Direction       string          `json:"direction,omitempty"`
	Parallelism     *int            `json:"parallelism,omitempty"`
	MinVotes        *float64        `json:"min_votes,omitempty"`
	MeanPolicy      string          `json:"mean_policy,omitempty"`
	FixedMean       *float64        `json:"fixed_mean,omitempty"`
	Top             int             `json:"top,omitempty"`
}

type rankingResponse struct {
	Summary types.RunSummary `json:"summary"`
	Top     []Entry          `json:"top"`
}

func (req *rankingRequest) records() ([]model.Record, error) {
	out := make([]model.Record, len(req.Records))
	for i, r := range req.Records {
		name := strings.TrimSpace(r.Name)
		switch {
		case name == "":
			return nil, fmt.Errorf("record %d: missing name", i)
		case r.Votes < 0:
			return nil, fmt.Errorf("record %d: negative votes", i)
		}
		out[i] = model.Record{Name: name, Rating: r.Rating, Votes: r.Votes}
		if r.Score != nil {
			out[i].Score = *r.Score
			out[i].Scored = true
		}
	}
	return out, nil
}

func (req *rankingRequest) plan(d Defaults) (service.Plan, error) { //nolint:gocritic // hugeParam
	score := d.Score
	if req.MinVotes != nil {
		score.MinVotes = *req.MinVotes
	}
	if req.FixedMean != nil {
		score.GlobalMean = *req.FixedMean
	}
	if req.MeanPolicy != "" {
		p, err := scoring.ParsePolicy(req.MeanPolicy)
		if err != nil {
			return service.Plan{}, err
		}
		score.Policy = p
	}

	first, second := d.Algorithm, d.SecondAlgorithm
	var errs []error
	if req.Algorithm != "" {
		a, err := sorting.ParseAlgorithm(req.Algorithm)
		errs = append(errs, err)
		first = a
	}
	if req.SecondAlgorithm != "" {
		a, err := sorting.ParseAlgorithm(req.SecondAlgorithm)
		errs = append(errs, err)
		second = a
	}
	key := d.Key
	if req.Key != "" {
		k, err := model.ParseKey(req.Key)
		errs = append(errs, err)
		key.Key = k
	}
	if req.Direction != "" {
		dir, err := model.ParseDirection(req.Direction)
		errs = append(errs, err)
		key.Direction = dir
	}
	if err := errors.Join(errs...); err != nil {
		return service.Plan{}, err
	}

	twoPhase := d.TwoPhase
	if req.TwoPhase != nil {
		twoPhase = *req.TwoPhase
	}
	var plan service.Plan
	if twoPhase {
		plan = service.TwoPhase(first, second, score)
	} else {
		plan = service.SinglePass(first, key, score)
	}

	parallelism := d.Parallelism
	if req.Parallelism != nil {
		if *req.Parallelism < 1 {
			return service.Plan{}, fmt.Errorf("%w: got %d", engine.ErrInvalidParallelism, *req.Parallelism)
		}
		parallelism = *req.Parallelism
	}
	for i := range plan.Passes {
		plan.Passes[i].Sort.Parallelism = parallelism
	}
	return plan, nil
}

// handleRankings handles POST /rankings: run a plan over the posted
// records, publish the result and return the summary with the top rows.
func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_rankings"
	ctx := r.Context()

	var req rankingRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, WrapKind(op, ErrTooLarge, err))
			return
		}
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Records) > s.maxRecords {
		writeError(w, WrapKind(op, ErrTooLarge, fmt.Errorf("%d records, limit %d", len(req.Records), s.maxRecords)))
		return
	}
	if req.Top < 0 || req.Top > s.maxLimit {
		writeError(w, WrapKind(op, ErrBadRequest, errLimitExceeded(s.maxLimit)))
		return
	}

	records, err := req.records()
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	plan, err := req.plan(s.defaults)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := s.deps.Run(ctx, records, plan)
	if err != nil {
		s.logger.Warn(ctx, "ranking request failed", logger.Error(err))
		writeError(w, Wrap(op, err))
		return
	}

	resp := rankingResponse{Summary: res.Summary, Top: []Entry{}}
	if len(records) > 0 {
		top := req.Top
		if top == 0 {
			top = defaultTop
		}
		entries, err := res.Top(ctx, top, false)
		if err != nil {
			writeError(w, Wrap(op, err))
			return
		}
		resp.Top = entries
	}
	writeJSON(w, http.StatusCreated, resp)
}
