// Package api exposes the ranking service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/okian/rankr/internal/adapters/http/swagger"
	service "github.com/okian/rankr/internal/app"
	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/internal/domain/types"
	"github.com/okian/rankr/pkg/logger"
	"github.com/okian/rankr/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Run executes a ranking plan and publishes the result.
	Run(ctx context.Context, records []model.Record, plan service.Plan) (service.Result, error)

	// Read operations expose the published ranking.
	TopN(ctx context.Context, n int, unique bool) ([]Entry, error)
	Rank(ctx context.Context, name string) (Entry, error)
	Stats(ctx context.Context) types.Stats
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the ranking API.
type Server struct {
	deps       Dependencies
	defaults   Defaults
	maxLimit   int
	maxRecords int
	maxBody    int64
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:       deps,
		defaults:   DefaultDefaults(),
		maxLimit:   defaultMaxLimit,
		maxRecords: defaultMaxRecords,
		maxBody:    defaultMaxBody,
		timeout:    defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	return s
}

// Handler returns the router with every route and middleware attached.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(Tracing)
	r.Use(Metrics)
	r.Use(s.requestLog)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	r.Get("/stats", s.handleStats)
	r.Get("/leaderboard", s.handleLeaderboard)
	r.Get("/rank/{name}", s.handleRank)
	r.With(s.rateLimit, middleware.Timeout(s.timeout)).Post("/rankings", s.handleRankings)
	swagger.Register(r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
