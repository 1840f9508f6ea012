package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/internal/domain/types"
)

// Client talks to a running rankr server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type remoteRecord struct {
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
	Votes  int     `json:"votes"`
}

type remoteRequest struct {
	Records         []remoteRecord `json:"records"`
	TwoPhase        bool           `json:"two_phase"`
	Algorithm       string         `json:"algorithm,omitempty"`
	SecondAlgorithm string         `json:"second_algorithm,omitempty"`
	Key             string         `json:"key,omitempty"`
	Direction       string         `json:"direction,omitempty"`
	Parallelism     int            `json:"parallelism"`
	MinVotes        float64        `json:"min_votes"`
	MeanPolicy      string         `json:"mean_policy,omitempty"`
	FixedMean       float64        `json:"fixed_mean"`
	Top             int            `json:"top,omitempty"`
}

// RemoteResult is the server's answer to a ranking request.
type RemoteResult struct {
	Summary types.RunSummary `json:"summary"`
	Top     []types.Entry    `json:"top"`
}

type remoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// Rank posts records with cfg's plan to POST /rankings.
func (c *Client) Rank(ctx context.Context, records []model.Record, cfg *Config) (RemoteResult, error) {
	req := remoteRequest{
		Records:         make([]remoteRecord, len(records)),
		TwoPhase:        cfg.TwoPhase,
		Algorithm:       cfg.Algorithm,
		SecondAlgorithm: cfg.SecondAlgorithm,
		Key:             cfg.Key,
		Direction:       cfg.Direction,
		Parallelism:     cfg.Parallelism,
		MinVotes:        cfg.MinVotes,
		MeanPolicy:      cfg.MeanPolicy,
		FixedMean:       cfg.FixedMean,
	}
	for i := range records {
		req.Records[i] = remoteRecord{Name: records[i].Name, Rating: records[i].Rating, Votes: records[i].Votes}
	}
	var res RemoteResult
	if err := c.do(ctx, http.MethodPost, "/rankings", req, &res); err != nil {
		return RemoteResult{}, err
	}
	return res, nil
}

// Leaderboard fetches GET /leaderboard.
func (c *Client) Leaderboard(ctx context.Context, limit int, unique bool) ([]types.Entry, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("unique", strconv.FormatBool(unique))
	var entries []types.Entry
	if err := c.do(ctx, http.MethodGet, "/leaderboard?"+q.Encode(), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		var e remoteError
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Message == "" {
			return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d: %s: %s", method, path, resp.StatusCode, e.Code, e.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
