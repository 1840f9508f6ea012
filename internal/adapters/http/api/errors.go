package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/rankr/internal/adapters/repository"
	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/internal/domain/scoring"
	"github.com/okian/rankr/internal/domain/sorting"
	"github.com/okian/rankr/internal/engine"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrTooLarge    = errors.New("too many records")
	ErrRateLimited = errors.New("ranking rate exceeded")
)

// Error records the handler operation, the error kind and the cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	default:
		return e.Op
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap attaches op to err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind attaches op and kind to err.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// statusFor maps an error to its HTTP status and response code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, model.ErrUnknownKey),
		errors.Is(err, model.ErrUnknownDirection),
		errors.Is(err, sorting.ErrUnknownAlgorithm),
		errors.Is(err, sorting.ErrUnknownTieBreak),
		errors.Is(err, scoring.ErrUnknownPolicy),
		errors.Is(err, scoring.ErrInvalidMinVotes),
		errors.Is(err, engine.ErrInvalidParallelism):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrEmpty):
		return http.StatusNotFound, "no_ranking"
	case errors.Is(err, engine.ErrWorkerFailed):
		return http.StatusUnprocessableEntity, "worker_failed"
	case errors.Is(err, engine.ErrPassTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
