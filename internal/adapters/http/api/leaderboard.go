package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// handleLeaderboard handles GET /leaderboard?limit=N&unique=bool.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	q := r.URL.Query()

	n := defaultTop
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	if n > s.maxLimit {
		writeError(w, WrapKind(op, ErrBadRequest, errLimitExceeded(s.maxLimit)))
		return
	}

	unique := false
	if raw := q.Get("unique"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, WrapKind(op, ErrBadRequest, err))
			return
		}
		unique = v
	}

	entries, err := s.deps.TopN(r.Context(), n, unique)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func errLimitExceeded(maxLimit int) error {
	return fmt.Errorf("limit must be between 1 and %d", maxLimit)
}
