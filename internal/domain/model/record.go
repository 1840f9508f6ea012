// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Record is a rankable entity. Fields mirror the columns of the cleaned
// dataset (Organization, Rating, NumberReview, score).
type Record struct {
	Name   string  // stable identity, e.g. the organization name
	Rating float64 // raw rating in the collaborator's native range
	Votes  int     // review count, non-negative
	Score  float64 // confidence score attached by scoring
	Scored bool    // true once Score holds a computed value
}

// Key selects the numeric value a sort pass orders by.
type Key int

// Supported sort keys.
const (
	KeyScore Key = iota
	KeyRating
	KeyVotes
)

// Value projects r onto the key's numeric value.
func (k Key) Value(r Record) float64 { //nolint:gocritic // hugeParam: records are passed by value throughout the engine
	switch k {
	case KeyRating:
		return r.Rating
	case KeyVotes:
		return float64(r.Votes)
	default:
		return r.Score
	}
}

func (k Key) String() string {
	switch k {
	case KeyRating:
		return "rating"
	case KeyVotes:
		return "votes"
	case KeyScore:
		return "score"
	default:
		return fmt.Sprintf("key(%d)", int(k))
	}
}

// ParseKey accepts the canonical names and the column names used by the
// CSV datasets.
func ParseKey(s string) (Key, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "score", "puntuacion_total", "puntuacionconfianza", "confidence":
		return KeyScore, nil
	case "rating":
		return KeyRating, nil
	case "votes", "reviews", "review_count", "numberreview", "num_reviews":
		return KeyVotes, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}
}

// Direction is the ordering applied to a key. The zero value is Descending,
// the default for every ranking.
type Direction int

// Supported directions.
const (
	Descending Direction = iota
	Ascending
)

func (d Direction) String() string {
	if d == Ascending {
		return "asc"
	}
	return "desc"
}

// ParseDirection parses "asc"/"desc" (and their long forms).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending":
		return Descending, nil
	case "asc", "ascending":
		return Ascending, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
}

// Before reports whether key value a must be placed strictly before b.
func (d Direction) Before(a, b float64) bool {
	if d == Ascending {
		return a < b
	}
	return a > b
}

// SortKey pairs a key with a direction.
type SortKey struct {
	Key       Key
	Direction Direction
}

// Before reports whether record a orders strictly before record b.
func (s SortKey) Before(a, b Record) bool { //nolint:gocritic // hugeParam
	return s.Direction.Before(s.Key.Value(a), s.Key.Value(b))
}

func (s SortKey) String() string {
	return s.Key.String() + " " + s.Direction.String()
}

// Clone returns an owned copy of records.
func Clone(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
