package sorting

import (
	"fmt"
	"strings"

	"github.com/okian/rankr/internal/domain/model"
)

// TieBreak decides which side of a merge wins when keys are equal.
type TieBreak int

// Supported tie-break policies. TieLeft is the default.
const (
	// TieLeft takes the element from the first (left) sequence.
	TieLeft TieBreak = iota
	// TieRight takes the element from the second (right) sequence.
	TieRight
)

func (t TieBreak) String() string {
	if t == TieRight {
		return "right"
	}
	return "left"
}

// ParseTieBreak parses "left" or "right".
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left", "first":
		return TieLeft, nil
	case "right", "second":
		return TieRight, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTieBreak, s)
	}
}

// TwoWayMerge merges two sequences already sorted by key into a new slice.
func TwoWayMerge(a, b []model.Record, key model.SortKey, tie TieBreak) []model.Record {
	out := make([]model.Record, len(a)+len(b))
	mergeInto(out, a, b, key, tie)
	return out
}

// NWayReduce folds runs left to right through TwoWayMerge. The cost is
// O(k*n) for k runs, which is fine while k is the worker count.
func NWayReduce(runs [][]model.Record, key model.SortKey, tie TieBreak) []model.Record {
	if len(runs) == 0 {
		return []model.Record{}
	}
	acc := runs[0]
	for _, run := range runs[1:] {
		acc = TwoWayMerge(acc, run, key, tie)
	}
	if len(runs) == 1 {
		acc = model.Clone(acc)
	}
	return acc
}

// mergeInto writes the merge of a and b into dst, which must have room for
// len(a)+len(b) records and must not overlap either input.
func mergeInto(dst, a, b []model.Record, key model.SortKey, tie TieBreak) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		var takeB bool
		if tie == TieRight {
			takeB = !key.Before(a[i], b[j])
		} else {
			takeB = key.Before(b[j], a[i])
		}
		if takeB {
			dst[k] = b[j]
			j++
		} else {
			dst[k] = a[i]
			i++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}
