package sorting

import (
	"context"

	"github.com/okian/rankr/internal/domain/model"
)

// segment is a half-open range [lo, hi) awaiting partitioning.
type segment struct {
	lo, hi int
}

// QuickSort orders records with a three-way partitioning quicksort.
//
// Segments wait on an explicit stack. The larger side of each partition is
// pushed and the loop continues on the smaller one, so the stack never holds
// more than log2(n) segments regardless of input order.
func QuickSort(ctx context.Context, records []model.Record, key model.SortKey) ([]model.Record, error) {
	if err := prepare(ctx, records, key); err != nil {
		return nil, err
	}

	stack := make([]segment, 0, 64)
	stack = append(stack, segment{0, len(records)})
	for len(stack) > 0 {
		seg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for seg.hi-seg.lo > 1 {
			lt, gt := partition3(records, seg.lo, seg.hi, key)
			before := segment{seg.lo, lt}
			after := segment{gt, seg.hi}
			if before.hi-before.lo < after.hi-after.lo {
				stack = append(stack, after)
				seg = before
			} else {
				stack = append(stack, before)
				seg = after
			}
		}
	}
	return records, nil
}

// partition3 splits records[lo:hi] around a pivot into the ranges
// [lo,lt) ordered before it, [lt,gt) equal to it and [gt,hi) after it.
func partition3(records []model.Record, lo, hi int, key model.SortKey) (lt, gt int) {
	pivot := key.Key.Value(records[medianOfThree(records, lo, hi, key)])
	dir := key.Direction

	lt, gt = lo, hi
	for i := lo; i < gt; {
		v := key.Key.Value(records[i])
		switch {
		case dir.Before(v, pivot):
			records[lt], records[i] = records[i], records[lt]
			lt++
			i++
		case dir.Before(pivot, v):
			gt--
			records[i], records[gt] = records[gt], records[i]
		default:
			i++
		}
	}
	return lt, gt
}

// medianOfThree picks the index holding the median of the first, middle and
// last keys of records[lo:hi].
func medianOfThree(records []model.Record, lo, hi int, key model.SortKey) int {
	a, b, c := lo, lo+(hi-lo)/2, hi-1
	va, vb, vc := key.Key.Value(records[a]), key.Key.Value(records[b]), key.Key.Value(records[c])
	switch {
	case (va <= vb && vb <= vc) || (vc <= vb && vb <= va):
		return b
	case (vb <= va && va <= vc) || (vc <= va && va <= vb):
		return a
	default:
		return c
	}
}
