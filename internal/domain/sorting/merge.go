package sorting

import (
	"context"

	"github.com/okian/rankr/internal/domain/model"
)

// MergeSort is an iterative bottom-up mergesort. Runs of width 1, 2, 4, ...
// are merged pairwise between two buffers until one run covers the input.
// Ties always favor the left run, which makes the sort stable.
func MergeSort(ctx context.Context, records []model.Record, key model.SortKey) ([]model.Record, error) {
	if err := prepare(ctx, records, key); err != nil {
		return nil, err
	}

	n := len(records)
	if n < 2 {
		return records, nil
	}

	src := records
	dst := make([]model.Record, n)
	for width := 1; width < n; width *= 2 {
		for lo := 0; lo < n; lo += 2 * width {
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeInto(dst[lo:hi], src[lo:mid], src[mid:hi], key, TieLeft)
		}
		src, dst = dst, src
	}
	return src, nil
}
