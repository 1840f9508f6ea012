package sorting

import (
	"context"

	"github.com/okian/rankr/internal/domain/model"
)

// HeapSort orders records in place.
//
// The heap keeps the record that orders last at its root (a min-heap when
// the output is descending), so repeatedly swapping the root to the end of
// the unsorted region leaves the requested order behind.
func HeapSort(ctx context.Context, records []model.Record, key model.SortKey) ([]model.Record, error) {
	if err := prepare(ctx, records, key); err != nil {
		return nil, err
	}

	n := len(records)
	for i := n/2 - 1; i >= 0; i-- {
		siftDown(records, i, n, key)
	}
	for end := n - 1; end > 0; end-- {
		records[0], records[end] = records[end], records[0]
		siftDown(records, 0, end, key)
	}
	return records, nil
}

// siftDown restores the heap property for the subtree rooted at i within
// records[:n].
func siftDown(records []model.Record, i, n int, key model.SortKey) {
	for {
		last := i
		left, right := 2*i+1, 2*i+2
		if left < n && key.Before(records[last], records[left]) {
			last = left
		}
		if right < n && key.Before(records[last], records[right]) {
			last = right
		}
		if last == i {
			return
		}
		records[i], records[last] = records[last], records[i]
		i = last
	}
}
