// Package sorting implements the sequential sorters run by each worker and
// the merges that combine their sorted runs.
//
// Every sorter orders the slice it is given and returns the ordered slice;
// the caller must own that slice exclusively. Quicksort and heapsort are not
// stable. Mergesort is.
package sorting

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/okian/rankr/internal/domain/model"
)

// Algorithm names a sequential sorter.
type Algorithm string

// Supported algorithms.
const (
	AlgorithmQuick Algorithm = "quicksort"
	AlgorithmHeap  Algorithm = "heapsort"
	AlgorithmMerge Algorithm = "mergesort"
)

// Algorithms lists every supported algorithm.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmQuick, AlgorithmHeap, AlgorithmMerge}
}

// ParseAlgorithm normalizes an algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quicksort", "quick":
		return AlgorithmQuick, nil
	case "heapsort", "heap":
		return AlgorithmHeap, nil
	case "mergesort", "merge":
		return AlgorithmMerge, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

// Stable reports whether the algorithm preserves input order among equal keys.
func (a Algorithm) Stable() bool { return a == AlgorithmMerge }

// Sorter orders one chunk of records.
type Sorter interface {
	Sort(ctx context.Context, records []model.Record, key model.SortKey) ([]model.Record, error)
}

// SorterFunc adapts a function to the Sorter interface.
type SorterFunc func(ctx context.Context, records []model.Record, key model.SortKey) ([]model.Record, error)

// Sort calls f.
func (f SorterFunc) Sort(ctx context.Context, records []model.Record, key model.SortKey) ([]model.Record, error) {
	return f(ctx, records, key)
}

// For returns the sorter implementing alg.
func For(alg Algorithm) (Sorter, error) {
	switch alg {
	case AlgorithmQuick:
		return SorterFunc(QuickSort), nil
	case AlgorithmHeap:
		return SorterFunc(HeapSort), nil
	case AlgorithmMerge:
		return SorterFunc(MergeSort), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(alg))
	}
}

// checkComparable rejects key values that have no total order (NaN).
func checkComparable(records []model.Record, key model.SortKey) error {
	for i := range records {
		if math.IsNaN(key.Key.Value(records[i])) {
			return fmt.Errorf("%w: record %q has NaN %s", ErrIncomparable, records[i].Name, key.Key)
		}
	}
	return nil
}

// prepare runs the checks shared by every sorter.
func prepare(ctx context.Context, records []model.Record, key model.SortKey) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sort cancelled: %w", err)
	}
	return checkComparable(records, key)
}
