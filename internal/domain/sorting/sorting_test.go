package sorting_test

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/internal/domain/sorting"
	"github.com/stretchr/testify/require"
)

var (
	descScore = model.SortKey{Key: model.KeyScore, Direction: model.Descending}
	ascVotes  = model.SortKey{Key: model.KeyVotes, Direction: model.Ascending}
)

// distinctRecords returns n records with distinct scores in shuffled order.
func distinctRecords(n int, seed int64) []model.Record {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test data
	out := make([]model.Record, n)
	for i, p := range rng.Perm(n) {
		out[i] = model.Record{
			Name:   fmt.Sprintf("r-%05d", p),
			Rating: float64(p%50) / 10,
			Votes:  p,
			Score:  float64(p) / 7,
			Scored: true,
		}
	}
	return out
}

// duplicateRecords returns n records whose scores repeat heavily.
func duplicateRecords(n int, seed int64) []model.Record {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test data
	out := make([]model.Record, n)
	for i := range out {
		out[i] = model.Record{
			Name:  fmt.Sprintf("d-%05d", i),
			Votes: rng.Intn(5),
			Score: float64(rng.Intn(4)),
		}
	}
	return out
}

func names(records []model.Record) []string {
	out := make([]string, len(records))
	for i := range records {
		out[i] = records[i].Name
	}
	return out
}

func requireOrdered(t *testing.T, records []model.Record, key model.SortKey) {
	t.Helper()
	for i := 1; i < len(records); i++ {
		require.False(t, key.Before(records[i], records[i-1]),
			"position %d (%v) orders before position %d (%v)", i, key.Key.Value(records[i]), i-1, key.Key.Value(records[i-1]))
	}
}

func sortWith(t *testing.T, alg sorting.Algorithm, in []model.Record, key model.SortKey) []model.Record {
	t.Helper()
	s, err := sorting.For(alg)
	require.NoError(t, err)
	out, err := s.Sort(context.Background(), model.Clone(in), key)
	require.NoError(t, err)
	return out
}

func TestSorters_OrderAndPreserveRecords(t *testing.T) {
	sizes := []int{0, 1, 2, 3, 10, 257, 5000}
	for _, alg := range sorting.Algorithms() {
		for _, n := range sizes {
			t.Run(fmt.Sprintf("%s/%d", alg, n), func(t *testing.T) {
				in := duplicateRecords(n, int64(n))
				out := sortWith(t, alg, in, descScore)

				require.Len(t, out, n)
				require.ElementsMatch(t, names(in), names(out))
				requireOrdered(t, out, descScore)
			})
		}
	}
}

func TestSorters_AgreeOnDistinctKeys(t *testing.T) {
	in := distinctRecords(3000, 7)
	for _, key := range []model.SortKey{descScore, ascVotes} {
		want := names(sortWith(t, sorting.AlgorithmMerge, in, key))
		for _, alg := range []sorting.Algorithm{sorting.AlgorithmQuick, sorting.AlgorithmHeap} {
			require.Equal(t, want, names(sortWith(t, alg, in, key)), "%s by %s", alg, key)
		}
	}
}

func TestSorters_Idempotent(t *testing.T) {
	in := duplicateRecords(1000, 3)
	for _, alg := range sorting.Algorithms() {
		once := sortWith(t, alg, in, descScore)
		twice := sortWith(t, alg, once, descScore)
		requireOrdered(t, twice, descScore)
		if alg.Stable() {
			require.Equal(t, names(once), names(twice), alg)
		}
	}
}

func TestMergeSort_Stable(t *testing.T) {
	in := duplicateRecords(2000, 11)
	out := sortWith(t, sorting.AlgorithmMerge, in, descScore)

	pos := make(map[string]int, len(in))
	for i := range in {
		pos[in[i].Name] = i
	}
	for i := 1; i < len(out); i++ {
		if out[i].Score == out[i-1].Score {
			require.Less(t, pos[out[i-1].Name], pos[out[i].Name], "equal keys reordered at %d", i)
		}
	}
}

func TestQuickSort_LargeSortedInput(t *testing.T) {
	// Already ordered and constant inputs are the classic worst cases for a
	// naive recursive quicksort.
	const n = 300_000
	sorted := make([]model.Record, n)
	constant := make([]model.Record, n)
	for i := range sorted {
		sorted[i] = model.Record{Name: fmt.Sprint(i), Score: float64(n - i)}
		constant[i] = model.Record{Name: fmt.Sprint(i), Score: 1}
	}

	out, err := sorting.QuickSort(context.Background(), sorted, descScore)
	require.NoError(t, err)
	requireOrdered(t, out, descScore)

	out, err = sorting.QuickSort(context.Background(), constant, descScore)
	require.NoError(t, err)
	require.Len(t, out, n)
}

func TestSorters_RejectNaN(t *testing.T) {
	in := []model.Record{{Name: "ok", Score: 1}, {Name: "bad", Score: math.NaN()}}
	for _, alg := range sorting.Algorithms() {
		s, err := sorting.For(alg)
		require.NoError(t, err)
		_, err = s.Sort(context.Background(), model.Clone(in), descScore)
		require.ErrorIs(t, err, sorting.ErrIncomparable, alg)
	}
}

func TestSorters_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sorting.HeapSort(ctx, distinctRecords(10, 1), descScore)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseAlgorithm(t *testing.T) {
	for in, want := range map[string]sorting.Algorithm{
		"quicksort": sorting.AlgorithmQuick,
		"Heap":      sorting.AlgorithmHeap,
		" merge ":   sorting.AlgorithmMerge,
	} {
		got, err := sorting.ParseAlgorithm(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := sorting.ParseAlgorithm("bubblesort")
	require.ErrorIs(t, err, sorting.ErrUnknownAlgorithm)

	_, err = sorting.For(sorting.Algorithm("timsort"))
	require.ErrorIs(t, err, sorting.ErrUnknownAlgorithm)
}
