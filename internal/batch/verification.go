package batch

import (
	"errors"
	"fmt"

	"github.com/okian/rankr/internal/domain/model"
)

// ErrVerification marks a ranked output that does not match its input.
var ErrVerification = errors.New("ranking verification failed")

// Verify checks that out is ordered by key and holds exactly the records
// of in, matched by name, rating and votes.
func Verify(in, out []model.Record, key model.SortKey) error {
	if len(in) != len(out) {
		return fmt.Errorf("%w: %d records in, %d out", ErrVerification, len(in), len(out))
	}
	for i := 1; i < len(out); i++ {
		if key.Before(out[i], out[i-1]) {
			return fmt.Errorf("%w: position %d orders before position %d by %s", ErrVerification, i+1, i, key)
		}
	}

	type identity struct {
		name   string
		rating float64
		votes  int
	}
	counts := make(map[identity]int, len(in))
	for i := range in {
		counts[identity{in[i].Name, in[i].Rating, in[i].Votes}]++
	}
	for i := range out {
		id := identity{out[i].Name, out[i].Rating, out[i].Votes}
		if counts[id] == 0 {
			return fmt.Errorf("%w: %q at position %d is not in the input", ErrVerification, out[i].Name, i+1)
		}
		counts[id]--
	}
	return nil
}
