package batch

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/okian/rankr/internal/domain/model"
)

// Rating profiles for synthetic organizations.
const (
	profileAverage = iota
	profileLoved
	profilePoor
	profileNiche
	profilePopular
	profileCount
)

const maxVotes = 5000

// Generate returns n synthetic records. The same seed yields the same
// records. Roughly one name in twenty repeats an earlier one so unique
// listings have something to skip.
func Generate(n int, seed int64) []model.Record {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible synthetic data
	out := make([]model.Record, n)
	for i := range out {
		name := syntheticName(rng)
		if i > 0 && rng.Intn(20) == 0 {
			name = out[rng.Intn(i)].Name
		}
		rating, votes := profile(rng)
		out[i] = model.Record{Name: name, Rating: rating, Votes: votes}
	}
	return out
}

func syntheticName(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return uuid.NewString()
	}
	return "org-" + id.String()[:8]
}

// profile draws a rating in [1, 5] (one decimal) and a review count.
func profile(rng *rand.Rand) (float64, int) {
	var rating float64
	var votes int
	switch rng.Intn(profileCount) {
	case profileAverage:
		rating, votes = 3+rng.Float64(), rng.Intn(300)
	case profileLoved:
		rating, votes = 4.3+rng.Float64()*0.7, 200+rng.Intn(2000)
	case profilePoor:
		rating, votes = 1+rng.Float64()*1.5, rng.Intn(500)
	case profileNiche:
		rating, votes = 4.5+rng.Float64()*0.5, rng.Intn(15)
	default:
		rating, votes = 3.5+rng.Float64(), 1000+rng.Intn(maxVotes-1000)
	}
	return math.Round(min(rating, 5)*10) / 10, votes
}
