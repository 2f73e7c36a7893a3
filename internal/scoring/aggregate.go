package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/trendscout/uts-engine/internal/domain"
)

// Aggregate combines the six layer scores into the final 0-100 UTS score
// using the fixed Weights. All six layers must be present; a missing layer
// fails with IncompleteScoring rather than silently substituting a default
// (the scorer-level neutral fallbacks in layers.go are the only sanctioned
// defaults). The result is rounded to one decimal place.
func Aggregate(layers map[string]float64) (float64, error) {
	total := 0.0
	for name, weight := range Weights {
		score, ok := layers[name]
		if !ok {
			return 0, fmt.Errorf("%w: missing layer %q", domain.ErrIncompleteScoring, name)
		}
		if math.IsNaN(score) {
			return 0, fmt.Errorf("layer %q: %w", name, domain.ErrInvalidMetric)
		}
		total += weight * clamp(score)
	}
	return round1(total), nil
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Ranked is one entry of a ranked scoring batch.
type Ranked struct {
	VideoID string
	Score   float64
}

// Rank sorts videos by UTS score descending. Ties keep the input
// (insertion) order: the sort is stable, never random.
func Rank(entries []Ranked) []Ranked {
	out := make([]Ranked, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
