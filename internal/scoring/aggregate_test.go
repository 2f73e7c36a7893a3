package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/trendscout/uts-engine/internal/domain"
)

func allLayers(score float64) map[string]float64 {
	return map[string]float64{
		LayerViralLift:  score,
		LayerVelocity:   score,
		LayerRetention:  score,
		LayerCascade:    score,
		LayerSaturation: score,
		LayerStability:  score,
	}
}

func TestAggregateWeights(t *testing.T) {
	sum := 0.0
	for _, w := range Weights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("weights sum to %f, want 1.0", sum)
	}
}

func TestAggregate(t *testing.T) {
	t.Run("uniform layers", func(t *testing.T) {
		got, err := Aggregate(allLayers(60))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 60 {
			t.Errorf("Aggregate = %f, want 60", got)
		}
	})

	t.Run("weighted mix", func(t *testing.T) {
		layers := allLayers(0)
		layers[LayerViralLift] = 100 // weight 0.25
		layers[LayerVelocity] = 50   // weight 0.20
		got, err := Aggregate(layers)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 35 {
			t.Errorf("Aggregate = %f, want 35", got)
		}
	})

	t.Run("out-of-range layer clamps", func(t *testing.T) {
		layers := allLayers(50)
		layers[LayerCascade] = 250
		got, err := Aggregate(layers)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got < 0 || got > 100 {
			t.Errorf("Aggregate = %f, out of [0, 100]", got)
		}
	})

	t.Run("rounds to one decimal", func(t *testing.T) {
		got, err := Aggregate(allLayers(33.333))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 33.3 {
			t.Errorf("Aggregate = %f, want 33.3", got)
		}
	})
}

func TestAggregateMissingLayer(t *testing.T) {
	layers := allLayers(50)
	delete(layers, LayerStability)

	_, err := Aggregate(layers)
	if !errors.Is(err, domain.ErrIncompleteScoring) {
		t.Errorf("expected ErrIncompleteScoring, got %v", err)
	}
}

func TestAggregateNaNLayer(t *testing.T) {
	layers := allLayers(50)
	layers[LayerRetention] = math.NaN()

	_, err := Aggregate(layers)
	if !errors.Is(err, domain.ErrInvalidMetric) {
		t.Errorf("expected ErrInvalidMetric, got %v", err)
	}
}

func TestRankStable(t *testing.T) {
	entries := []Ranked{
		{VideoID: "a", Score: 40},
		{VideoID: "b", Score: 90},
		{VideoID: "c", Score: 40},
		{VideoID: "d", Score: 70},
	}

	got := Rank(entries)

	wantOrder := []string{"b", "d", "a", "c"}
	for i, want := range wantOrder {
		if got[i].VideoID != want {
			t.Errorf("position %d = %s, want %s (full: %v)", i, got[i].VideoID, want, got)
		}
	}

	// Input slice untouched.
	if entries[0].VideoID != "a" {
		t.Error("Rank mutated its input")
	}
}
