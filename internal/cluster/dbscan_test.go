package cluster

import (
	"errors"
	"fmt"
	"testing"

	"github.com/trendscout/uts-engine/internal/domain"
)

// blob generates n points jittered around a 2D center. Tiny offsets keep
// every pair inside the same blob within eps of each other.
func blob(prefix string, cx, cy float32, n int) []Point {
	points := make([]Point, n)
	for i := range points {
		offset := float32(i) * 0.01
		points[i] = Point{
			VideoID: fmt.Sprintf("%s-%d", prefix, i),
			Vector:  []float32{cx + offset, cy},
		}
	}
	return points
}

func TestRunValidatesParameters(t *testing.T) {
	points := blob("a", 0, 0, 3)

	tests := []struct {
		name      string
		eps       float64
		minPoints int
	}{
		{name: "zero eps", eps: 0, minPoints: 3},
		{name: "negative eps", eps: -1, minPoints: 3},
		{name: "zero minPoints", eps: 0.5, minPoints: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(points, tt.eps, tt.minPoints)
			if !errors.Is(err, domain.ErrInvalidParameters) {
				t.Errorf("expected ErrInvalidParameters, got %v", err)
			}
		})
	}
}

func TestRunEmptyBatch(t *testing.T) {
	_, err := Run(nil, 0.5, 3)
	if !errors.Is(err, domain.ErrEmptyBatch) {
		t.Errorf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestRunDimensionMismatch(t *testing.T) {
	points := []Point{
		{VideoID: "a", Vector: []float32{1, 2}},
		{VideoID: "b", Vector: []float32{1, 2, 3}},
	}
	_, err := Run(points, 0.5, 1)
	if !errors.Is(err, domain.ErrInvalidParameters) {
		t.Errorf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestRunTwoBlobsAndNoise(t *testing.T) {
	var points []Point
	points = append(points, blob("left", 0, 0, 5)...)
	points = append(points, blob("right", 10, 10, 5)...)
	points = append(points, Point{VideoID: "outlier", Vector: []float32{100, -100}})

	labels, err := Run(points, 0.5, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(labels) != len(points) {
		t.Fatalf("labels for %d points, want %d", len(labels), len(points))
	}

	// All left-blob members share one cluster, all right-blob members
	// another, and the two differ.
	leftLabel := labels["left-0"]
	rightLabel := labels["right-0"]
	if leftLabel == domain.NoiseClusterID || rightLabel == domain.NoiseClusterID {
		t.Fatalf("blob members labeled noise: left=%d right=%d", leftLabel, rightLabel)
	}
	if leftLabel == rightLabel {
		t.Errorf("distinct blobs share cluster %d", leftLabel)
	}
	for i := 0; i < 5; i++ {
		if got := labels[fmt.Sprintf("left-%d", i)]; got != leftLabel {
			t.Errorf("left-%d = %d, want %d", i, got, leftLabel)
		}
		if got := labels[fmt.Sprintf("right-%d", i)]; got != rightLabel {
			t.Errorf("right-%d = %d, want %d", i, got, rightLabel)
		}
	}

	if labels["outlier"] != domain.NoiseClusterID {
		t.Errorf("outlier = %d, want %d", labels["outlier"], domain.NoiseClusterID)
	}
}

func TestRunAllNoiseWhenSparse(t *testing.T) {
	points := []Point{
		{VideoID: "a", Vector: []float32{0, 0}},
		{VideoID: "b", Vector: []float32{5, 5}},
		{VideoID: "c", Vector: []float32{-5, 5}},
	}

	labels, err := Run(points, 0.5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for id, label := range labels {
		if label != domain.NoiseClusterID {
			t.Errorf("%s = %d, want noise", id, label)
		}
	}
}

func TestRunMinPointsCountsOthers(t *testing.T) {
	// Three mutually-close points: each has exactly 2 OTHER neighbors, so
	// minPoints=2 forms a cluster but minPoints=3 does not.
	points := blob("p", 0, 0, 3)

	labels, err := Run(points, 0.5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for id, label := range labels {
		if label == domain.NoiseClusterID {
			t.Errorf("%s labeled noise with minPoints=2", id)
		}
	}

	labels, err = Run(points, 0.5, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for id, label := range labels {
		if label != domain.NoiseClusterID {
			t.Errorf("%s = %d, want noise with minPoints=3", id, label)
		}
	}
}

func TestRunDeterministic(t *testing.T) {
	var points []Point
	points = append(points, blob("a", 0, 0, 4)...)
	points = append(points, blob("b", 3, 3, 4)...)

	first, err := Run(points, 0.5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := Run(points, 0.5, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for id, label := range first {
			if again[id] != label {
				t.Fatalf("run %d: %s = %d, first run had %d", i, id, again[id], label)
			}
		}
	}
}

func TestRunSinglePoint(t *testing.T) {
	labels, err := Run([]Point{{VideoID: "only", Vector: []float32{1, 1}}}, 0.5, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels["only"] != domain.NoiseClusterID {
		t.Errorf("lone point = %d, want noise", labels["only"])
	}
}
