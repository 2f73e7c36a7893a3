// Package cluster groups videos by visual similarity of their CLIP-style
// cover embeddings using density-based (DBSCAN) clustering.
package cluster

import (
	"fmt"
	"math"

	"github.com/trendscout/uts-engine/internal/domain"
)

// Point pairs one video with its embedding vector. Input order matters:
// neighbor enumeration and cluster seeding follow it, which makes the run
// deterministic for a fixed input.
type Point struct {
	VideoID string
	Vector  []float32
}

// label values used during the scan. Unvisited points start at
// labelUndefined; noise points end at domain.NoiseClusterID (-1).
const labelUndefined = -2

// Run performs a DBSCAN pass over the batch and returns video_id ->
// cluster_id, with domain.NoiseClusterID for outliers reachable from no
// core point. A point is core when at least minPoints other points lie
// within Euclidean distance eps; clusters connect core points and their
// neighbors transitively.
//
// The pairwise scan is O(n^2), which is fine under the 500-video session
// cap; a spatial index could be added behind this signature if that cap
// ever moves.
func Run(points []Point, eps float64, minPoints int) (map[string]int, error) {
	if eps <= 0 || minPoints < 1 {
		return nil, fmt.Errorf("%w: eps=%v min_points=%d", domain.ErrInvalidParameters, eps, minPoints)
	}
	if len(points) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	dim := len(points[0].Vector)
	for i := range points {
		if len(points[i].Vector) != dim {
			return nil, fmt.Errorf("%w: vector %q has dimension %d, expected %d",
				domain.ErrInvalidParameters, points[i].VideoID, len(points[i].Vector), dim)
		}
	}

	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = labelUndefined
	}

	nextCluster := 0
	for i := range points {
		if labels[i] != labelUndefined {
			continue
		}

		neighbors := regionQuery(points, i, eps)
		if len(neighbors) < minPoints {
			labels[i] = domain.NoiseClusterID
			continue
		}

		clusterID := nextCluster
		nextCluster++
		labels[i] = clusterID

		// Expand the cluster over the seed set. The queue grows as new
		// core points contribute their neighborhoods.
		queue := append([]int(nil), neighbors...)
		for qi := 0; qi < len(queue); qi++ {
			j := queue[qi]
			if labels[j] == domain.NoiseClusterID {
				// Border point previously written off as noise.
				labels[j] = clusterID
				continue
			}
			if labels[j] != labelUndefined {
				continue
			}
			labels[j] = clusterID

			jNeighbors := regionQuery(points, j, eps)
			if len(jNeighbors) >= minPoints {
				queue = append(queue, jNeighbors...)
			}
		}
	}

	out := make(map[string]int, len(points))
	for i := range points {
		out[points[i].VideoID] = labels[i]
	}
	return out, nil
}

// regionQuery returns the indexes of all points other than i within eps of
// points[i], in input order.
func regionQuery(points []Point, i int, eps float64) []int {
	var neighbors []int
	for j := range points {
		if j == i {
			continue
		}
		if euclidean(points[i].Vector, points[j].Vector) <= eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

// euclidean computes the L2 distance between two equal-length vectors.
func euclidean(a, b []float32) float64 {
	sum := 0.0
	for k := range a {
		d := float64(a[k]) - float64(b[k])
		sum += d * d
	}
	return math.Sqrt(sum)
}
