package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/trendscout/uts-engine/internal/domain"
)

// NormalizedStats is the comparable view of a video's raw counters,
// computed from its latest snapshot.
type NormalizedStats struct {
	PlayCount    int64
	DiggCount    int64
	CommentCount int64
	ShareCount   int64
	SaveCount    int64

	// EngagementRate is (digg+comment+share+save) / max(play, 1).
	EngagementRate float64

	// HoursSincePost is measured from postedAt to the latest snapshot.
	HoursSincePost float64
}

// Normalize converts an ordered snapshot sequence into NormalizedStats.
// Deterministic, no side effects, no I/O. An empty sequence fails with
// ErrInvalidInput; malformed counters fail with ErrInvalidMetric.
func Normalize(postedAt time.Time, snapshots []domain.VideoMetricSnapshot) (NormalizedStats, error) {
	if len(snapshots) == 0 {
		return NormalizedStats{}, fmt.Errorf("%w: empty snapshot sequence", domain.ErrInvalidInput)
	}

	for i := range snapshots {
		if err := snapshots[i].Validate(); err != nil {
			return NormalizedStats{}, fmt.Errorf("snapshot %d: %w", i, err)
		}
	}

	latest := snapshots[len(snapshots)-1]
	plays := latest.PlayCount
	rate := float64(latest.EngagementTotal()) / math.Max(float64(plays), 1)

	hours := latest.CapturedAt.Sub(postedAt).Hours()
	if hours < 0 {
		hours = 0
	}

	return NormalizedStats{
		PlayCount:      plays,
		DiggCount:      latest.DiggCount,
		CommentCount:   latest.CommentCount,
		ShareCount:     latest.ShareCount,
		SaveCount:      latest.SaveCount,
		EngagementRate: rate,
		HoursSincePost: hours,
	}, nil
}

// LightViralScore is the single-pass score used by light analyze: percent
// engagement times ten, capped at 100. No history required.
func LightViralScore(stats NormalizedStats) float64 {
	return math.Min(stats.EngagementRate*100*10, 100)
}
