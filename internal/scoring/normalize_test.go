package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/trendscout/uts-engine/internal/domain"
)

func snap(capturedAt time.Time, plays, digg, comment, share, save int64) domain.VideoMetricSnapshot {
	return domain.VideoMetricSnapshot{
		VideoID:      "v1",
		CapturedAt:   capturedAt,
		PlayCount:    plays,
		DiggCount:    digg,
		CommentCount: comment,
		ShareCount:   share,
		SaveCount:    save,
	}
}

func TestNormalizeEmptySequence(t *testing.T) {
	_, err := Normalize(time.Now(), nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNormalizeRejectsNegativeCounters(t *testing.T) {
	posted := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	bad := snap(posted.Add(time.Hour), 1000, -5, 0, 0, 0)

	_, err := Normalize(posted, []domain.VideoMetricSnapshot{bad})
	if !errors.Is(err, domain.ErrInvalidMetric) {
		t.Errorf("expected ErrInvalidMetric, got %v", err)
	}
}

func TestNormalizeUsesLatestSnapshot(t *testing.T) {
	posted := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	history := []domain.VideoMetricSnapshot{
		snap(posted.Add(1*time.Hour), 1000, 10, 5, 5, 0),
		snap(posted.Add(6*time.Hour), 10000, 300, 100, 50, 50),
	}

	stats, err := Normalize(posted, history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.PlayCount != 10000 {
		t.Errorf("PlayCount = %d, want 10000", stats.PlayCount)
	}
	if want := 500.0 / 10000; math.Abs(stats.EngagementRate-want) > 1e-9 {
		t.Errorf("EngagementRate = %f, want %f", stats.EngagementRate, want)
	}
	if math.Abs(stats.HoursSincePost-6) > 1e-9 {
		t.Errorf("HoursSincePost = %f, want 6", stats.HoursSincePost)
	}
}

func TestNormalizeClampsNegativeAge(t *testing.T) {
	posted := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	// Captured before the claimed post time (clock skew upstream).
	history := []domain.VideoMetricSnapshot{
		snap(posted.Add(-time.Hour), 5000, 10, 10, 10, 10),
	}

	stats, err := Normalize(posted, history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.HoursSincePost != 0 {
		t.Errorf("HoursSincePost = %f, want 0", stats.HoursSincePost)
	}
}

func TestNormalizeZeroPlays(t *testing.T) {
	posted := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	history := []domain.VideoMetricSnapshot{
		snap(posted.Add(time.Hour), 0, 0, 0, 0, 0),
	}

	stats, err := Normalize(posted, history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.EngagementRate != 0 {
		t.Errorf("EngagementRate = %f, want 0", stats.EngagementRate)
	}
}

func TestLightViralScore(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want float64
	}{
		{name: "typical engagement", rate: 0.05, want: 50},
		{name: "low engagement", rate: 0.002, want: 2},
		{name: "capped at 100", rate: 0.5, want: 100},
		{name: "zero engagement", rate: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LightViralScore(NormalizedStats{EngagementRate: tt.rate})
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("LightViralScore = %f, want %f", got, tt.want)
			}
		})
	}
}
