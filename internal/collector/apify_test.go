package collector

import (
	"testing"
	"time"

	"github.com/trendscout/uts-engine/internal/domain"
)

func TestPickCount(t *testing.T) {
	tests := []struct {
		name   string
		flat   int64
		nested int64
		want   int64
	}{
		{"flat wins", 100, 50, 100},
		{"nested fallback", 0, 50, 50},
		{"both zero", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickCount(tt.flat, tt.nested); got != tt.want {
				t.Errorf("pickCount(%d, %d) = %d, want %d", tt.flat, tt.nested, got, tt.want)
			}
		})
	}
}

func TestToCollected(t *testing.T) {
	posted := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	item := actorItem{
		ID:          "v1",
		Text:        "dance challenge",
		WebVideoURL: "https://example.com/v1",
		CreateTime:  posted.Unix(),
	}
	item.Stats.PlayCount = 120000
	item.Stats.DiggCount = 8000
	item.PlayCount = 0 // older actor shape: counters only under stats
	item.AuthorMeta.ID = "author-1"
	item.AuthorMeta.Fans = 54321
	item.MusicMeta.MusicID = "sound-9"
	item.VideoMeta.Duration = 45
	item.VideoMeta.CoverURL = "https://example.com/cover.jpg"

	capturedAt := time.Now().UTC()
	got := item.toCollected(capturedAt)

	if got.Video.VideoID != "v1" || got.Snapshot.VideoID != "v1" {
		t.Errorf("video id not propagated: %q / %q", got.Video.VideoID, got.Snapshot.VideoID)
	}
	if !got.Video.PostedAt.Equal(posted) {
		t.Errorf("posted at = %v, want %v", got.Video.PostedAt, posted)
	}
	if got.Video.AuthorFollowers != 54321 {
		t.Errorf("author followers = %d, want 54321", got.Video.AuthorFollowers)
	}
	if got.Video.SoundID != "sound-9" {
		t.Errorf("sound id = %q, want sound-9", got.Video.SoundID)
	}
	if got.Video.DurationSec != 45 {
		t.Errorf("duration = %d, want 45", got.Video.DurationSec)
	}
	if got.Snapshot.PlayCount != 120000 {
		t.Errorf("play count = %d, want 120000 from nested stats", got.Snapshot.PlayCount)
	}
	if got.Snapshot.DiggCount != 8000 {
		t.Errorf("digg count = %d, want 8000 from nested stats", got.Snapshot.DiggCount)
	}
	if !got.Snapshot.CapturedAt.Equal(capturedAt) {
		t.Errorf("captured at = %v, want %v", got.Snapshot.CapturedAt, capturedAt)
	}
	if err := got.Snapshot.Validate(); err != nil {
		t.Errorf("snapshot should be valid: %v", err)
	}
}

func TestToCollectedZeroCreateTime(t *testing.T) {
	item := actorItem{ID: "v2"}
	got := item.toCollected(time.Now())
	if !got.Video.PostedAt.IsZero() {
		t.Errorf("posted at = %v, want zero for missing createTime", got.Video.PostedAt)
	}
}

func TestBelowMinViews(t *testing.T) {
	tests := []struct {
		name     string
		plays    int64
		minViews int64
		want     bool
	}{
		{"above floor", 10000, 5000, false},
		{"exactly at floor", 5000, 5000, false},
		{"below floor", 4999, 5000, true},
		{"floor disabled", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := domain.VideoMetricSnapshot{PlayCount: tt.plays}
			if got := BelowMinViews(snapshot, tt.minViews); got != tt.want {
				t.Errorf("BelowMinViews(plays=%d, min=%d) = %v, want %v", tt.plays, tt.minViews, got, tt.want)
			}
		})
	}
}
