package service

import (
	"context"
	"fmt"

	"github.com/trendscout/uts-engine/internal/collector"
	"github.com/trendscout/uts-engine/internal/domain"
	"github.com/trendscout/uts-engine/internal/scoring"
)

// LightResult is the cheap single-video estimate returned without running
// the full layer pipeline.
type LightResult struct {
	VideoID          string  `json:"video_id"`
	SimpleViralScore float64 `json:"simple_viral_score"`
	EngagementRate   float64 `json:"engagement_rate"`
	PlayCount        int64   `json:"play_count"`
}

// LightAnalyze collects one fresh snapshot and computes the simple viral
// score from it. The snapshot is persisted so a later deep analysis starts
// with history. The minimum view floor applies here too.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: platform video identifier.
// Returns:
//   - *LightResult: the light estimate.
//   - error: collection, validation, or persistence failure.
func (s *AnalysisService) LightAnalyze(ctx context.Context, videoID string) (*LightResult, error) {
	if videoID == "" {
		return nil, fmt.Errorf("%w: empty video id", domain.ErrInvalidInput)
	}

	item, err := s.coll.CollectVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if err := s.videos.Upsert(ctx, &item.Video); err != nil {
		return nil, fmt.Errorf("failed to persist video: %w", err)
	}
	if err := s.videos.AppendSnapshot(ctx, &item.Snapshot); err != nil {
		return nil, err
	}

	if collector.BelowMinViews(item.Snapshot, s.cfg.MinViews) {
		return nil, fmt.Errorf("%w: %d plays is below the %d minimum",
			domain.ErrInvalidInput, item.Snapshot.PlayCount, s.cfg.MinViews)
	}

	stats, err := scoring.Normalize(item.Video.PostedAt, []domain.VideoMetricSnapshot{item.Snapshot})
	if err != nil {
		return nil, err
	}

	return &LightResult{
		VideoID:          videoID,
		SimpleViralScore: scoring.LightViralScore(stats),
		EngagementRate:   stats.EngagementRate,
		PlayCount:        stats.PlayCount,
	}, nil
}
