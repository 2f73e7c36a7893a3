package service

import (
	"context"

	"github.com/trendscout/uts-engine/internal/domain"
	"github.com/trendscout/uts-engine/internal/repository"
	"github.com/trendscout/uts-engine/internal/scoring"
)

// VideoQueryService serves read-side video queries: the ranked listing
// and per-video score detail.
type VideoQueryService struct {
	videos *repository.VideoRepository
}

// NewVideoQueryService creates a VideoQueryService.
func NewVideoQueryService(videos *repository.VideoRepository) *VideoQueryService {
	return &VideoQueryService{videos: videos}
}

// VideoDetail is a scored video with its snapshot history and the derived
// saturation label.
type VideoDetail struct {
	Video           domain.VideoRecord           `json:"video"`
	Snapshots       []domain.VideoMetricSnapshot `json:"snapshots"`
	SaturationLabel string                       `json:"saturation_label,omitempty"`
}

// SaturationLabel translates a 0-1 saturation sub-score to its
// human-readable trend label.
func SaturationLabel(score float64) string {
	if score > scoring.SaturationFreshThreshold {
		return "Fresh trend"
	}
	return "Getting saturated"
}

// ListRanked returns scored videos ordered by UTS score descending, with
// the total count for pagination.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: page size.
//   - offset: page start.
// Returns:
//   - []domain.VideoRecord: the page of ranked videos.
//   - int64: total number of scored videos.
//   - error: non-nil if the query fails.
func (s *VideoQueryService) ListRanked(ctx context.Context, limit, offset int) ([]domain.VideoRecord, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	videos, err := s.videos.ListScored(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.videos.CountScored(ctx)
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// GetDetail returns one video with its full snapshot history.
func (s *VideoQueryService) GetDetail(ctx context.Context, videoID string) (*VideoDetail, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.videos.Snapshots(ctx, videoID)
	if err != nil {
		return nil, err
	}
	detail := &VideoDetail{
		Video:     *video,
		Snapshots: snapshots,
	}
	if video.SaturationScore != nil {
		detail.SaturationLabel = SaturationLabel(*video.SaturationScore)
	}
	return detail, nil
}
