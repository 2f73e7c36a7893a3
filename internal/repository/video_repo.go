package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trendscout/uts-engine/internal/domain"
)

// VideoRepository handles video record and snapshot persistence.
type VideoRepository struct {
	db *gorm.DB
}

// NewVideoRepository creates a new VideoRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *VideoRepository: repository instance bound to db.
func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Upsert creates or updates a video record keyed by video_id.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - video: record to create or update.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *VideoRepository) Upsert(ctx context.Context, video *domain.VideoRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}},
		UpdateAll: true,
	}).Omit("Snapshots").Create(video).Error
}

// Update saves an existing video record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - video: record with updated fields.
// Returns:
//   - error: non-nil if the update fails.
func (r *VideoRepository) Update(ctx context.Context, video *domain.VideoRecord) error {
	return r.db.WithContext(ctx).Omit("Snapshots").Save(video).Error
}

// GetByID retrieves a video record by its ID, without snapshots.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: video ID.
// Returns:
//   - *domain.VideoRecord: record if found.
//   - error: domain.ErrNotFound if missing, non-nil on other failures.
func (r *VideoRepository) GetByID(ctx context.Context, videoID string) (*domain.VideoRecord, error) {
	var video domain.VideoRecord
	if err := r.db.WithContext(ctx).First(&video, "video_id = ?", videoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("video %s: %w", videoID, domain.ErrNotFound)
		}
		return nil, err
	}
	return &video, nil
}

// GetByIDs retrieves video records by a list of IDs.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoIDs: list of video IDs.
// Returns:
//   - []domain.VideoRecord: matching records.
//   - error: non-nil if the query fails.
func (r *VideoRepository) GetByIDs(ctx context.Context, videoIDs []string) ([]domain.VideoRecord, error) {
	if len(videoIDs) == 0 {
		return []domain.VideoRecord{}, nil
	}
	var videos []domain.VideoRecord
	if err := r.db.WithContext(ctx).Where("video_id IN ?", videoIDs).Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("failed to get videos by IDs: %w", err)
	}
	return videos, nil
}

// AppendSnapshot appends one measurement to a video's ordered sequence.
// Snapshots are insert-only; time order equals insertion order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - snapshot: measurement to append.
// Returns:
//   - error: non-nil if validation or the insert fails.
func (r *VideoRepository) AppendSnapshot(ctx context.Context, snapshot *domain.VideoMetricSnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(snapshot).Error
}

// Snapshots returns a video's measurements in capture order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: video ID.
// Returns:
//   - []domain.VideoMetricSnapshot: ordered snapshot sequence.
//   - error: non-nil if the query fails.
func (r *VideoRepository) Snapshots(ctx context.Context, videoID string) ([]domain.VideoMetricSnapshot, error) {
	var snapshots []domain.VideoMetricSnapshot
	if err := r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("captured_at ASC, id ASC").
		Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// ListScored returns scored videos ordered by UTS score descending. Ties
// break on insertion order (created_at, then video_id) so paginated
// listings stay deterministic across drivers.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.VideoRecord: ranked records.
//   - error: non-nil if the query fails.
func (r *VideoRepository) ListScored(ctx context.Context, limit, offset int) ([]domain.VideoRecord, error) {
	var videos []domain.VideoRecord
	if err := r.db.WithContext(ctx).
		Where("scored = ?", true).
		Order("uts_score DESC, created_at ASC, video_id ASC").
		Limit(limit).
		Offset(offset).
		Find(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}

// CountScored counts scored videos.
func (r *VideoRepository) CountScored(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.VideoRecord{}).Where("scored = ?", true).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountBySound counts videos sharing a sound with a posted_at inside the
// recent window. Feeds the cascade and saturation layers with the corpus
// view beyond the current session batch.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - soundID: shared sound identifier.
//   - since: start of the recent window.
// Returns:
//   - int64: number of matching videos.
//   - error: non-nil if the query fails.
func (r *VideoRepository) CountBySound(ctx context.Context, soundID string, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.VideoRecord{}).
		Where("sound_id = ? AND posted_at >= ?", soundID, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// EarliestBySound returns the earliest posted_at among videos sharing a
// sound, used to estimate trend age. Returns zero time when none exist.
func (r *VideoRepository) EarliestBySound(ctx context.Context, soundID string) (time.Time, error) {
	var video domain.VideoRecord
	err := r.db.WithContext(ctx).
		Where("sound_id = ?", soundID).
		Order("posted_at ASC").
		First(&video).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return video.PostedAt, nil
}

// DueVideoIDs implements rescan.Store: all videos whose rescan deadline
// has passed, in deadline order.
func (r *VideoRepository) DueVideoIDs(ctx context.Context, now time.Time) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&domain.VideoRecord{}).
		Where("next_rescan_at IS NOT NULL AND next_rescan_at <= ?", now).
		Order("next_rescan_at ASC").
		Pluck("video_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// SetRescanTimes implements rescan.Store: records a successful score and
// the advanced rescan deadline.
func (r *VideoRepository) SetRescanTimes(ctx context.Context, videoID string, scoredAt, nextAt time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.VideoRecord{}).
		Where("video_id = ?", videoID).
		Updates(map[string]interface{}{
			"last_scored_at": scoredAt,
			"next_rescan_at": nextAt,
		}).Error
}

// Delete removes a video record and its snapshots.
func (r *VideoRepository) Delete(ctx context.Context, videoID string) error {
	if err := r.db.WithContext(ctx).Delete(&domain.VideoMetricSnapshot{}, "video_id = ?", videoID).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&domain.VideoRecord{}, "video_id = ?", videoID).Error
}
