package domain

import "time"

// VideoMetricSnapshot is one immutable measurement of a video's engagement
// counters. Snapshots are appended per video in capture order and never
// mutated; multiple snapshots inside the 24h rescan window feed the velocity
// and stability layers.
type VideoMetricSnapshot struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	VideoID      string    `gorm:"type:text;not null;index:idx_snapshots_video" json:"video_id"`
	CapturedAt   time.Time `gorm:"not null;index:idx_snapshots_video" json:"captured_at"`
	PlayCount    int64     `json:"play_count"`
	DiggCount    int64     `json:"digg_count"`
	CommentCount int64     `json:"comment_count"`
	ShareCount   int64     `json:"share_count"`
	SaveCount    int64     `json:"save_count"`
}

// TableName returns the database table name for VideoMetricSnapshot.
func (VideoMetricSnapshot) TableName() string {
	return "video_metric_snapshots"
}

// Validate checks the snapshot counters for malformed values.
// Negative counts fail with ErrInvalidMetric.
func (s *VideoMetricSnapshot) Validate() error {
	if s.PlayCount < 0 || s.DiggCount < 0 || s.CommentCount < 0 ||
		s.ShareCount < 0 || s.SaveCount < 0 {
		return ErrInvalidMetric
	}
	return nil
}

// EngagementTotal returns the sum of all non-view interactions.
func (s *VideoMetricSnapshot) EngagementTotal() int64 {
	return s.DiggCount + s.CommentCount + s.ShareCount + s.SaveCount
}
