package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// UTSBreakdown holds the six layer sub-scores behind a final UTS score.
// Stored as JSON in a text column.
type UTSBreakdown struct {
	ViralLift  float64 `json:"viral_lift"`
	Velocity   float64 `json:"velocity"`
	Retention  float64 `json:"retention"`
	Cascade    float64 `json:"cascade"`
	Saturation float64 `json:"saturation"`
	Stability  float64 `json:"stability"`
	Notes      []string `json:"notes,omitempty"`
}

// Value implements the driver.Valuer interface for database serialization.
func (b UTSBreakdown) Value() (driver.Value, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (b *UTSBreakdown) Scan(value interface{}) error {
	if value == nil {
		*b = UTSBreakdown{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan UTSBreakdown")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, b)
}

// VideoRecord is the mutable aggregate owned by the scoring engine.
// Scored and Clustered discriminate the record's lifecycle explicitly
// instead of relying on which optional fields happen to be set.
//
// Invariant: NextRescanAt is always LastScoredAt + rescan window after a
// successful score, and UTSScore is in [0, 100] whenever Scored is true.
type VideoRecord struct {
	VideoID         string        `gorm:"type:text;primaryKey" json:"video_id"`
	AuthorID        string        `gorm:"type:text;index:idx_videos_author" json:"author_id"`
	AuthorFollowers int64         `json:"author_followers"`
	URL             string        `gorm:"type:text" json:"url"`
	CoverURL        string        `gorm:"type:text" json:"cover_url,omitempty"`
	Description     string        `gorm:"type:text" json:"description,omitempty"`
	SoundID         string        `gorm:"type:text;index:idx_videos_sound" json:"sound_id,omitempty"`
	SoundTitle      string        `gorm:"type:text" json:"sound_title,omitempty"`
	DurationSec     int           `json:"duration_sec,omitempty"`
	PostedAt        time.Time     `json:"posted_at"`
	Scored          bool          `gorm:"default:false" json:"scored"`
	Clustered       bool          `gorm:"default:false" json:"clustered"`
	UTSScore        *float64      `gorm:"index:idx_videos_uts" json:"uts_score,omitempty"`
	UTSBreakdown    *UTSBreakdown `gorm:"type:text" json:"uts_breakdown,omitempty"`
	ClusterID       *int          `json:"cluster_id,omitempty"`
	SaturationScore *float64      `json:"saturation_score,omitempty"`
	CascadeCount    int           `json:"cascade_count,omitempty"`
	LastScoredAt    *time.Time    `json:"last_scored_at,omitempty"`
	NextRescanAt    *time.Time    `gorm:"index:idx_videos_rescan" json:"next_rescan_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Snapshots []VideoMetricSnapshot `gorm:"foreignKey:VideoID;references:VideoID" json:"snapshots,omitempty"`
}

// TableName returns the database table name for VideoRecord.
func (VideoRecord) TableName() string {
	return "video_records"
}

// MarkScored applies a successful scoring result and advances the rescan
// deadline by the given window.
func (v *VideoRecord) MarkScored(score float64, breakdown UTSBreakdown, at time.Time, window time.Duration) {
	next := at.Add(window)
	v.Scored = true
	v.UTSScore = &score
	v.UTSBreakdown = &breakdown
	sat := breakdown.Saturation / 100
	v.SaturationScore = &sat
	v.LastScoredAt = &at
	v.NextRescanAt = &next
}

// NoiseClusterID labels videos reachable from no core point.
const NoiseClusterID = -1

// EmbeddingVector is a fixed-dimension CLIP-style vector tied 1:1 to a
// video for the duration of an analysis session. It is supplied externally
// and only cached, never owned, by this engine.
type EmbeddingVector struct {
	VideoID string    `json:"video_id"`
	Vector  []float32 `json:"vector"`
}

// ClusterSummary aggregates one cluster of a finished session.
type ClusterSummary struct {
	ClusterID  int      `json:"cluster_id"`
	VideoCount int      `json:"video_count"`
	AvgUTS     float64  `json:"avg_uts"`
	VideoIDs   []string `json:"video_ids"`
}
