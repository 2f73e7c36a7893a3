package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// SessionPhase represents the phase of a deep-analyze session.
// Phases advance strictly in order; Done and Failed are terminal.
type SessionPhase string

const (
	PhaseCollecting SessionPhase = "collecting"
	PhaseScoring    SessionPhase = "scoring"
	PhaseClustering SessionPhase = "clustering"
	PhaseFinalizing SessionPhase = "finalizing"
	PhaseDone       SessionPhase = "done"
	PhaseFailed     SessionPhase = "failed"
)

// Terminal reports whether the phase is immutable once reached.
func (p SessionPhase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// phaseOrder maps phases to their position in the pipeline.
var phaseOrder = map[SessionPhase]int{
	PhaseCollecting: 0,
	PhaseScoring:    1,
	PhaseClustering: 2,
	PhaseFinalizing: 3,
	PhaseDone:       4,
	PhaseFailed:     5,
}

// CanTransition reports whether moving from p to next preserves the
// monotonic phase order. Failed is reachable from any non-terminal phase.
func (p SessionPhase) CanTransition(next SessionPhase) bool {
	if p.Terminal() {
		return false
	}
	if next == PhaseFailed {
		return true
	}
	return phaseOrder[next] == phaseOrder[p]+1
}

// VideoResult is one video's outcome inside a session. A video either
// carries a finalized score (and, after clustering, a cluster label) or a
// recorded error; one video's failure never aborts its siblings.
type VideoResult struct {
	VideoID         string        `json:"video_id"`
	UTSScore        float64       `json:"uts_score,omitempty"`
	Breakdown       *UTSBreakdown `json:"uts_breakdown,omitempty"`
	ClusterID       *int          `json:"cluster_id,omitempty"`
	SaturationScore float64       `json:"saturation_score,omitempty"`
	CascadeCount    int           `json:"cascade_count,omitempty"`
	ErrorKind       string        `json:"error_kind,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// Failed reports whether this video ended with a recorded error.
func (r *VideoResult) Failed() bool {
	return r.ErrorKind != ""
}

// VideoResultList stores per-video results as JSON in a text column.
type VideoResultList []VideoResult

// Value implements the driver.Valuer interface for database serialization.
func (l VideoResultList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (l *VideoResultList) Scan(value interface{}) error {
	if value == nil {
		*l = VideoResultList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan VideoResultList")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, l)
}

// ClusterSummaryList stores cluster summaries as JSON in a text column.
type ClusterSummaryList []ClusterSummary

// Value implements the driver.Valuer interface for database serialization.
func (l ClusterSummaryList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (l *ClusterSummaryList) Scan(value interface{}) error {
	if value == nil {
		*l = ClusterSummaryList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan ClusterSummaryList")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, l)
}

// StringList stores a string slice as JSON in a text column.
type StringList []string

// Value implements the driver.Valuer interface for database serialization.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringList")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, l)
}

// AnalysisSession represents one deep-analyze invocation over a bounded
// video batch. Phase transitions are persisted as they happen so callers
// can observe progress mid-flight instead of simulating it client-side.
type AnalysisSession struct {
	SessionID   string             `gorm:"type:text;primaryKey" json:"session_id"`
	VideoIDs    StringList         `gorm:"type:text;not null" json:"requested_video_ids"`
	Phase       SessionPhase       `gorm:"type:text;index:idx_sessions_phase;default:collecting" json:"phase"`
	Results     VideoResultList    `gorm:"type:text" json:"results"`
	Clusters    ClusterSummaryList `gorm:"type:text" json:"clusters,omitempty"`
	ErrorKind   string             `gorm:"type:text" json:"error_kind,omitempty"`
	Error       string             `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// TableName returns the database table name for AnalysisSession.
func (AnalysisSession) TableName() string {
	return "analysis_sessions"
}
