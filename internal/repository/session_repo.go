package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/trendscout/uts-engine/internal/domain"
)

// SessionRepository handles analysis session persistence.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create persists a new analysis session.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - session: session to insert.
// Returns:
//   - error: non-nil if the insert fails.
func (r *SessionRepository) Create(ctx context.Context, session *domain.AnalysisSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetByID retrieves a session by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - sessionID: session identifier.
// Returns:
//   - *domain.AnalysisSession: session if found.
//   - error: domain.ErrNotFound if missing, non-nil on other failures.
func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*domain.AnalysisSession, error) {
	var session domain.AnalysisSession
	if err := r.db.WithContext(ctx).First(&session, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
		}
		return nil, err
	}
	return &session, nil
}

// Update saves the full session state.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - session: session with updated fields.
// Returns:
//   - error: non-nil if the update fails.
func (r *SessionRepository) Update(ctx context.Context, session *domain.AnalysisSession) error {
	session.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(session).Error
}

// ListRecent returns the most recently created sessions.
func (r *SessionRepository) ListRecent(ctx context.Context, limit int) ([]domain.AnalysisSession, error) {
	var sessions []domain.AnalysisSession
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
