// Package rescan tracks which videos are due for re-measurement and
// guarantees at most one in-flight analysis per video.
package rescan

import (
	"context"
	"sync"
	"time"
)

// DefaultWindow is the auto-rescan window: a scored video becomes due for
// re-measurement this long after its last successful score.
const DefaultWindow = 24 * time.Hour

// Store persists the per-video rescan bookkeeping. Implemented by the
// video repository.
type Store interface {
	// DueVideoIDs returns all videos with next_rescan_at <= now, in
	// next_rescan_at order.
	DueVideoIDs(ctx context.Context, now time.Time) ([]string, error)

	// SetRescanTimes records a successful score at scoredAt and the
	// advanced rescan deadline nextAt.
	SetRescanTimes(ctx context.Context, videoID string, scoredAt, nextAt time.Time) error
}

// Tracker implements the rescan state machine. Per video the cycle is
// Unscored -> Scored -> DueForRescan -> Scored -> ... where "due" is
// derived from the persisted next_rescan_at, and the in-flight set lives
// in memory because it scopes the running process's active sessions.
//
// Due and Acquire share one mutex so that reading the due set and claiming
// videos for a new session is a single logical operation: concurrent
// scheduler ticks cannot hand the same video to two sessions.
type Tracker struct {
	store  Store
	window time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewTracker creates a Tracker over the given store. A non-positive window
// falls back to DefaultWindow.
func NewTracker(store Store, window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{
		store:    store,
		window:   window,
		inFlight: make(map[string]struct{}),
	}
}

// Window returns the configured rescan window.
func (t *Tracker) Window() time.Duration {
	return t.window
}

// MarkScored records a successful score at the given time and advances
// next_rescan_at by the window. The monotonic advance is what enforces
// at-most-one scan per video per window; no external locking is involved.
func (t *Tracker) MarkScored(ctx context.Context, videoID string, at time.Time) error {
	return t.store.SetRescanTimes(ctx, videoID, at, at.Add(t.window))
}

// Due returns all videos whose rescan deadline has passed and that are not
// currently claimed by an active session.
func (t *Tracker) Due(ctx context.Context, now time.Time) ([]string, error) {
	ids, err := t.store.DueVideoIDs(ctx, now)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	due := ids[:0]
	for _, id := range ids {
		if _, busy := t.inFlight[id]; !busy {
			due = append(due, id)
		}
	}
	return due, nil
}

// Acquire claims the given videos for a starting session. It returns the
// subset that was actually claimed and the subset that was already busy;
// callers record busy videos as per-video errors instead of aborting.
func (t *Tracker) Acquire(videoIDs []string) (acquired, busy []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range videoIDs {
		if _, exists := t.inFlight[id]; exists {
			busy = append(busy, id)
			continue
		}
		t.inFlight[id] = struct{}{}
		acquired = append(acquired, id)
	}
	return acquired, busy
}

// Release returns videos to the schedulable pool once their session
// reaches a terminal phase.
func (t *Tracker) Release(videoIDs []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range videoIDs {
		delete(t.inFlight, id)
	}
}

// InFlight reports whether the video is claimed by an active session.
func (t *Tracker) InFlight(videoID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, busy := t.inFlight[videoID]
	return busy
}
