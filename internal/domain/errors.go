package domain

import "errors"

// Engine error taxonomy. Per-video failures wrap ErrScoringFailed and are
// recorded on the session; the remaining sentinels abort the operation that
// raised them.
var (
	// ErrInvalidInput indicates malformed input such as an empty snapshot sequence.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidMetric indicates a NaN or negative counter in a snapshot.
	ErrInvalidMetric = errors.New("invalid metric")

	// ErrIncompleteScoring indicates a missing layer at aggregation time.
	ErrIncompleteScoring = errors.New("incomplete scoring")

	// ErrInvalidParameters indicates bad clustering parameters (eps <= 0, min_points < 1).
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrEmptyBatch indicates a clustering call with no vectors.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrBatchTooLarge indicates a session request above the batch cap.
	ErrBatchTooLarge = errors.New("batch too large")

	// ErrTimeout indicates a session made no forward progress within its deadline.
	ErrTimeout = errors.New("session timed out")

	// ErrCancelled indicates a cooperative session cancellation.
	ErrCancelled = errors.New("session cancelled")

	// ErrScoringFailed marks a per-video scoring failure. Non-fatal to the session.
	ErrScoringFailed = errors.New("scoring failed")

	// ErrVideoInFlight indicates the video is already part of an active session.
	ErrVideoInFlight = errors.New("video already in an active session")

	// ErrNotFound indicates a missing video or session record.
	ErrNotFound = errors.New("not found")
)

// ErrorKind maps an engine error to its wire-level kind string.
// Unknown errors map to "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInvalidMetric):
		return "invalid_metric"
	case errors.Is(err, ErrIncompleteScoring):
		return "incomplete_scoring"
	case errors.Is(err, ErrInvalidParameters):
		return "invalid_parameters"
	case errors.Is(err, ErrEmptyBatch):
		return "empty_batch"
	case errors.Is(err, ErrBatchTooLarge):
		return "batch_too_large"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrVideoInFlight):
		return "video_in_flight"
	case errors.Is(err, ErrScoringFailed):
		return "scoring_failed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
