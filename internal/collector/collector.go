package collector

import (
	"context"
	"time"

	"github.com/trendscout/uts-engine/internal/domain"
)

// Collected bundles the metadata and the fresh metric snapshot a collector
// returns for one video.
type Collected struct {
	Video    domain.VideoRecord
	Snapshot domain.VideoMetricSnapshot
}

// Collector fetches current metadata and metrics for videos from an
// upstream platform.
type Collector interface {
	// CollectVideo fetches the current state of a single video.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - videoID: platform video identifier.
	// Returns:
	//   - *Collected: metadata and a snapshot captured now.
	//   - error: domain.ErrNotFound if the video no longer exists,
	//     non-nil on other failures.
	CollectVideo(ctx context.Context, videoID string) (*Collected, error)

	// CollectBatch fetches the current state of multiple videos. Videos
	// that fail individually are skipped; the per-video errors are
	// returned keyed by video ID.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - videoIDs: platform video identifiers.
	// Returns:
	//   - []Collected: successfully collected videos.
	//   - map[string]error: per-video failures.
	//   - error: non-nil only if the whole batch fails.
	CollectBatch(ctx context.Context, videoIDs []string) ([]Collected, map[string]error, error)

	// FetchThumbnail downloads a video's cover image.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - coverURL: cover image URL.
	// Returns:
	//   - []byte: raw image bytes.
	//   - string: content type reported by the origin.
	//   - error: non-nil if the download fails.
	FetchThumbnail(ctx context.Context, coverURL string) ([]byte, string, error)
}

// BelowMinViews reports whether a snapshot falls under the minimum view
// floor for scoring. Videos below the floor produce noisy engagement
// rates and are excluded from deep analysis.
func BelowMinViews(snapshot domain.VideoMetricSnapshot, minViews int64) bool {
	return snapshot.PlayCount < minViews
}

// snapshotTime stamps collected snapshots. Split out for tests.
var snapshotTime = time.Now
