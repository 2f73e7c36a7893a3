package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"

	_ "golang.org/x/image/webp"
)

// ThumbnailArchive stores downloaded video cover images in object storage
// so clustering can re-embed covers after the origin URLs expire.
type ThumbnailArchive struct {
	store  ObjectStorage
	prefix string
}

// NewThumbnailArchive creates a thumbnail archive on top of an object store.
// Parameters:
//   - store: backing object storage.
// Returns:
//   - *ThumbnailArchive: archive writing under the covers/ prefix.
func NewThumbnailArchive(store ObjectStorage) *ThumbnailArchive {
	return &ThumbnailArchive{
		store:  store,
		prefix: "covers",
	}
}

func extensionFor(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "png", "gif", "webp":
		return "." + format
	default:
		return ".bin"
	}
}

// Save validates and uploads one cover image, keyed by video ID. The image
// must decode; covers that fail to decode would also fail embedding, so
// they are rejected here.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: video the cover belongs to.
//   - data: raw image bytes.
//   - contentType: content type reported by the origin.
// Returns:
//   - string: public URL of the stored cover.
//   - error: non-nil if the image is invalid or the upload fails.
func (a *ThumbnailArchive) Save(ctx context.Context, videoID string, data []byte, contentType string) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("invalid cover image for video %s: %w", videoID, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("invalid cover dimensions for video %s: %dx%d", videoID, cfg.Width, cfg.Height)
	}

	key := path.Join(a.prefix, videoID+extensionFor(format))
	if err := a.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("failed to archive cover for video %s: %w", videoID, err)
	}

	return a.store.GetURL(key), nil
}

// Exists reports whether a cover has already been archived for a video.
func (a *ThumbnailArchive) Exists(ctx context.Context, videoID string) (bool, error) {
	for _, ext := range []string{".jpg", ".png", ".webp", ".gif", ".bin"} {
		ok, err := a.store.Exists(ctx, path.Join(a.prefix, videoID+ext))
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
