package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/trendscout/uts-engine/internal/domain"
	"github.com/trendscout/uts-engine/internal/logger"
)

const defaultApifyBaseURL = "https://api.apify.com"

// ApifyConfig holds configuration for the Apify-backed collector.
type ApifyConfig struct {
	BaseURL  string
	APIToken string
	ActorID  string
	Timeout  time.Duration
}

// ApifyCollector implements Collector on top of an Apify scraper actor
// run in synchronous mode.
type ApifyCollector struct {
	http    *resty.Client
	baseURL string
	token   string
	actorID string
}

// NewApifyCollector creates a collector backed by an Apify actor.
// Parameters:
//   - cfg: Apify configuration including the actor ID and API token.
// Returns:
//   - *ApifyCollector: collector instance.
func NewApifyCollector(cfg *ApifyConfig) *ApifyCollector {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultApifyBaseURL
	}
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &ApifyCollector{
		http:    client,
		baseURL: baseURL,
		token:   cfg.APIToken,
		actorID: cfg.ActorID,
	}
}

type actorRunRequest struct {
	PostIDs        []string `json:"postIDs,omitempty"`
	ResultsPerPage int      `json:"resultsPerPage,omitempty"`
}

// actorItem mirrors the scraper's dataset item shape. Different actor
// versions nest the counters differently, so both the flat and the
// nested fields are declared and merged in toCollected.
type actorItem struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	WebVideoURL string `json:"webVideoUrl"`
	CreateTime  int64  `json:"createTime"`

	PlayCount    int64 `json:"playCount"`
	DiggCount    int64 `json:"diggCount"`
	CommentCount int64 `json:"commentCount"`
	ShareCount   int64 `json:"shareCount"`
	CollectCount int64 `json:"collectCount"`

	Stats struct {
		PlayCount    int64 `json:"playCount"`
		DiggCount    int64 `json:"diggCount"`
		CommentCount int64 `json:"commentCount"`
		ShareCount   int64 `json:"shareCount"`
		CollectCount int64 `json:"collectCount"`
	} `json:"stats"`

	AuthorMeta struct {
		ID   string `json:"id"`
		Fans int64  `json:"fans"`
	} `json:"authorMeta"`

	MusicMeta struct {
		MusicID   string `json:"musicId"`
		MusicName string `json:"musicName"`
	} `json:"musicMeta"`

	VideoMeta struct {
		Duration int    `json:"duration"`
		CoverURL string `json:"coverUrl"`
	} `json:"videoMeta"`
}

func pickCount(flat, nested int64) int64 {
	if flat > 0 {
		return flat
	}
	return nested
}

func (item *actorItem) toCollected(capturedAt time.Time) Collected {
	video := domain.VideoRecord{
		VideoID:         item.ID,
		AuthorID:        item.AuthorMeta.ID,
		AuthorFollowers: item.AuthorMeta.Fans,
		URL:             item.WebVideoURL,
		CoverURL:        item.VideoMeta.CoverURL,
		Description:     item.Text,
		SoundID:         item.MusicMeta.MusicID,
		SoundTitle:      item.MusicMeta.MusicName,
		DurationSec:     item.VideoMeta.Duration,
	}
	if item.CreateTime > 0 {
		video.PostedAt = time.Unix(item.CreateTime, 0).UTC()
	}
	snapshot := domain.VideoMetricSnapshot{
		VideoID:      item.ID,
		CapturedAt:   capturedAt,
		PlayCount:    pickCount(item.PlayCount, item.Stats.PlayCount),
		DiggCount:    pickCount(item.DiggCount, item.Stats.DiggCount),
		CommentCount: pickCount(item.CommentCount, item.Stats.CommentCount),
		ShareCount:   pickCount(item.ShareCount, item.Stats.ShareCount),
		SaveCount:    pickCount(item.CollectCount, item.Stats.CollectCount),
	}
	return Collected{Video: video, Snapshot: snapshot}
}

// runActor runs the actor synchronously and returns the dataset items.
func (c *ApifyCollector) runActor(ctx context.Context, videoIDs []string) ([]actorItem, error) {
	var items []actorItem
	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items", c.baseURL, c.actorID)

	httpResp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", c.token).
		SetBody(actorRunRequest{
			PostIDs:        videoIDs,
			ResultsPerPage: len(videoIDs),
		}).
		SetResult(&items).
		Post(endpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to run scraper actor: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return nil, fmt.Errorf("scraper actor error: status %d", httpResp.StatusCode())
	}

	return items, nil
}

// CollectVideo fetches the current state of a single video.
func (c *ApifyCollector) CollectVideo(ctx context.Context, videoID string) (*Collected, error) {
	collected, failures, err := c.CollectBatch(ctx, []string{videoID})
	if err != nil {
		return nil, err
	}
	if perVideo, ok := failures[videoID]; ok {
		return nil, perVideo
	}
	if len(collected) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, domain.ErrNotFound)
	}
	return &collected[0], nil
}

// CollectBatch fetches the current state of multiple videos in one actor run.
func (c *ApifyCollector) CollectBatch(ctx context.Context, videoIDs []string) ([]Collected, map[string]error, error) {
	if len(videoIDs) == 0 {
		return []Collected{}, map[string]error{}, nil
	}

	items, err := c.runActor(ctx, videoIDs)
	if err != nil {
		return nil, nil, err
	}

	capturedAt := snapshotTime().UTC()
	byID := make(map[string]Collected, len(items))
	for i := range items {
		if items[i].ID == "" {
			continue
		}
		byID[items[i].ID] = items[i].toCollected(capturedAt)
	}

	collected := make([]Collected, 0, len(videoIDs))
	failures := make(map[string]error)
	for _, id := range videoIDs {
		item, ok := byID[id]
		if !ok {
			failures[id] = fmt.Errorf("video %s: %w", id, domain.ErrNotFound)
			continue
		}
		collected = append(collected, item)
	}

	if len(failures) > 0 {
		logger.With(logger.Fields{logger.FieldComponent: "collector"}).
			WithCount(len(failures)).
			Warn(ctx, "Some videos were not returned by the scraper")
	}

	return collected, failures, nil
}

// FetchThumbnail downloads a video's cover image.
func (c *ApifyCollector) FetchThumbnail(ctx context.Context, coverURL string) ([]byte, string, error) {
	httpResp, err := c.http.R().
		SetContext(ctx).
		Get(coverURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download cover: %w", err)
	}
	if httpResp.StatusCode() != 200 {
		return nil, "", fmt.Errorf("cover download error: status %d", httpResp.StatusCode())
	}
	return httpResp.Body(), httpResp.Header().Get("Content-Type"), nil
}
