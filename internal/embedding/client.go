package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// VectorDimension is the output dimension of the cover embedding model.
const VectorDimension = 512

// Client calls the embedding sidecar service that turns cover image URLs
// into fixed-dimension vectors.
type Client struct {
	http    *resty.Client
	baseURL string
}

// Config holds configuration for the embedding client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new embedding client.
// Parameters:
//   - cfg: embedding service configuration.
// Returns:
//   - *Client: client bound to the configured service.
func NewClient(cfg *Config) *Client {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &Client{
		http:    client,
		baseURL: cfg.BaseURL,
	}
}

type imageRequest struct {
	ImageURL string `json:"image_url"`
}

type imageResponse struct {
	Embedding []float32 `json:"embedding"`
	Detail    string    `json:"detail,omitempty"`
}

type batchImageRequest struct {
	ImageURLs []string `json:"image_urls"`
}

type batchImageResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Detail     string      `json:"detail,omitempty"`
}

// EmbedImage generates an embedding for a single cover image URL.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - imageURL: publicly reachable image URL.
// Returns:
//   - []float32: embedding vector of VectorDimension values.
//   - error: non-nil if the service call fails.
func (c *Client) EmbedImage(ctx context.Context, imageURL string) ([]float32, error) {
	var resp imageResponse
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetBody(imageRequest{ImageURL: imageURL}).
		SetResult(&resp).
		Post(c.baseURL + "/embeddings/image")

	if err != nil {
		return nil, fmt.Errorf("failed to call embedding service: %w", err)
	}

	if httpResp.StatusCode() != 200 {
		if resp.Detail != "" {
			return nil, fmt.Errorf("embedding service error: %s", resp.Detail)
		}
		return nil, fmt.Errorf("embedding service error: status %d", httpResp.StatusCode())
	}

	if len(resp.Embedding) != VectorDimension {
		return nil, fmt.Errorf("unexpected embedding dimension: got %d, expected %d", len(resp.Embedding), VectorDimension)
	}

	return resp.Embedding, nil
}

// EmbedImages generates embeddings for multiple cover image URLs in one call.
// The returned slice is index-aligned with imageURLs.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - imageURLs: publicly reachable image URLs.
// Returns:
//   - [][]float32: embedding vectors aligned with imageURLs.
//   - error: non-nil if the service call fails or counts mismatch.
func (c *Client) EmbedImages(ctx context.Context, imageURLs []string) ([][]float32, error) {
	if len(imageURLs) == 0 {
		return [][]float32{}, nil
	}

	var resp batchImageResponse
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetBody(batchImageRequest{ImageURLs: imageURLs}).
		SetResult(&resp).
		Post(c.baseURL + "/embeddings/batch-images")

	if err != nil {
		return nil, fmt.Errorf("failed to call embedding service: %w", err)
	}

	if httpResp.StatusCode() != 200 {
		if resp.Detail != "" {
			return nil, fmt.Errorf("embedding service error: %s", resp.Detail)
		}
		return nil, fmt.Errorf("embedding service error: status %d", httpResp.StatusCode())
	}

	if len(resp.Embeddings) != len(imageURLs) {
		return nil, fmt.Errorf("unexpected number of embeddings: got %d, expected %d", len(resp.Embeddings), len(imageURLs))
	}

	return resp.Embeddings, nil
}
