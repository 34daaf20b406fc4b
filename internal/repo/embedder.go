package repo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// EmbeddingClient derives fixed-dimension vectors from incident log
// text via an external embedding service. Embedding derivation is a
// collaborator capability; the engine never computes embeddings itself.
type EmbeddingClient struct {
	baseURL    string
	embedPath  string
	dimension  int
	httpClient *http.Client
}

// NewEmbeddingClient constructs a client for the embedding service.
func NewEmbeddingClient(baseURL, embedPath string, dimension int, timeout time.Duration) *EmbeddingClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &EmbeddingClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		embedPath:  embedPath,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Embed returns the embedding vector for the given text.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if c == nil {
		return nil, fmt.Errorf("embedding client not initialised")
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("embedding base URL not configured")
	}

	payload := map[string]interface{}{"text": text}

	var response struct {
		Vector []float64 `json:"vector"`
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(c.embedPath, "/")
	if err := postJSON(ctx, c.httpClient, endpoint, payload, &response); err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if c.dimension > 0 && len(response.Vector) != c.dimension {
		return nil, fmt.Errorf("embedding service returned dimension %d, expected %d", len(response.Vector), c.dimension)
	}
	return response.Vector, nil
}
