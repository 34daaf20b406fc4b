package repo

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func TestEmbedReturnsVector(t *testing.T) {
	var gotText string
	c := NewEmbeddingClient("http://embedder.local", "/api/v1/embed", 3, time.Second)
	c.httpClient.Transport = roundTripFunc(func(req *http.Request) (*http.Response, error) {
		var payload map[string]string
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotText = payload["text"]
		return jsonResponse(http.StatusOK, map[string]any{"vector": []float64{0.1, 0.2, 0.3}})
	})

	vec, err := c.Embed(context.Background(), "ERROR: heap exhausted")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("vector length = %d", len(vec))
	}
	if gotText != "ERROR: heap exhausted" {
		t.Errorf("text sent = %q", gotText)
	}
}

func TestEmbedDimensionMismatch(t *testing.T) {
	c := NewEmbeddingClient("http://embedder.local", "/embed", 768, time.Second)
	c.httpClient.Transport = roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, map[string]any{"vector": []float64{1, 2}})
	})

	if _, err := c.Embed(context.Background(), "text"); err == nil {
		t.Error("expected error for wrong dimension")
	}
}

func TestEmbedUnconfigured(t *testing.T) {
	c := NewEmbeddingClient("", "/embed", 3, time.Second)
	if _, err := c.Embed(context.Background(), "text"); err == nil {
		t.Error("expected error without base URL")
	}
}
