package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/incidentops/triage-engine/internal/cache"
	"github.com/incidentops/triage-engine/internal/models"
)

// TelemetryClient fetches time-windowed metric samples from the
// monitoring backend.
type TelemetryClient struct {
	baseURL     string
	metricsPath string
	httpClient  *http.Client
	cache       cache.Provider
	cacheTTL    time.Duration
}

// NewTelemetryClient constructs a client for the configured telemetry
// backend.
func NewTelemetryClient(baseURL, metricsPath string, timeout time.Duration, cacheProvider cache.Provider, cacheTTL time.Duration) *TelemetryClient {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if cacheTTL < 0 {
		cacheTTL = 0
	}
	return &TelemetryClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		metricsPath: metricsPath,
		httpClient:  &http.Client{Timeout: timeout},
		cache:       cacheProvider,
		cacheTTL:    cacheTTL,
	}
}

// FetchMetricSamples queries the backend for samples in [start, end],
// returned ascending by timestamp.
func (c *TelemetryClient) FetchMetricSamples(ctx context.Context, service string, start, end time.Time) ([]models.MetricSample, error) {
	if c == nil {
		return nil, fmt.Errorf("telemetry client not initialised")
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("telemetry base URL not configured")
	}

	cacheKey := ""
	if c.cacheTTL > 0 {
		cacheKey = telemetryCacheKey(service, start, end)
		if data, err := c.cache.Get(ctx, cacheKey); err == nil {
			var cached []models.MetricSample
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	payload := map[string]interface{}{
		"service": service,
		"start":   start.Format(time.RFC3339),
		"end":     end.Format(time.RFC3339),
	}

	var response struct {
		Samples []struct {
			Timestamp time.Time          `json:"timestamp"`
			Metrics   map[string]float64 `json:"metrics"`
		} `json:"samples"`
	}

	if err := c.postJSON(ctx, c.resolvePath(c.metricsPath), payload, &response); err != nil {
		return nil, fmt.Errorf("telemetry metrics request failed: %w", err)
	}

	samples := make([]models.MetricSample, 0, len(response.Samples))
	for _, s := range response.Samples {
		samples = append(samples, models.MetricSample{Timestamp: s.Timestamp, Metrics: s.Metrics})
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	if c.cacheTTL > 0 && cacheKey != "" && len(samples) > 0 {
		if data, err := json.Marshal(samples); err == nil {
			_ = c.cache.Set(ctx, cacheKey, data, c.cacheTTL)
		}
	}

	return samples, nil
}

func telemetryCacheKey(service string, start, end time.Time) string {
	return fmt.Sprintf("telemetry:samples:%s:%d:%d", service, start.Unix(), end.Unix())
}

func (c *TelemetryClient) resolvePath(p string) string {
	if c.baseURL == "" {
		return ""
	}
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

func (c *TelemetryClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	return postJSON(ctx, c.httpClient, endpoint, payload, out)
}

func postJSON(ctx context.Context, client *http.Client, endpoint string, payload any, out any) error {
	if endpoint == "" {
		return fmt.Errorf("empty endpoint")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upstream returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
