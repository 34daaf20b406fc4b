package repo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/incidentops/triage-engine/internal/models"
)

// IncidentSink persists completed incident records to durable storage,
// keyed by incident ID with last-write-wins semantics.
type IncidentSink struct {
	baseURL    string
	upsertPath string
	httpClient *http.Client
}

// NewIncidentSink constructs a sink client.
func NewIncidentSink(baseURL, upsertPath string, timeout time.Duration) *IncidentSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &IncidentSink{
		baseURL:    strings.TrimRight(baseURL, "/"),
		upsertPath: upsertPath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Upsert writes a record. Repeated calls with the same incident ID
// overwrite rather than duplicate.
func (s *IncidentSink) Upsert(ctx context.Context, record models.IncidentRecord) error {
	if s == nil {
		return fmt.Errorf("incident sink not initialised")
	}
	if s.baseURL == "" {
		return fmt.Errorf("incident sink base URL not configured")
	}
	if record.IncidentID == "" {
		return fmt.Errorf("incident record missing incident_id")
	}

	endpoint := s.baseURL + "/" + strings.TrimLeft(s.upsertPath, "/")
	if err := postJSON(ctx, s.httpClient, endpoint, record, nil); err != nil {
		return fmt.Errorf("upsert incident %s: %w", record.IncidentID, err)
	}
	return nil
}
