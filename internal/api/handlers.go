package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/incidentops/triage-engine/internal/models"
	"github.com/incidentops/triage-engine/internal/remediation"
	"github.com/incidentops/triage-engine/internal/utils"
)

// Remediator is the subset of the remediation generator the API invokes.
type Remediator interface {
	Apply(incidentID, fixType string) (remediation.ApplyResult, error)
	Propose(incidentID, fixType string) (remediation.Proposal, error)
}

// AnalysisAPI is the service surface the handlers call into.
type AnalysisAPI interface {
	Analyze(ctx context.Context, req models.AnalyzeRequest) (models.IncidentAnalysisResult, error)
	PredictAnomalies(ctx context.Context, service string, window time.Duration) ([]models.AnomalyPrediction, error)
}

// ComponentChecker reports per-component readiness for the health
// endpoint.
type ComponentChecker func() map[string]any

// Handlers holds the HTTP handler set.
type Handlers struct {
	logger        *slog.Logger
	analysis      AnalysisAPI
	remediator    Remediator
	defaultWindow time.Duration
	components    ComponentChecker
}

// NewHandlers constructs the handler set. A nil components checker
// leaves the health endpoint reporting status only.
func NewHandlers(logger *slog.Logger, analysis AnalysisAPI, remediator Remediator, defaultWindow time.Duration, components ComponentChecker) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultWindow <= 0 {
		defaultWindow = time.Hour
	}
	return &Handlers{
		logger:        logger,
		analysis:      analysis,
		remediator:    remediator,
		defaultWindow: defaultWindow,
		components:    components,
	}
}

// AnalyzeIncident handles POST /api/v1/incidents/analyze.
func (h *Handlers) AnalyzeIncident(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	result, err := h.analysis.Analyze(r.Context(), req)
	if err != nil {
		h.writeTypedError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// PredictAnomalies handles GET /api/v1/predict/anomalies?service=&window=.
func (h *Handlers) PredictAnomalies(w http.ResponseWriter, r *http.Request) {
	service := r.URL.Query().Get("service")
	if service == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'service' is required")
		return
	}

	window, err := utils.ParseWindow(r.URL.Query().Get("window"), h.defaultWindow)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	predictions, err := h.analysis.PredictAnomalies(r.Context(), service, window)
	if err != nil {
		h.writeTypedError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"service":     service,
		"window":      window.String(),
		"predictions": predictions,
	})
}

type executeRemediationRequest struct {
	IncidentID  string `json:"incident_id"`
	FixType     string `json:"fix_type"`
	AutoApprove bool   `json:"auto_approve"`
}

// ExecuteRemediation handles POST /api/v1/remediation/execute. With
// auto_approve the fix is applied immediately; otherwise a reviewable
// proposal is created. Both paths are idempotent per (incident, fix type).
func (h *Handlers) ExecuteRemediation(w http.ResponseWriter, r *http.Request) {
	var req executeRemediationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.IncidentID == "" || req.FixType == "" {
		h.writeError(w, http.StatusBadRequest, "incident_id and fix_type are required")
		return
	}

	if req.AutoApprove {
		result, err := h.remediator.Apply(req.IncidentID, req.FixType)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeJSON(w, http.StatusOK, result)
		return
	}

	proposal, err := h.remediator.Propose(req.IncidentID, req.FixType)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusAccepted, proposal)
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{"status": "healthy"}
	if h.components != nil {
		payload["components"] = h.components()
	}
	h.writeJSON(w, http.StatusOK, payload)
}

func (h *Handlers) writeTypedError(w http.ResponseWriter, err error) {
	var validationErr *utils.ValidationError
	var notReadyErr *utils.ModelNotReadyError
	var reasoningErr *utils.ReasoningUnavailableError

	switch {
	case errors.As(err, &validationErr):
		h.writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &notReadyErr):
		h.writeError(w, http.StatusServiceUnavailable, notReadyErr.Error())
	case errors.As(err, &reasoningErr):
		h.writeError(w, http.StatusBadGateway, reasoningErr.Error())
	default:
		h.logger.Error("request failed", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("response encode failed", slog.Any("error", err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
