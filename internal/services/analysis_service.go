package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/incidentops/triage-engine/internal/anomaly"
	"github.com/incidentops/triage-engine/internal/engine"
	"github.com/incidentops/triage-engine/internal/features"
	"github.com/incidentops/triage-engine/internal/metrics"
	"github.com/incidentops/triage-engine/internal/models"
	"github.com/incidentops/triage-engine/internal/utils"
)

// MetricSource supplies historical metric samples for prediction.
type MetricSource interface {
	FetchMetricSamples(ctx context.Context, service string, start, end time.Time) ([]models.MetricSample, error)
}

// AnalysisService fronts the incident pipeline: full analyses go through
// the orchestrator, predictions go through the local scorer.
type AnalysisService struct {
	logger        *slog.Logger
	orchestrator  *engine.Orchestrator
	telemetry     MetricSource
	windowizer    *features.Windowizer
	scorer        *anomaly.Scorer
	defaultWindow time.Duration
	latency       *utils.LatencyTracker
}

// NewAnalysisService wires the service facade.
func NewAnalysisService(
	logger *slog.Logger,
	orchestrator *engine.Orchestrator,
	telemetry MetricSource,
	scorer *anomaly.Scorer,
	defaultWindow time.Duration,
) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultWindow <= 0 {
		defaultWindow = time.Hour
	}
	return &AnalysisService{
		logger:        logger,
		orchestrator:  orchestrator,
		telemetry:     telemetry,
		windowizer:    features.NewWindowizer(),
		scorer:        scorer,
		defaultWindow: defaultWindow,
		latency:       utils.NewLatencyTracker(512),
	}
}

// Analyze validates the request and runs the full analysis pipeline,
// recording latency and outcome counters.
func (s *AnalysisService) Analyze(ctx context.Context, req models.AnalyzeRequest) (models.IncidentAnalysisResult, error) {
	if err := validateAnalyzeRequest(req); err != nil {
		return models.IncidentAnalysisResult{}, err
	}

	start := time.Now()
	result, err := s.orchestrator.Analyze(ctx, req)
	elapsed := time.Since(start)
	s.latency.Observe(elapsed)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.ObserveAnalysis(elapsed, outcome)

	if err != nil {
		return models.IncidentAnalysisResult{}, err
	}

	s.logger.Info("analysis served",
		slog.String("incident_id", req.IncidentID),
		slog.Duration("elapsed", elapsed),
		slog.Duration("p95", s.latency.Percentile(95)),
	)
	return result, nil
}

// PredictAnomalies fetches the service's recent metric history, projects
// it into feature vectors, and scores every sample. Verdicts return in
// sample order joined with the raw metrics and a rule-based hint.
func (s *AnalysisService) PredictAnomalies(ctx context.Context, service string, window time.Duration) ([]models.AnomalyPrediction, error) {
	if service == "" {
		return nil, &utils.ValidationError{Field: "service", Msg: "service name is required"}
	}
	if !s.scorer.Ready() {
		return nil, &utils.ModelNotReadyError{Reason: "no fitted model loaded"}
	}
	if window <= 0 {
		window = s.defaultWindow
	}

	start, end := utils.WindowBounds(time.Now().UTC(), window)
	samples, err := s.telemetry.FetchMetricSamples(ctx, service, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch metric samples: %w", err)
	}
	if len(samples) == 0 {
		return []models.AnomalyPrediction{}, nil
	}

	vectors, err := s.windowizer.Extract(samples)
	if err != nil {
		return nil, err
	}
	verdicts, err := s.scorer.Score(vectors)
	if err != nil {
		return nil, err
	}

	predictions := make([]models.AnomalyPrediction, 0, len(verdicts))
	for i, verdict := range verdicts {
		metrics.CountVerdict(verdict.IsAnomaly)
		predictions = append(predictions, models.AnomalyPrediction{
			ServiceName:    service,
			Timestamp:      verdict.Timestamp,
			IsAnomaly:      verdict.IsAnomaly,
			Confidence:     verdict.Confidence,
			AnomalyScore:   verdict.Score,
			Metrics:        samples[i].Metrics,
			Recommendation: anomaly.Recommend(verdict, samples[i].Metrics),
			Verdict:        verdict,
		})
	}

	s.logger.Info("anomaly prediction served",
		slog.String("service", service),
		slog.Int("samples", len(samples)),
		slog.Duration("window", window),
	)
	return predictions, nil
}

func validateAnalyzeRequest(req models.AnalyzeRequest) error {
	if req.IncidentID == "" {
		return &utils.ValidationError{Field: "incident_id", Msg: "incident_id is required"}
	}
	if req.ServiceName == "" {
		return &utils.ValidationError{Field: "service_name", Msg: "service_name is required"}
	}
	return nil
}
