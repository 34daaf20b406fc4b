package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/incidentops/triage-engine/internal/metrics"
	"github.com/incidentops/triage-engine/internal/models"
	"github.com/incidentops/triage-engine/internal/reasoning"
	"github.com/incidentops/triage-engine/internal/utils"
)

// Stage names the steps of the analysis state machine, reported in
// failure details so callers can retry without re-deriving context.
type Stage string

const (
	StageRetrievingSimilar  Stage = "RETRIEVING_SIMILAR"
	StageBuildingContext    Stage = "BUILDING_CONTEXT"
	StageReasoning          Stage = "REASONING"
	StageValidating         Stage = "VALIDATING"
	StageGeneratingFix      Stage = "GENERATING_FIX"
	StageAssemblingTimeline Stage = "ASSEMBLING_TIMELINE"
	StagePersisting         Stage = "PERSISTING"
	StageDone               Stage = "DONE"
	StageFailed             Stage = "FAILED"
)

// SimilarityIndex is the nearest-neighbour store consumed by the
// orchestrator.
type SimilarityIndex interface {
	Insert(emb models.IncidentEmbedding) error
	Query(vector []float64, topK int) ([]models.SimilarIncidentMatch, error)
}

// Embedder derives embedding vectors from log text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Reasoner is the external reasoning-service capability.
type Reasoner interface {
	Analyze(ctx context.Context, incidentID, contextDoc string) (reasoning.Reply, error)
}

// FixGenerator produces remediation artifacts from root-cause labels.
type FixGenerator interface {
	Generate(rootCause, serviceName string, severity models.Severity) models.RemediationArtifact
}

// Sink persists completed incident records.
type Sink interface {
	Upsert(ctx context.Context, record models.IncidentRecord) error
}

// embeddingLogLines bounds how many leading log lines feed the
// similarity embedding.
const embeddingLogLines = 10

// persistTimeout bounds the deferred background write.
const persistTimeout = 10 * time.Second

// Orchestrator sequences one incident analysis through retrieval,
// reasoning, remediation, and persistence. Independent requests run
// concurrently; the only shared state is the similarity index.
type Orchestrator struct {
	logger       *slog.Logger
	index        SimilarityIndex
	embedder     Embedder
	reasoner     Reasoner
	fixGenerator FixGenerator
	sink         Sink
	similarTopK  int

	persistWG sync.WaitGroup
}

// NewOrchestrator constructs the analysis orchestrator.
func NewOrchestrator(
	logger *slog.Logger,
	idx SimilarityIndex,
	embedder Embedder,
	reasoner Reasoner,
	fixGenerator FixGenerator,
	sink Sink,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		logger:       logger,
		index:        idx,
		embedder:     embedder,
		reasoner:     reasoner,
		fixGenerator: fixGenerator,
		sink:         sink,
		similarTopK:  maxContextIncidents,
	}
}

// Analyze runs the state machine for a single request. The persistence
// stage is fire-and-forget: the result returns as soon as the timeline
// is assembled, and the record write completes in the background.
func (o *Orchestrator) Analyze(ctx context.Context, req models.AnalyzeRequest) (models.IncidentAnalysisResult, error) {
	log := o.logger.With(slog.String("incident_id", req.IncidentID), slog.String("service", req.ServiceName))

	// RETRIEVING_SIMILAR: non-fatal; an unavailable index or embedder
	// degrades to an empty neighbour list.
	similar := o.retrieveSimilar(ctx, req, log)

	// BUILDING_CONTEXT: pure and deterministic.
	contextDoc := BuildContextDocument(req.Metrics, req.Logs, req.Traces, similar)

	// REASONING: the single fatal external call.
	reply, err := o.reasoner.Analyze(ctx, req.IncidentID, contextDoc)
	if err != nil {
		log.Error("reasoning stage failed", slog.Any("error", err))
		return models.IncidentAnalysisResult{}, &utils.ReasoningUnavailableError{
			IncidentID: req.IncidentID,
			Stage:      string(StageReasoning),
			Err:        err,
		}
	}

	// VALIDATING: missing fields default rather than fail. A partial
	// diagnosis beats none.
	rootCause := validateReply(reply)

	// GENERATING_FIX.
	artifact := o.fixGenerator.Generate(rootCause.RootCause, req.ServiceName, rootCause.Severity)

	// ASSEMBLING_TIMELINE.
	timeline := assembleTimeline(req.Timestamp, time.Now().UTC())

	result := models.IncidentAnalysisResult{
		IncidentID:       req.IncidentID,
		RootCause:        rootCause.RootCause,
		Severity:         rootCause.Severity,
		Confidence:       rootCause.Confidence,
		ImpactAssessment: rootCause.Impact,
		RecommendedFix:   artifact.FixDetails,
		GeneratedCode:    artifact.Code,
		SimilarIncidents: similar,
		Timeline:         timeline,
	}

	// PERSISTING: deferred; tracked so Close can flush on shutdown.
	record := models.IncidentRecord{
		IncidentID:       req.IncidentID,
		Timestamp:        req.Timestamp,
		ServiceName:      req.ServiceName,
		RootCauseResult:  rootCause,
		Remediation:      artifact,
		SimilarIncidents: similar,
		Timeline:         timeline,
	}
	o.persistWG.Add(1)
	go o.persist(record, req.Logs, log)

	log.Info("incident analysis complete",
		slog.String("root_cause", rootCause.RootCause),
		slog.String("severity", string(rootCause.Severity)),
	)
	return result, nil
}

// Close waits for in-flight background persistence, bounded by ctx.
func (o *Orchestrator) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.persistWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) retrieveSimilar(ctx context.Context, req models.AnalyzeRequest, log *slog.Logger) []models.SimilarIncidentMatch {
	if o.index == nil || o.embedder == nil {
		return nil
	}

	vector, err := o.embedder.Embed(ctx, embeddingExcerpt(req.Logs))
	if err != nil {
		log.Warn("embedding derivation failed, continuing without similar incidents", slog.Any("error", err))
		return nil
	}

	matches, err := o.index.Query(vector, o.similarTopK)
	if err != nil {
		log.Warn("similarity lookup failed, continuing without similar incidents", slog.Any("error", err))
		return nil
	}
	return matches
}

// persist runs detached from the caller's context: the result has
// already been returned by the time this write lands.
func (o *Orchestrator) persist(record models.IncidentRecord, logs []string, log *slog.Logger) {
	defer o.persistWG.Done()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if o.sink != nil {
		if err := o.sink.Upsert(ctx, record); err != nil {
			perr := &utils.PersistenceError{IncidentID: record.IncidentID, Err: err}
			metrics.CountPersistenceFailure()
			log.Error("incident record persistence failed", slog.Any("error", perr))
		}
	}

	// Index the resolved incident so future analyses can recall it.
	if o.index == nil || o.embedder == nil {
		return
	}
	vector, err := o.embedder.Embed(ctx, embeddingExcerpt(logs))
	if err != nil {
		log.Warn("embedding for index insert failed", slog.Any("error", err))
		return
	}
	emb := models.IncidentEmbedding{
		IncidentID: record.IncidentID,
		Vector:     vector,
		Metadata: models.EmbeddingMetadata{
			Service:     record.ServiceName,
			LogsExcerpt: embeddingExcerpt(logs),
			RootCause:   record.RootCauseResult.RootCause,
		},
	}
	if err := o.index.Insert(emb); err != nil {
		log.Warn("similarity index insert failed", slog.Any("error", err))
	}
}

// validateReply maps a raw reasoning reply onto the RootCauseResult
// schema, defaulting absent fields.
func validateReply(reply reasoning.Reply) models.RootCauseResult {
	result := models.RootCauseResult{
		RootCause:           "Unknown",
		Severity:            models.SeverityMedium,
		Confidence:          0.0,
		Impact:              "Unknown impact",
		ContributingFactors: reply.ContributingFactors,
		Recommendations:     reply.Recommendations,
	}
	if reply.RootCause != nil && strings.TrimSpace(*reply.RootCause) != "" {
		result.RootCause = *reply.RootCause
	}
	if reply.Severity != nil {
		result.Severity = models.ParseSeverity(*reply.Severity)
	}
	if reply.Confidence != nil {
		result.Confidence = clampUnit(*reply.Confidence)
	}
	if reply.ImpactAssessment != nil && strings.TrimSpace(*reply.ImpactAssessment) != "" {
		result.Impact = *reply.ImpactAssessment
	}
	for _, item := range reply.Timeline {
		result.Timeline = append(result.Timeline, models.TimelineEvent{Time: item.Time, Event: item.Event})
	}
	return result
}

func assembleTimeline(detectedAt, completedAt time.Time) []models.TimelineEvent {
	if detectedAt.IsZero() {
		detectedAt = completedAt
	}
	return []models.TimelineEvent{
		{Time: detectedAt.UTC().Format(time.RFC3339), Event: "Incident detected"},
		{Time: completedAt.UTC().Format(time.RFC3339), Event: "RCA completed"},
		{Time: completedAt.UTC().Format(time.RFC3339), Event: "Fix generated"},
	}
}

func embeddingExcerpt(logs []string) string {
	limit := len(logs)
	if limit > embeddingLogLines {
		limit = embeddingLogLines
	}
	return strings.Join(logs[:limit], "\n")
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
