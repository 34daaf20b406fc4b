package models

import "time"

// MetricSample is one time-stamped bundle of named metric values as
// delivered by the telemetry source. Samples are immutable once captured.
type MetricSample struct {
	Timestamp time.Time          `json:"timestamp"`
	Metrics   map[string]float64 `json:"metrics"`
}

// FeatureVector is the fixed-length numeric projection of a MetricSample.
// The field order matches features.FieldNames.
type FeatureVector struct {
	Timestamp time.Time `json:"timestamp"`
	Values    []float64 `json:"values"`
}

// ContributingMetric names a metric that pushed a sample towards the
// anomalous region, with a short human-readable reason.
type ContributingMetric struct {
	Metric string `json:"metric"`
	Reason string `json:"reason"`
}

// AnomalyVerdict is the scorer output for a single feature vector.
// Confidence is the magnitude of the outlier score, not a calibrated
// probability; it is only guaranteed to grow with |Score|.
type AnomalyVerdict struct {
	Timestamp           time.Time            `json:"timestamp"`
	Score               float64              `json:"anomaly_score"`
	IsAnomaly           bool                 `json:"is_anomaly"`
	Confidence          float64              `json:"confidence"`
	ContributingMetrics []ContributingMetric `json:"contributing_metrics,omitempty"`
}

// IncidentEmbedding is the fixed-dimension vector representation of an
// incident's log signal, stored append-only in the similarity index.
type IncidentEmbedding struct {
	IncidentID string            `json:"incident_id"`
	Vector     []float64         `json:"vector"`
	Metadata   EmbeddingMetadata `json:"metadata"`
}

// EmbeddingMetadata travels alongside an embedding in the index.
type EmbeddingMetadata struct {
	Service     string `json:"service"`
	LogsExcerpt string `json:"logs_excerpt"`
	RootCause   string `json:"root_cause"`
}

// SimilarIncidentMatch is one nearest-neighbour query hit, ordered by
// ascending distance.
type SimilarIncidentMatch struct {
	IncidentID string  `json:"incident_id"`
	RootCause  string  `json:"root_cause"`
	Distance   float64 `json:"distance"`
}

// RootCauseResult is the validated shape of a reasoning-service reply.
type RootCauseResult struct {
	RootCause           string          `json:"root_cause"`
	Severity            Severity        `json:"severity"`
	Confidence          float64         `json:"confidence"`
	Impact              string          `json:"impact_assessment"`
	ContributingFactors []string        `json:"contributing_factors"`
	Timeline            []TimelineEvent `json:"timeline"`
	Recommendations     []string        `json:"recommendations"`
}

// TimelineEvent records one step in an incident's progression.
type TimelineEvent struct {
	Time  string `json:"time"`
	Event string `json:"event"`
}

// RemediationMode distinguishes immediately applied fixes from proposals
// awaiting review.
type RemediationMode string

const (
	ModeApplied         RemediationMode = "applied"
	ModePendingApproval RemediationMode = "pending_approval"
)

// RemediationArtifact is the generator output for one (incident, fix type)
// pair.
type RemediationArtifact struct {
	FixDetails map[string]string `json:"fix_details"`
	Code       string            `json:"code"`
	Mode       RemediationMode   `json:"mode"`
}

// IncidentRecord is the aggregate persisted once per analysed incident.
// Records are never mutated after persistence; corrections create a new
// record referencing the old one via SupersedesID.
type IncidentRecord struct {
	IncidentID       string                 `json:"incident_id"`
	SupersedesID     string                 `json:"supersedes_id,omitempty"`
	Timestamp        time.Time              `json:"timestamp"`
	ServiceName      string                 `json:"service_name"`
	RootCauseResult  RootCauseResult        `json:"root_cause_result"`
	Remediation      RemediationArtifact    `json:"remediation_artifact"`
	SimilarIncidents []SimilarIncidentMatch `json:"similar_incidents"`
	Timeline         []TimelineEvent        `json:"timeline"`
}

// Severity captures impact levels.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity normalises a free-form severity string, defaulting to
// medium for unknown values.
func ParseSeverity(value string) Severity {
	switch Severity(value) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(value)
	default:
		return SeverityMedium
	}
}
