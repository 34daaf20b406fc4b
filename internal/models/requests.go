package models

import "time"

// AnalyzeRequest carries everything the orchestrator needs for one
// incident analysis.
type AnalyzeRequest struct {
	IncidentID  string             `json:"incident_id"`
	Timestamp   time.Time          `json:"timestamp"`
	ServiceName string             `json:"service_name"`
	Metrics     map[string]float64 `json:"metrics"`
	Logs        []string           `json:"logs"`
	Traces      []map[string]any   `json:"traces,omitempty"`
	Severity    string             `json:"severity,omitempty"`
}

// IncidentAnalysisResult is the flattened pipeline output handed to the
// transport layer.
type IncidentAnalysisResult struct {
	IncidentID       string                 `json:"incident_id"`
	RootCause        string                 `json:"root_cause"`
	Severity         Severity               `json:"severity"`
	Confidence       float64                `json:"confidence"`
	ImpactAssessment string                 `json:"impact_assessment"`
	RecommendedFix   map[string]string      `json:"recommended_fix"`
	GeneratedCode    string                 `json:"generated_code"`
	SimilarIncidents []SimilarIncidentMatch `json:"similar_incidents"`
	Timeline         []TimelineEvent        `json:"timeline"`
}

// AnomalyPrediction joins a verdict with the raw metrics it was derived
// from plus a rule-based recommendation string.
type AnomalyPrediction struct {
	ServiceName    string             `json:"service_name"`
	Timestamp      time.Time          `json:"timestamp"`
	IsAnomaly      bool               `json:"is_anomaly"`
	Confidence     float64            `json:"confidence"`
	AnomalyScore   float64            `json:"anomaly_score"`
	Metrics        map[string]float64 `json:"predicted_metrics"`
	Recommendation string             `json:"recommendation"`
	Verdict        AnomalyVerdict     `json:"verdict"`
}
