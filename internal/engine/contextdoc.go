package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/incidentops/triage-engine/internal/models"
)

// Payload caps keep the context document bounded regardless of how much
// telemetry the caller attaches.
const (
	maxContextLogLines  = 50
	maxContextTraces    = 10
	maxContextIncidents = 3
)

// BuildContextDocument assembles the bounded, deterministic bundle
// handed to the reasoning service. Identical inputs always produce the
// same document: metric keys are sorted and list caps are fixed.
func BuildContextDocument(metrics map[string]float64, logs []string, traces []map[string]any, similar []models.SimilarIncidentMatch) string {
	var b strings.Builder

	b.WriteString("## METRICS\n```json\n")
	b.WriteString(formatMetrics(metrics))
	b.WriteString("\n```\n")

	b.WriteString("\n## RECENT LOGS\n```\n")
	start := 0
	if len(logs) > maxContextLogLines {
		start = len(logs) - maxContextLogLines
	}
	for _, line := range logs[start:] {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("```\n")

	if len(traces) > 0 {
		limit := len(traces)
		if limit > maxContextTraces {
			limit = maxContextTraces
		}
		b.WriteString("\n## DISTRIBUTED TRACES\n```json\n")
		// json.Marshal sorts map keys, keeping the trace block stable.
		if data, err := json.Marshal(traces[:limit]); err == nil {
			b.Write(data)
		}
		b.WriteString("\n```\n")
	}

	if len(similar) > 0 {
		limit := len(similar)
		if limit > maxContextIncidents {
			limit = maxContextIncidents
		}
		b.WriteString("\n## SIMILAR PAST INCIDENTS\n")
		for _, match := range similar[:limit] {
			fmt.Fprintf(&b, "- **%s**: %s (distance %.4f)\n", match.IncidentID, match.RootCause, match.Distance)
		}
	}

	return b.String()
}

func formatMetrics(metrics map[string]float64) string {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: %g", k, metrics[k])
	}
	b.WriteString("}")
	return b.String()
}
