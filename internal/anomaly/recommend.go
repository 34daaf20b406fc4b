package anomaly

import (
	"strings"

	"github.com/incidentops/triage-engine/internal/models"
)

// NoActionMessage is returned for samples the model considers normal.
const NoActionMessage = "No action required - metrics within normal range"

// Recommend derives a triage hint from a verdict and the raw metrics of
// the originating sample. Threshold rules only; the reasoning service
// owns the full diagnosis.
func Recommend(verdict models.AnomalyVerdict, metrics map[string]float64) string {
	if !verdict.IsAnomaly {
		return NoActionMessage
	}

	hints := make([]string, 0, 4)
	if metrics["cpu_usage"] > 80 {
		hints = append(hints, "High CPU detected - consider scaling horizontally")
	}
	if metrics["memory_usage"] > 85 {
		hints = append(hints, "High memory usage - check for memory leaks or increase limits")
	}
	if metrics["response_time"] > 1000 {
		hints = append(hints, "Elevated response time - investigate database queries or external API calls")
	}
	if metrics["error_rate"] > 0.05 {
		hints = append(hints, "High error rate - check application logs for exceptions")
	}

	if len(hints) == 0 {
		return "Anomaly detected - manual investigation recommended"
	}
	return strings.Join(hints, " | ")
}
