package features

import (
	"math"

	"github.com/incidentops/triage-engine/internal/models"
	"github.com/incidentops/triage-engine/internal/utils"
)

// FieldNames is the canonical metric order for feature vectors. The
// scorer, the fitted model file, and contributing-metric ranking all
// depend on this order staying fixed.
var FieldNames = []string{
	"cpu_usage",
	"memory_usage",
	"response_time",
	"error_rate",
	"request_rate",
	"network_rx",
	"network_tx",
}

// Dimension is the fixed feature vector length.
var Dimension = len(FieldNames)

// bounds clamp each field to its domain. A negative Max means unbounded
// above.
type bounds struct {
	Min float64
	Max float64
}

var fieldBounds = map[string]bounds{
	"cpu_usage":     {Min: 0, Max: 100},
	"memory_usage":  {Min: 0, Max: 100},
	"response_time": {Min: 0, Max: -1},
	"error_rate":    {Min: 0, Max: 1},
	"request_rate":  {Min: 0, Max: -1},
	"network_rx":    {Min: 0, Max: -1},
	"network_tx":    {Min: 0, Max: -1},
}

// Windowizer converts raw metric samples into fixed-dimension feature
// vectors. It is a pure transformation with no I/O.
type Windowizer struct{}

// NewWindowizer constructs a Windowizer.
func NewWindowizer() *Windowizer {
	return &Windowizer{}
}

// Extract produces one FeatureVector per sample, order-preserving.
// Missing metrics default to 0 and values are clamped to their domain
// bounds. Non-finite values fail with a ValidationError.
func (w *Windowizer) Extract(samples []models.MetricSample) ([]models.FeatureVector, error) {
	vectors := make([]models.FeatureVector, 0, len(samples))
	for _, sample := range samples {
		values := make([]float64, Dimension)
		for i, field := range FieldNames {
			raw, ok := sample.Metrics[field]
			if !ok {
				continue
			}
			if math.IsNaN(raw) || math.IsInf(raw, 0) {
				return nil, &utils.ValidationError{Field: field, Msg: "value is not a finite number"}
			}
			values[i] = clampField(field, raw)
		}
		vectors = append(vectors, models.FeatureVector{Timestamp: sample.Timestamp, Values: values})
	}
	return vectors, nil
}

func clampField(field string, value float64) float64 {
	b, ok := fieldBounds[field]
	if !ok {
		return value
	}
	if value < b.Min {
		return b.Min
	}
	if b.Max >= 0 && value > b.Max {
		return b.Max
	}
	return value
}
