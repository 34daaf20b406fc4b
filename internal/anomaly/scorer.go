package anomaly

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/incidentops/triage-engine/internal/features"
	"github.com/incidentops/triage-engine/internal/models"
	"github.com/incidentops/triage-engine/internal/utils"
)

// topContributors caps how many offending metrics a verdict reports.
const topContributors = 3

// Scorer applies a pre-fitted outlier model to feature vectors. The
// model is read-shared across concurrent Score calls; Reload swaps the
// whole pointer so in-flight reads never observe a partial update.
type Scorer struct {
	model atomic.Pointer[FittedModel]
}

// NewScorer constructs a Scorer; model may be nil until Reload is called.
func NewScorer(model *FittedModel) *Scorer {
	s := &Scorer{}
	if model != nil {
		s.model.Store(model)
	}
	return s
}

// Reload atomically replaces the fitted model.
func (s *Scorer) Reload(model *FittedModel) error {
	if model == nil {
		return fmt.Errorf("cannot reload nil model")
	}
	if err := model.Validate(); err != nil {
		return err
	}
	s.model.Store(model)
	return nil
}

// Ready reports whether a usable model is loaded.
func (s *Scorer) Ready() bool {
	return s.model.Load() != nil
}

// Score produces one verdict per vector, same order as the input.
// The score is the negated RMS deviation of the scaled vector: more
// negative means more anomalous. Confidence is |score|, a monotone
// magnitude rather than a calibrated probability.
func (s *Scorer) Score(vectors []models.FeatureVector) ([]models.AnomalyVerdict, error) {
	model := s.model.Load()
	if model == nil {
		return nil, &utils.ModelNotReadyError{Reason: "no fitted model loaded"}
	}

	verdicts := make([]models.AnomalyVerdict, 0, len(vectors))
	for _, vec := range vectors {
		if len(vec.Values) != model.Dimension() {
			return nil, &utils.ModelNotReadyError{
				Reason: fmt.Sprintf("vector dimension %d does not match model dimension %d", len(vec.Values), model.Dimension()),
			}
		}

		zScores := make([]float64, len(vec.Values))
		sumSq := 0.0
		for i, v := range vec.Values {
			z := (v - model.Means[i]) / model.StdDevs[i]
			zScores[i] = z
			sumSq += z * z
		}
		rms := math.Sqrt(sumSq / float64(len(vec.Values)))
		score := -rms

		verdict := models.AnomalyVerdict{
			Timestamp:  vec.Timestamp,
			Score:      score,
			IsAnomaly:  score < model.Threshold,
			Confidence: math.Abs(score),
		}
		if verdict.IsAnomaly {
			verdict.ContributingMetrics = rankContributors(model, zScores)
		}
		verdicts = append(verdicts, verdict)
	}
	return verdicts, nil
}

// rankContributors orders metrics by |z| descending with a stable
// tie-break on canonical field position.
func rankContributors(model *FittedModel, zScores []float64) []models.ContributingMetric {
	idx := make([]int, len(zScores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return math.Abs(zScores[idx[a]]) > math.Abs(zScores[idx[b]])
	})

	limit := topContributors
	if len(idx) < limit {
		limit = len(idx)
	}

	contributors := make([]models.ContributingMetric, 0, limit)
	for _, i := range idx[:limit] {
		contributors = append(contributors, models.ContributingMetric{
			Metric: fieldName(model, i),
			Reason: deviationReason(zScores[i]),
		})
	}
	return contributors
}

func fieldName(model *FittedModel, i int) string {
	if i < len(model.FieldNames) {
		return model.FieldNames[i]
	}
	if i < len(features.FieldNames) {
		return features.FieldNames[i]
	}
	return fmt.Sprintf("field_%d", i)
}

func deviationReason(z float64) string {
	direction := "above"
	if z < 0 {
		direction = "below"
	}
	return fmt.Sprintf("%.1f standard deviations %s population mean", math.Abs(z), direction)
}
