package anomaly

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/incidentops/triage-engine/internal/features"
	"github.com/incidentops/triage-engine/internal/models"
	"github.com/incidentops/triage-engine/internal/utils"
)

func testModel() *FittedModel {
	means := make([]float64, features.Dimension)
	stds := make([]float64, features.Dimension)
	// Population centred at 50 for the percentage fields, 1 elsewhere.
	for i := range means {
		means[i] = 50
		stds[i] = 10
	}
	return &FittedModel{
		FieldNames:    append([]string(nil), features.FieldNames...),
		Means:         means,
		StdDevs:       stds,
		Threshold:     -2.0,
		Contamination: 0.02,
	}
}

func vectorAt(values []float64) models.FeatureVector {
	return models.FeatureVector{Timestamp: time.Now().UTC(), Values: values}
}

func uniformVector(v float64) []float64 {
	values := make([]float64, features.Dimension)
	for i := range values {
		values[i] = v
	}
	return values
}

func TestScoreNotReady(t *testing.T) {
	s := NewScorer(nil)
	if s.Ready() {
		t.Fatal("scorer with nil model should not be ready")
	}
	_, err := s.Score([]models.FeatureVector{vectorAt(uniformVector(50))})
	var notReady *utils.ModelNotReadyError
	if !errors.As(err, &notReady) {
		t.Fatalf("expected ModelNotReadyError, got %v", err)
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer(testModel())
	vectors := []models.FeatureVector{vectorAt(uniformVector(95))}

	first, err := s.Score(vectors)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	second, err := s.Score(vectors)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if first[0].Score != second[0].Score || first[0].IsAnomaly != second[0].IsAnomaly {
		t.Errorf("scores differ across identical calls: %+v vs %+v", first[0], second[0])
	}
}

func TestScoreVerdicts(t *testing.T) {
	s := NewScorer(testModel())

	tests := []struct {
		name      string
		values    []float64
		isAnomaly bool
	}{
		{name: "at population mean", values: uniformVector(50), isAnomaly: false},
		{name: "one sigma off", values: uniformVector(60), isAnomaly: false},
		{name: "far outlier", values: uniformVector(95), isAnomaly: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdicts, err := s.Score([]models.FeatureVector{vectorAt(tt.values)})
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			v := verdicts[0]
			if v.IsAnomaly != tt.isAnomaly {
				t.Errorf("IsAnomaly = %v, want %v (score %v)", v.IsAnomaly, tt.isAnomaly, v.Score)
			}
			if v.Score > 0 {
				t.Errorf("score must be non-positive, got %v", v.Score)
			}
			if v.Confidence != math.Abs(v.Score) {
				t.Errorf("confidence %v != |score| %v", v.Confidence, v.Score)
			}
		})
	}
}

func TestScoreContributingMetrics(t *testing.T) {
	s := NewScorer(testModel())

	// memory_usage deviates most, then cpu_usage, then response_time.
	values := uniformVector(50)
	values[0] = 90  // cpu_usage: +4 sigma
	values[1] = 100 // memory_usage: +5 sigma
	values[2] = 85  // response_time: +3.5 sigma

	verdicts, err := s.Score([]models.FeatureVector{vectorAt(values)})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	v := verdicts[0]
	if !v.IsAnomaly {
		t.Fatalf("expected anomaly, score %v", v.Score)
	}
	if len(v.ContributingMetrics) != 3 {
		t.Fatalf("expected 3 contributing metrics, got %d", len(v.ContributingMetrics))
	}
	wantOrder := []string{"memory_usage", "cpu_usage", "response_time"}
	for i, want := range wantOrder {
		if v.ContributingMetrics[i].Metric != want {
			t.Errorf("contributor[%d] = %s, want %s", i, v.ContributingMetrics[i].Metric, want)
		}
	}
	if v.ContributingMetrics[0].Reason == "" {
		t.Error("contributor reason must not be empty")
	}
}

func TestScoreNormalVerdictHasNoContributors(t *testing.T) {
	s := NewScorer(testModel())
	verdicts, err := s.Score([]models.FeatureVector{vectorAt(uniformVector(52))})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if verdicts[0].IsAnomaly {
		t.Fatalf("expected normal verdict, score %v", verdicts[0].Score)
	}
	if len(verdicts[0].ContributingMetrics) != 0 {
		t.Errorf("normal verdict should carry no contributors, got %d", len(verdicts[0].ContributingMetrics))
	}
}

func TestScoreDimensionMismatch(t *testing.T) {
	s := NewScorer(testModel())
	_, err := s.Score([]models.FeatureVector{vectorAt([]float64{1, 2, 3})})
	var notReady *utils.ModelNotReadyError
	if !errors.As(err, &notReady) {
		t.Fatalf("expected ModelNotReadyError on dimension mismatch, got %v", err)
	}
}

func TestReloadSwapsModel(t *testing.T) {
	s := NewScorer(nil)
	if err := s.Reload(testModel()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if !s.Ready() {
		t.Fatal("scorer should be ready after reload")
	}
	if err := s.Reload(nil); err == nil {
		t.Error("Reload(nil) should fail")
	}
	if err := s.Reload(&FittedModel{Means: []float64{1}, StdDevs: []float64{0}}); err == nil {
		t.Error("Reload with non-positive stddev should fail")
	}
}
