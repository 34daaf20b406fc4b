package anomaly

import (
	"encoding/json"
	"fmt"
	"os"
)

// FittedModel is the offline-trained scaler plus decision threshold the
// scorer consumes. Training happens out of process; the engine only ever
// loads a finished model file and treats it as immutable.
type FittedModel struct {
	// FieldNames records the feature order the model was fitted on.
	FieldNames []string `json:"field_names"`
	// Means and StdDevs hold the per-dimension scaler parameters.
	Means   []float64 `json:"means"`
	StdDevs []float64 `json:"std_devs"`
	// Threshold is the decision boundary baked in at fit time from the
	// contamination rate. Scores below it are labelled anomalous.
	Threshold float64 `json:"threshold"`
	// Contamination is the assumed outlier fraction used during fitting,
	// kept for provenance only.
	Contamination float64 `json:"contamination"`
}

// Dimension returns the feature dimension the model was fitted on.
func (m *FittedModel) Dimension() int {
	return len(m.Means)
}

// Validate checks internal consistency of a loaded model.
func (m *FittedModel) Validate() error {
	if len(m.Means) == 0 {
		return fmt.Errorf("model has no scaler means")
	}
	if len(m.Means) != len(m.StdDevs) {
		return fmt.Errorf("scaler means/stddevs length mismatch: %d vs %d", len(m.Means), len(m.StdDevs))
	}
	if len(m.FieldNames) != 0 && len(m.FieldNames) != len(m.Means) {
		return fmt.Errorf("field names length %d does not match scaler dimension %d", len(m.FieldNames), len(m.Means))
	}
	for i, sd := range m.StdDevs {
		if sd <= 0 {
			return fmt.Errorf("scaler stddev[%d] must be positive, got %f", i, sd)
		}
	}
	return nil
}

// LoadModel reads a fitted model from a JSON file.
func LoadModel(path string) (*FittedModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var model FittedModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	return &model, nil
}
