package utils

import "fmt"

// AppError wraps an operation, human-facing message, and underlying error.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}

// The pipeline reports failures through a closed set of typed errors so
// callers can branch with errors.As instead of matching message text.

// ValidationError flags malformed input data. Recoverable: reject the
// single item and continue.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Msg)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
}

// ModelNotReadyError signals the anomaly scorer has no usable fitted
// model. Callers surface this as "prediction unavailable", never as a
// verdict.
type ModelNotReadyError struct {
	Reason string
}

func (e *ModelNotReadyError) Error() string {
	return fmt.Sprintf("anomaly model not ready: %s", e.Reason)
}

// DimensionMismatchError rejects an embedding whose shape does not match
// the index.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// ReasoningUnavailableError is fatal for the current analysis request:
// the external reasoning call failed, timed out, or returned an
// unparseable reply. It carries enough structure for an upstream retry.
type ReasoningUnavailableError struct {
	IncidentID string
	Stage      string
	Err        error
}

func (e *ReasoningUnavailableError) Error() string {
	return fmt.Sprintf("reasoning unavailable for incident %s at stage %s: %v", e.IncidentID, e.Stage, e.Err)
}

func (e *ReasoningUnavailableError) Unwrap() error { return e.Err }

// PersistenceError is best-effort: logged, never failing an
// already-returned analysis result.
type PersistenceError struct {
	IncidentID string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist incident %s: %v", e.IncidentID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
