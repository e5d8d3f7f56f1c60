package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during a match run.
var (
	// ErrAggregationFailed indicates a degenerate aggregation, reachable
	// only when all three slot confidences for a model are zero. The run
	// fails whole rather than guessing a recovery value.
	ErrAggregationFailed = errors.New("aggregation failed")

	// ErrInvalidMatchShape indicates a run was requested with anything
	// other than exactly two distinct models.
	ErrInvalidMatchShape = errors.New("match requires exactly two distinct models")

	// ErrKeyNotFound indicates that a requested state key does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidConfiguration indicates configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// StageError wraps a failure from one pipeline stage with enough context
// to attribute it.
type StageError struct {
	// Stage is the name of the stage that failed.
	Stage string

	// Phase is the pipeline phase the stage runs in.
	Phase Phase

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface for StageError.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s (%s): %v", e.Stage, e.Phase, e.Err)
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *StageError) Unwrap() error { return e.Err }

// NewStageError creates a StageError with the given details.
func NewStageError(stage string, phase Phase, err error) *StageError {
	return &StageError{Stage: stage, Phase: phase, Err: err}
}
