// Package stages provides the match pipeline stages that implement the
// ports.Stage interface for the go-arena match engine.
package stages

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-arena/internal/domain"
)

// Common errors returned by pipeline stages.
var (
	// ErrMissingModels is returned when the competing models are absent
	// from state.
	ErrMissingModels = errors.New("models not found in state")

	// ErrMissingEvaluations is returned when a stage runs before the
	// evaluation set has been produced.
	ErrMissingEvaluations = errors.New("evaluations not found in state")

	// ErrMissingConsensus is returned when a stage runs before consensus
	// has been built.
	ErrMissingConsensus = errors.New("consensus not found in state")

	// ErrMissingPredictions is returned when determination runs before the
	// predictive stage.
	ErrMissingPredictions = errors.New("predictions not found in state")

	// ErrEmptyStageName is returned when a stage is created without a name.
	ErrEmptyStageName = errors.New("stage name cannot be empty")
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// appendLog appends one interaction log entry to the run's state-scoped log.
func appendLog(state domain.State, phase domain.Phase, slot, action string, detail map[string]any) domain.State {
	return domain.AppendLog(state, domain.InteractionLogEntry{
		Phase:  phase,
		Slot:   slot,
		Action: action,
		Detail: detail,
	})
}

// modelsFrom retrieves the competing models from state, enforcing the
// two-model run shape every stage depends on.
func modelsFrom(state domain.State) ([]domain.Model, error) {
	models, ok := domain.Get(state, domain.KeyModels)
	if !ok {
		return nil, ErrMissingModels
	}
	if len(models) != 2 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidMatchShape, len(models))
	}
	return models, nil
}

// evaluationsFrom retrieves the current evaluation set from state.
func evaluationsFrom(state domain.State) (domain.EvaluationSet, error) {
	evals, ok := domain.Get(state, domain.KeyEvaluations)
	if !ok {
		return nil, ErrMissingEvaluations
	}
	return evals, nil
}
