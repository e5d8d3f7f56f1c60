package stages

import (
	"context"
	"fmt"
	"math"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.Stage = (*PredictiveStage)(nil)

// predictiveWeights is the fixed linear combination applied to the
// confidence-weighted feature vector. The weights are a simulation
// stand-in, not learned parameters, and must stay exactly as they are for
// output parity across versions. They are reused cyclically if the feature
// vector length ever differs.
var predictiveWeights = []float64{0.2, 0.15, 0.15, 0.25, 0.15, 0.3, 0.25, 0.4}

// PredictiveStage projects each model's static attributes into a fixed
// feature vector, weights it by that model's slot confidences, and pushes
// the result through a linear-plus-sigmoid transform to obtain an outcome
// probability strictly inside (0, 1). No learning occurs.
type PredictiveStage struct {
	name    string
	weights []float64
}

// NewPredictiveStage creates the stage with the fixed weight vector.
func NewPredictiveStage(name string) (*PredictiveStage, error) {
	if name == "" {
		return nil, ErrEmptyStageName
	}
	return &PredictiveStage{name: name, weights: predictiveWeights}, nil
}

// Name returns the unique identifier for this stage instance.
func (s *PredictiveStage) Name() string { return s.name }

// Phase returns the pipeline phase this stage executes in.
func (s *PredictiveStage) Phase() domain.Phase { return domain.PhasePredictiveIntegration }

// Validate checks that the stage is properly configured.
func (s *PredictiveStage) Validate() error {
	if len(s.weights) == 0 {
		return fmt.Errorf("stage %s: weight vector is empty", s.name)
	}
	return nil
}

// Execute computes a predictive outcome per model and stores the outcome
// map. Slot confidences come from the consensus entries, i.e. they are the
// post-discussion values.
func (s *PredictiveStage) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return state, err
	}

	models, err := modelsFrom(state)
	if err != nil {
		return state, domain.NewStageError(s.name, s.Phase(), err)
	}
	consensus, ok := domain.Get(state, domain.KeyConsensus)
	if !ok {
		return state, domain.NewStageError(s.name, s.Phase(), ErrMissingConsensus)
	}

	predictions := make(map[string]float64, len(models))
	for _, m := range models {
		entry, ok := consensus[m.ID]
		if !ok {
			return state, domain.NewStageError(s.name, s.Phase(),
				fmt.Errorf("%w: no entry for model %s", ErrMissingConsensus, m.ID))
		}

		features := domain.Features(m.Attributes)
		outcome := s.predict(features, entry.Confidences)
		predictions[m.ID] = outcome

		state = appendLog(state, s.Phase(), "", "prediction_computed", map[string]any{
			"model":    m.ID,
			"features": []float64(features),
			"outcome":  outcome,
		})
	}

	return domain.With(state, domain.KeyPredictions, predictions), nil
}

// predict weights each feature by the model's confidence at slot i mod 3
// (cyclic reuse of the three slot confidences across all features),
// reduces with the fixed weights, and applies the logistic sigmoid.
func (s *PredictiveStage) predict(features domain.FeatureVector, confidences []float64) float64 {
	var sum float64
	for i, f := range features {
		weighted := f
		if len(confidences) > 0 {
			weighted *= confidences[i%len(confidences)]
		}
		sum += weighted * s.weights[i%len(s.weights)]
	}
	return sigmoid(sum)
}

// sigmoid is the logistic function 1 / (1 + e^-x).
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
