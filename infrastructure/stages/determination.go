package stages

import (
	"context"
	"fmt"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.Stage = (*DeterminationStage)(nil)

// Default blend weights for the final decision.
const (
	// DefaultConsensusWeight is the share of the blended score contributed
	// by the consensus final score.
	DefaultConsensusWeight = 0.7

	// DefaultPredictiveWeight is the share contributed by the predictive
	// outcome, after rescaling it from (0,1) onto the score range.
	DefaultPredictiveWeight = 0.3

	// predictiveRescale maps the (0,1) outcome probability onto the same
	// ~0-10 range as the consensus final score.
	predictiveRescale = 10
)

// DeterminationConfig defines the blend weights of the final decision.
type DeterminationConfig struct {
	// ConsensusWeight multiplies the consensus final score.
	ConsensusWeight float64 `yaml:"consensus_weight" json:"consensus_weight" validate:"gt=0,lt=1"`

	// PredictiveWeight multiplies the rescaled predictive outcome.
	PredictiveWeight float64 `yaml:"predictive_weight" json:"predictive_weight" validate:"gt=0,lt=1"`
}

// DefaultDeterminationConfig returns the standard 70/30 blend.
func DefaultDeterminationConfig() DeterminationConfig {
	return DeterminationConfig{
		ConsensusWeight:  DefaultConsensusWeight,
		PredictiveWeight: DefaultPredictiveWeight,
	}
}

// DeterminationStage blends each model's consensus score with its
// predictive outcome and picks the model with the strictly greater
// blended score. The comparison is a strict greater-than test against the
// first model, so an exact tie goes to the second model; downstream
// consumers depend on that exact tie-break.
type DeterminationStage struct {
	name   string
	config DeterminationConfig
}

// NewDeterminationStage creates the stage with the given blend weights.
func NewDeterminationStage(name string, config DeterminationConfig) (*DeterminationStage, error) {
	if name == "" {
		return nil, ErrEmptyStageName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &DeterminationStage{name: name, config: config}, nil
}

// Name returns the unique identifier for this stage instance.
func (s *DeterminationStage) Name() string { return s.name }

// Phase returns the pipeline phase this stage executes in.
func (s *DeterminationStage) Phase() domain.Phase { return domain.PhaseFinalDetermination }

// Validate checks that the stage is properly configured.
func (s *DeterminationStage) Validate() error {
	if err := validate.Struct(s.config); err != nil {
		return fmt.Errorf("stage %s: %w", s.name, err)
	}
	return nil
}

// Execute computes both blended scores and stores the verdict.
func (s *DeterminationStage) Execute(ctx context.Context, state domain.State) (domain.State, error) {
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
	predictions, ok := domain.Get(state, domain.KeyPredictions)
	if !ok {
		return state, domain.NewStageError(s.name, s.Phase(), ErrMissingPredictions)
	}

	blended := make(map[string]float64, len(models))
	for _, m := range models {
		entry, ok := consensus[m.ID]
		if !ok {
			return state, domain.NewStageError(s.name, s.Phase(),
				fmt.Errorf("%w: no entry for model %s", ErrMissingConsensus, m.ID))
		}
		blended[m.ID] = s.config.ConsensusWeight*entry.FinalScore +
			s.config.PredictiveWeight*predictions[m.ID]*predictiveRescale
	}

	first, second := models[0], models[1]

	// Strict greater-than against the first model; equality hands the win
	// to the second. Preserving this exact comparison keeps decisions
	// identical across versions.
	winner := second
	if blended[first.ID] > blended[second.ID] {
		winner = first
	}

	verdict := &domain.Verdict{
		Winner:  winner,
		Blended: blended,
		Reasoning: fmt.Sprintf("%s wins with blended score %.2f over %.2f",
			winner.Name, blended[winner.ID], blended[other(models, winner).ID]),
	}

	state = appendLog(state, s.Phase(), "", "winner_determined", map[string]any{
		"winner":  winner.ID,
		"blended": blended,
	})

	return domain.With(state, domain.KeyVerdict, verdict), nil
}

// other returns the model that is not the given one.
func other(models []domain.Model, m domain.Model) domain.Model {
	if models[0].ID == m.ID {
		return models[1]
	}
	return models[0]
}
