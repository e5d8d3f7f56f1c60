package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.Stage = (*DiscussionStage)(nil)

// Default discussion parameters.
const (
	// DefaultVarianceThreshold is the per-model score variance above which
	// a convergence round runs.
	DefaultVarianceThreshold = 2.0

	// DefaultConvergenceRate is how far each score moves toward its
	// model's mean during a convergence round.
	DefaultConvergenceRate = 0.4

	// DefaultConfidenceGain is the fraction of each confidence's remaining
	// distance to 1.0 recovered during a convergence round.
	DefaultConfidenceGain = 0.3
)

// DiscussionConfig defines the tunable parameters of the discussion stage.
type DiscussionConfig struct {
	// VarianceThreshold triggers a convergence round when exceeded by any
	// model's score variance.
	VarianceThreshold float64 `yaml:"variance_threshold" json:"variance_threshold" validate:"min=0"`

	// ConvergenceRate is the interpolation factor toward the mean.
	ConvergenceRate float64 `yaml:"convergence_rate" json:"convergence_rate" validate:"gt=0,lt=1"`

	// ConfidenceGain is the confidence recovery factor.
	ConfidenceGain float64 `yaml:"confidence_gain" json:"confidence_gain" validate:"gt=0,lt=1"`
}

// DefaultDiscussionConfig returns a DiscussionConfig with the standard
// parameters.
func DefaultDiscussionConfig() DiscussionConfig {
	return DiscussionConfig{
		VarianceThreshold: DefaultVarianceThreshold,
		ConvergenceRate:   DefaultConvergenceRate,
		ConfidenceGain:    DefaultConfidenceGain,
	}
}

// DiscussionStage measures how much the three judges disagree about each
// model and, when disagreement exceeds the threshold, runs exactly one
// convergence round that pulls every score toward its model's mean and
// raises every confidence toward 1.0. The stage never iterates to a fixed
// point; a single round is the designed behavior.
type DiscussionStage struct {
	name   string
	config DiscussionConfig
}

// NewDiscussionStage creates the stage with the given configuration.
func NewDiscussionStage(name string, config DiscussionConfig) (*DiscussionStage, error) {
	if name == "" {
		return nil, ErrEmptyStageName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &DiscussionStage{name: name, config: config}, nil
}

// Name returns the unique identifier for this stage instance.
func (s *DiscussionStage) Name() string { return s.name }

// Phase returns the pipeline phase this stage executes in.
func (s *DiscussionStage) Phase() domain.Phase { return domain.PhaseDiscussion }

// Validate checks that the stage is properly configured.
func (s *DiscussionStage) Validate() error {
	if err := validate.Struct(s.config); err != nil {
		return fmt.Errorf("stage %s: %w", s.name, err)
	}
	return nil
}

// Execute computes per-model score variances and runs at most one
// convergence round. It stores the (possibly replaced) evaluation set, the
// variance map, and a reasoning summary.
func (s *DiscussionStage) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return state, err
	}

	models, err := modelsFrom(state)
	if err != nil {
		return state, domain.NewStageError(s.name, s.Phase(), err)
	}
	evals, err := evaluationsFrom(state)
	if err != nil {
		return state, domain.NewStageError(s.name, s.Phase(), err)
	}

	variances := make(map[string]float64, len(models))
	maxVariance := 0.0
	for _, m := range models {
		v := evals.Variance(m.ID)
		variances[m.ID] = v
		if v > maxVariance {
			maxVariance = v
		}
	}

	state = appendLog(state, s.Phase(), "", "variance_computed", map[string]any{
		"variances":     variances,
		"max_variance":  maxVariance,
		"threshold":     s.config.VarianceThreshold,
		"needs_refresh": maxVariance > s.config.VarianceThreshold,
	})

	var reasoning string
	if maxVariance > s.config.VarianceThreshold {
		evals = s.converge(evals, models)
		reasoning = fmt.Sprintf("Disagreement detected, refined after discussion (%s)",
			varianceSummary(models, variances))

		state = appendLog(state, s.Phase(), "", "convergence_round", map[string]any{
			"convergence_rate": s.config.ConvergenceRate,
			"confidence_gain":  s.config.ConfidenceGain,
		})
	} else {
		reasoning = fmt.Sprintf("Agreement achieved (%s)", varianceSummary(models, variances))
	}

	state = domain.With(state, domain.KeyVariances, variances)
	state = domain.With(state, domain.KeyDiscussionReasoning, reasoning)
	return domain.With(state, domain.KeyEvaluations, evals), nil
}

// converge builds the adjusted evaluation set for one convergence round.
// Means are taken from the pre-adjustment set, so slot order inside the
// round cannot influence the outcome.
func (s *DiscussionStage) converge(evals domain.EvaluationSet, models []domain.Model) domain.EvaluationSet {
	adjusted := evals.Clone()

	for _, m := range models {
		mean := domain.Mean(evals.Scores(m.ID))
		for _, slot := range domain.Slots() {
			ev := evals[slot][m.ID]
			ev.Score = ev.Score*(1-s.config.ConvergenceRate) + mean*s.config.ConvergenceRate
			ev.Confidence = ev.Confidence + (1-ev.Confidence)*s.config.ConfidenceGain
			adjusted[slot][m.ID] = ev
		}
	}
	return adjusted
}

// varianceSummary renders per-model variances to two decimal places, e.g.
// "Alpha variance 5.56; Beta variance 0.89".
func varianceSummary(models []domain.Model, variances map[string]float64) string {
	parts := make([]string, 0, len(models))
	for _, m := range models {
		parts = append(parts, fmt.Sprintf("%s variance %.2f", m.Name, variances[m.ID]))
	}
	return strings.Join(parts, "; ")
}
