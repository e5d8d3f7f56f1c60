package stages

import (
	"context"
	"fmt"
	"math"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.Stage = (*ConsensusStage)(nil)

// DefaultOverallConfidence is the defensive decision confidence used when
// a run somehow carries fewer than two models. It is not a supported run
// shape, but the stage degrades rather than dividing into garbage.
const DefaultOverallConfidence = 0.7

// ConsensusStage reduces each model's three evaluations into a single
// confidence-weighted score and derives one shared decision confidence
// from the gap between the two models' final scores.
type ConsensusStage struct {
	name string
}

// NewConsensusStage creates the stage.
func NewConsensusStage(name string) (*ConsensusStage, error) {
	if name == "" {
		return nil, ErrEmptyStageName
	}
	return &ConsensusStage{name: name}, nil
}

// Name returns the unique identifier for this stage instance.
func (s *ConsensusStage) Name() string { return s.name }

// Phase returns the pipeline phase this stage executes in.
func (s *ConsensusStage) Phase() domain.Phase { return domain.PhaseConsensusBuilding }

// Validate checks that the stage is properly configured.
func (s *ConsensusStage) Validate() error { return nil }

// Execute builds the per-model consensus entries and the shared overall
// confidence. An all-zero confidence sum is a fatal aggregation error for
// the run; both evaluator paths guarantee confidences of at least 0.7, so
// reaching it means a malformed source response slipped past filtering.
func (s *ConsensusStage) Execute(ctx context.Context, state domain.State) (domain.State, error) {
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

	consensus := make(map[string]domain.ConsensusEntry, len(models))
	for _, m := range models {
		entry, err := buildConsensusEntry(evals, m.ID)
		if err != nil {
			return state, domain.NewStageError(s.name, s.Phase(), err)
		}
		consensus[m.ID] = entry

		state = appendLog(state, s.Phase(), "", "consensus_reached", map[string]any{
			"model":       m.ID,
			"scores":      entry.Scores,
			"confidences": entry.Confidences,
			"final_score": entry.FinalScore,
		})
	}

	overall := DefaultOverallConfidence
	if len(models) >= 2 {
		gap := math.Abs(consensus[models[0].ID].FinalScore - consensus[models[1].ID].FinalScore)
		overall = math.Min(1.0, gap/2+0.5)
	}

	state = appendLog(state, s.Phase(), "", "overall_confidence", map[string]any{
		"confidence": overall,
	})

	state = domain.With(state, domain.KeyConsensus, consensus)
	return domain.With(state, domain.KeyOverallConfidence, overall), nil
}

// buildConsensusEntry computes the confidence-weighted reduction for one
// model: finalScore = sum(score*confidence) / sum(confidence).
func buildConsensusEntry(evals domain.EvaluationSet, modelID string) (domain.ConsensusEntry, error) {
	scores := evals.Scores(modelID)
	confidences := evals.Confidences(modelID)

	weighted := make([]float64, len(scores))
	var weightedSum, confidenceSum float64
	for i, score := range scores {
		weighted[i] = score * confidences[i]
		weightedSum += weighted[i]
		confidenceSum += confidences[i]
	}

	if confidenceSum <= 0 {
		return domain.ConsensusEntry{}, fmt.Errorf("%w: confidence sum %.3f for model %s",
			domain.ErrAggregationFailed, confidenceSum, modelID)
	}

	return domain.ConsensusEntry{
		Scores:      scores,
		Confidences: confidences,
		Weighted:    weighted,
		FinalScore:  weightedSum / confidenceSum,
	}, nil
}
