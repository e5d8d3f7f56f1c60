package stages

import (
	"context"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// stubEvaluator is a test double whose behavior is supplied per test.
type stubEvaluator struct {
	name string
	fn   func(ctx context.Context, model domain.Model, criterion domain.Criterion) (domain.Evaluation, error)
}

var _ ports.Evaluator = (*stubEvaluator)(nil)

func (s *stubEvaluator) Name() string { return s.name }

func (s *stubEvaluator) Evaluate(ctx context.Context, model domain.Model, criterion domain.Criterion) (domain.Evaluation, error) {
	return s.fn(ctx, model, criterion)
}

func testModels() []domain.Model {
	return []domain.Model{
		{
			ID:   "alpha",
			Name: "Alpha",
			Attributes: domain.Attributes{
				Offense: 80, Defense: 60, Agility: 70, Strategy: 50, Endurance: 90,
			},
		},
		{
			ID:   "beta",
			Name: "Beta",
			Attributes: domain.Attributes{
				Offense: 55, Defense: 75, Agility: 65, Strategy: 85, Endurance: 40,
			},
		},
	}
}

// stateWithModels seeds a run state with an ID and the two test models.
func stateWithModels(models []domain.Model) domain.State {
	state := domain.With(domain.NewState(), domain.KeyMatchID, "test-match")
	return domain.With(state, domain.KeyModels, models)
}

// uniformSet builds an evaluation set giving every (slot, model) pair the
// same score and confidence.
func uniformSet(models []domain.Model, score, confidence float64) domain.EvaluationSet {
	set := domain.NewEvaluationSet()
	for _, slot := range domain.Slots() {
		for _, m := range models {
			set[slot][m.ID] = domain.Evaluation{Score: score, Confidence: confidence}
		}
	}
	return set
}

// setScores overrides one model's slot scores in slot order.
func setScores(set domain.EvaluationSet, modelID string, scores [domain.NumSlots]float64) {
	for i, slot := range domain.Slots() {
		ev := set[slot][modelID]
		ev.Score = scores[i]
		set[slot][modelID] = ev
	}
}

// setConfidences overrides one model's slot confidences in slot order.
func setConfidences(set domain.EvaluationSet, modelID string, confs [domain.NumSlots]float64) {
	for i, slot := range domain.Slots() {
		ev := set[slot][modelID]
		ev.Confidence = confs[i]
		set[slot][modelID] = ev
	}
}
