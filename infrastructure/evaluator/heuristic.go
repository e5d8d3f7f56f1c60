// Package evaluator provides implementations of the ports.Evaluator
// capability: an LLM-backed judge and a deterministic heuristic fallback.
package evaluator

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.Evaluator = (*Heuristic)(nil)

// Nominal confidence range of the heuristic path.
const (
	HeuristicMinConfidence = 0.7
	HeuristicMaxConfidence = 0.95
)

// ConfidenceSource supplies the confidence attached to heuristic
// evaluations. Injecting the source is what makes the heuristic path fully
// deterministic under test; the production default draws uniformly from
// [HeuristicMinConfidence, HeuristicMaxConfidence].
type ConfidenceSource func() float64

// UniformConfidence returns a source drawing uniformly from [lo, hi].
func UniformConfidence(lo, hi float64) ConfidenceSource {
	return func() float64 { return lo + rand.Float64()*(hi-lo) }
}

// FixedConfidence returns a source that always yields c.
func FixedConfidence(c float64) ConfidenceSource {
	return func() float64 { return c }
}

// Heuristic scores a model from its static attributes alone. It never
// performs I/O and never fails, which is what qualifies it as the
// all-or-nothing fallback for the initial evaluation stage.
type Heuristic struct {
	confidence ConfidenceSource
}

// HeuristicOption customizes a Heuristic.
type HeuristicOption func(*Heuristic)

// WithConfidenceSource overrides the confidence source.
func WithConfidenceSource(src ConfidenceSource) HeuristicOption {
	return func(h *Heuristic) { h.confidence = src }
}

// NewHeuristic creates a heuristic evaluator.
func NewHeuristic(opts ...HeuristicOption) *Heuristic {
	h := &Heuristic{
		confidence: UniformConfidence(HeuristicMinConfidence, HeuristicMaxConfidence),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name identifies the evaluator implementation for logging.
func (h *Heuristic) Name() string { return "heuristic" }

// Evaluate derives a score from the attribute pair relevant to the
// criterion: the basis is the mean of the two attributes, mapped onto the
// [5, 10] score range.
func (h *Heuristic) Evaluate(ctx context.Context, model domain.Model, criterion domain.Criterion) (domain.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Evaluation{}, err
	}

	basis, err := criterionBasis(model.Attributes, criterion)
	if err != nil {
		return domain.Evaluation{}, err
	}

	return domain.Evaluation{
		Score:      5 + (basis/100)*5,
		Confidence: h.confidence(),
		Reasoning: fmt.Sprintf("Heuristic assessment of %s on %s derived from its attribute profile",
			model.Name, criterion),
	}, nil
}

// criterionBasis maps a criterion to the mean of its two source attributes.
func criterionBasis(attr domain.Attributes, criterion domain.Criterion) (float64, error) {
	switch criterion {
	case domain.CriterionCreativity:
		return (attr.Strategy + attr.Endurance) / 2, nil
	case domain.CriterionTechnical:
		return (attr.Defense + attr.Agility) / 2, nil
	case domain.CriterionPerformance:
		return (attr.Offense + attr.Agility) / 2, nil
	default:
		return 0, fmt.Errorf("unknown criterion %q", criterion)
	}
}
