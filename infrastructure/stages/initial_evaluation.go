package stages

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.Stage = (*InitialEvaluationStage)(nil)

// DefaultEvaluationConcurrency bounds concurrent evaluator calls.
// A full pass is six calls (two models across three slots), so the default
// runs them all at once.
const DefaultEvaluationConcurrency = 6

// InitialEvaluationStage obtains one evaluation per (model, slot) pair
// from the primary evaluator. The six calls have no data dependency on
// each other and are issued concurrently; the evaluation set is only
// considered ready once all six have resolved.
//
// Failure handling is all-or-nothing: if any primary call fails (timeout,
// malformed payload, non-numeric score), every partial result is discarded
// and a full fallback pass runs instead. A run never mixes primary and
// fallback evaluations.
type InitialEvaluationStage struct {
	name           string
	primary        ports.Evaluator
	fallback       ports.Evaluator
	maxConcurrency int
}

// NewInitialEvaluationStage creates the stage with the given evaluators.
// The fallback must be infallible in practice (the heuristic evaluator);
// errors from it abort the run.
func NewInitialEvaluationStage(name string, primary, fallback ports.Evaluator) (*InitialEvaluationStage, error) {
	if name == "" {
		return nil, ErrEmptyStageName
	}
	if primary == nil {
		return nil, fmt.Errorf("primary evaluator cannot be nil")
	}
	if fallback == nil {
		return nil, fmt.Errorf("fallback evaluator cannot be nil")
	}
	return &InitialEvaluationStage{
		name:           name,
		primary:        primary,
		fallback:       fallback,
		maxConcurrency: DefaultEvaluationConcurrency,
	}, nil
}

// Name returns the unique identifier for this stage instance.
func (s *InitialEvaluationStage) Name() string { return s.name }

// Phase returns the pipeline phase this stage executes in.
func (s *InitialEvaluationStage) Phase() domain.Phase { return domain.PhaseInitialEvaluation }

// Validate checks that the stage is properly configured.
func (s *InitialEvaluationStage) Validate() error {
	if s.primary == nil || s.fallback == nil {
		return fmt.Errorf("stage %s: evaluators are not configured", s.name)
	}
	return nil
}

// Execute runs one full evaluation pass and stores the resulting set under
// both KeyEvaluations and KeyInitialEvaluations.
func (s *InitialEvaluationStage) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	models, err := modelsFrom(state)
	if err != nil {
		return state, domain.NewStageError(s.name, s.Phase(), err)
	}

	set, passErr := s.runPass(ctx, s.primary, models)
	source := s.primary.Name()

	if passErr != nil {
		// The whole primary pass is discarded; the fallback rebuilds the
		// set from scratch so the run is never a mix of sources.
		state = appendLog(state, s.Phase(), "", "fallback_triggered", map[string]any{
			"source": s.primary.Name(),
			"error":  passErr.Error(),
		})

		set, err = s.runPass(ctx, s.fallback, models)
		if err != nil {
			return state, domain.NewStageError(s.name, s.Phase(),
				fmt.Errorf("fallback evaluation failed: %w", err))
		}
		source = s.fallback.Name()
	}

	// Completions may interleave while the calls are in flight; the log is
	// written after the full join, slot by slot, so each slot's
	// "evaluating" entry always precedes its own "evaluated" entry.
	for _, slot := range domain.Slots() {
		for _, model := range models {
			ev := set[slot][model.ID]
			state = appendLog(state, s.Phase(), slot.Label(), "evaluating", map[string]any{
				"model":     model.ID,
				"criterion": slot.Criterion().String(),
			})
			state = appendLog(state, s.Phase(), slot.Label(), "evaluated", map[string]any{
				"model":      model.ID,
				"score":      ev.Score,
				"confidence": ev.Confidence,
				"source":     source,
			})
		}
	}

	state = domain.With(state, domain.KeyInitialEvaluations, set.Clone())
	return domain.With(state, domain.KeyEvaluations, set), nil
}

// runPass evaluates every (model, slot) pair with the given evaluator.
// Calls run concurrently; any single failure fails the whole pass.
func (s *InitialEvaluationStage) runPass(
	ctx context.Context,
	evaluator ports.Evaluator,
	models []domain.Model,
) (domain.EvaluationSet, error) {
	type result struct {
		slot  domain.Slot
		model string
		ev    domain.Evaluation
	}

	slots := domain.Slots()
	results := make([]result, len(slots)*len(models))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for si, slot := range slots {
		for mi, model := range models {
			idx := si*len(models) + mi

			g.Go(func() error {
				ev, err := evaluator.Evaluate(gctx, model, slot.Criterion())
				if err != nil {
					return fmt.Errorf("%s on %s for %s: %w",
						evaluator.Name(), slot.Criterion(), model.ID, err)
				}
				if err := checkNumeric(ev); err != nil {
					return fmt.Errorf("%s on %s for %s: %w",
						evaluator.Name(), slot.Criterion(), model.ID, err)
				}
				// Each goroutine writes a distinct index; no lock needed.
				results[idx] = result{slot: slot, model: model.ID, ev: ev}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := domain.NewEvaluationSet()
	for _, r := range results {
		set[r.slot][r.model] = r.ev
	}
	return set, nil
}

// checkNumeric rejects evaluations whose score or confidence is not a
// finite number. A malformed value must fail the call rather than flow
// downstream into the aggregation.
func checkNumeric(ev domain.Evaluation) error {
	if math.IsNaN(ev.Score) || math.IsInf(ev.Score, 0) {
		return fmt.Errorf("non-numeric score: %f", ev.Score)
	}
	if math.IsNaN(ev.Confidence) || math.IsInf(ev.Confidence, 0) {
		return fmt.Errorf("non-numeric confidence: %f", ev.Confidence)
	}
	return nil
}
