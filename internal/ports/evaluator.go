package ports

import (
	"context"

	"github.com/ahrav/go-arena/internal/domain"
)

// Evaluator is the capability that produces a single judge evaluation for
// one model on one criterion. Implementations may call out to an LLM or
// compute deterministically; either way, failures surface as returned
// errors, never as panics, so the initial evaluation stage can pattern-
// match on success versus failure.
type Evaluator interface {
	// Name identifies the evaluator implementation for logging.
	Name() string

	// Evaluate produces one evaluation for the (model, criterion) pair.
	// A returned error marks the entire run's source pass as failed; the
	// caller is expected to discard partial results and fall back.
	Evaluate(ctx context.Context, model domain.Model, criterion domain.Criterion) (domain.Evaluation, error)
}
