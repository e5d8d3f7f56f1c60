// Package ports defines the interfaces that form the contract between the
// domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-arena/internal/domain"
)

// Stage is one step of the match pipeline. Each Stage performs a specific
// transformation on the run's State. Stages must be stateless with respect
// to individual runs and thread-safe, so one engine can serve many
// concurrent matches.
type Stage interface {
	// Name returns a unique identifier for this stage, used for logging,
	// tracing, and error attribution.
	Name() string

	// Phase returns the pipeline phase this stage executes in.
	Phase() domain.Phase

	// Execute performs the stage's transformation on the provided State
	// and returns a new State containing the results. The original State
	// must not be modified. Stages should respect context cancellation
	// and return promptly.
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks that the stage is properly configured and ready for
	// execution. It is called during pipeline construction.
	Validate() error
}
