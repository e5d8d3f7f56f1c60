package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// Pipeline executes stages in strict order, threading the immutable
// match state from one stage to the next. Observers are notified around
// each stage and may enrich the context (tracing spans); the metrics
// collector, when set, records per-stage latency.
type Pipeline struct {
	stages    []ports.Stage
	observers []ports.StageObserver
	metrics   ports.MetricsCollector
}

// PipelineOption configures optional pipeline behavior.
type PipelineOption func(*Pipeline)

// WithObserver registers a stage observer. Observers run in registration
// order on start and reverse order on completion.
func WithObserver(obs ports.StageObserver) PipelineOption {
	return func(p *Pipeline) { p.observers = append(p.observers, obs) }
}

// WithMetrics sets the collector that receives per-stage latency.
func WithMetrics(m ports.MetricsCollector) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline creates a pipeline over the given stages. Every stage must
// pass its own Validate check; stage names must be unique.
func NewPipeline(stages []ports.Stage, opts ...PipelineOption) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline requires at least one stage")
	}

	seen := make(map[string]struct{}, len(stages))
	for _, stage := range stages {
		if stage == nil {
			return nil, fmt.Errorf("pipeline stage must not be nil")
		}
		if err := stage.Validate(); err != nil {
			return nil, fmt.Errorf("stage %s invalid: %w", stage.Name(), err)
		}
		if _, dup := seen[stage.Name()]; dup {
			return nil, fmt.Errorf("duplicate stage name %s", stage.Name())
		}
		seen[stage.Name()] = struct{}{}
	}

	p := &Pipeline{stages: stages}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Execute runs every stage in order. It stops at the first failure,
// returning the failing stage's state alongside the error so partial log
// entries survive, and respects context cancellation between stages.
func (p *Pipeline) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	matchID, _ := domain.Get(state, domain.KeyMatchID)

	current := state
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return current, err
		}

		stageCtx := ctx
		for _, obs := range p.observers {
			stageCtx = obs.StageStarted(stageCtx, matchID, stage.Name())
		}

		start := time.Now()
		next, err := stage.Execute(stageCtx, current)

		if p.metrics != nil {
			p.metrics.RecordLatency("stage_execution", time.Since(start),
				map[string]string{"stage": stage.Name()})
		}
		for i := len(p.observers) - 1; i >= 0; i-- {
			p.observers[i].StageCompleted(stageCtx, matchID, stage.Name(), err)
		}

		if err != nil {
			// Stages attribute their own failures; only bare errors need
			// the stage context added here.
			var stageErr *domain.StageError
			if !errors.As(err, &stageErr) {
				err = domain.NewStageError(stage.Name(), stage.Phase(), err)
			}
			// A failing stage still returns its state, which may carry log
			// entries written before the failure. Those must survive so the
			// audit replay covers aborted runs.
			return next, err
		}
		current = next
	}

	return current, nil
}

// Stages returns the ordered stage list.
func (p *Pipeline) Stages() []ports.Stage {
	out := make([]ports.Stage, len(p.stages))
	copy(out, p.stages)
	return out
}
