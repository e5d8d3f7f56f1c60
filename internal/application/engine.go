package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-arena/infrastructure/stages"
	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// Stage names as they appear in errors, metrics, and traces.
const (
	StageNameInitialEvaluation = "initial_evaluation"
	StageNameDiscussion        = "discussion"
	StageNameConsensus         = "consensus"
	StageNamePredictive        = "predictive"
	StageNameDetermination     = "determination"
)

// MatchRequest describes one match run. The caller supplies the match ID;
// the engine never mints identifiers.
type MatchRequest struct {
	// MatchID identifies the run in results, logs, and traces.
	MatchID string `validate:"required"`

	// Models holds the two competitors. Order matters for tie-breaking:
	// when blended scores are equal the second model wins.
	Models [2]domain.Model
}

// Engine runs matches through the five-stage pipeline and publishes the
// interaction log to the configured audit sink.
type Engine struct {
	pipeline  *Pipeline
	sink      ports.AuditSink
	metrics   ports.MetricsCollector
	evaluator string
}

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine, *[]PipelineOption)

// WithAuditSink sets the sink that receives the run's interaction log,
// replayed in log order after the pipeline completes.
func WithAuditSink(sink ports.AuditSink) EngineOption {
	return func(e *Engine, _ *[]PipelineOption) { e.sink = sink }
}

// WithMetricsCollector sets the collector for match counters and stage
// latency.
func WithMetricsCollector(m ports.MetricsCollector) EngineOption {
	return func(e *Engine, popts *[]PipelineOption) {
		e.metrics = m
		*popts = append(*popts, WithMetrics(m))
	}
}

// WithStageObserver registers an observer notified around each stage.
func WithStageObserver(obs ports.StageObserver) EngineOption {
	return func(_ *Engine, popts *[]PipelineOption) {
		*popts = append(*popts, WithObserver(obs))
	}
}

// NewEngine builds an engine from the given configuration and evaluators.
// The primary evaluator produces scores; the fallback covers whole runs
// where the primary fails. Passing the same evaluator for both is valid
// and common in heuristic-only deployments.
func NewEngine(cfg MatchConfig, primary, fallback ports.Evaluator, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if primary == nil || fallback == nil {
		return nil, fmt.Errorf("%w: evaluators must not be nil", domain.ErrInvalidConfiguration)
	}

	initial, err := stages.NewInitialEvaluationStage(StageNameInitialEvaluation, primary, fallback)
	if err != nil {
		return nil, err
	}
	discussion, err := stages.NewDiscussionStage(StageNameDiscussion, stages.DiscussionConfig{
		VarianceThreshold: cfg.Discussion.VarianceThreshold,
		ConvergenceRate:   cfg.Discussion.ConvergenceRate,
		ConfidenceGain:    cfg.Discussion.ConfidenceGain,
	})
	if err != nil {
		return nil, err
	}
	consensus, err := stages.NewConsensusStage(StageNameConsensus)
	if err != nil {
		return nil, err
	}
	predictive, err := stages.NewPredictiveStage(StageNamePredictive)
	if err != nil {
		return nil, err
	}
	determination, err := stages.NewDeterminationStage(StageNameDetermination, stages.DeterminationConfig{
		ConsensusWeight:  cfg.Determination.ConsensusWeight,
		PredictiveWeight: cfg.Determination.PredictiveWeight,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{evaluator: primary.Name()}
	var popts []PipelineOption
	for _, opt := range opts {
		opt(engine, &popts)
	}

	pipeline, err := NewPipeline([]ports.Stage{
		initial, discussion, consensus, predictive, determination,
	}, popts...)
	if err != nil {
		return nil, err
	}
	engine.pipeline = pipeline
	return engine, nil
}

// RunMatch executes a full match and returns the result.
func (e *Engine) RunMatch(ctx context.Context, req MatchRequest) (domain.MatchResult, error) {
	state, err := e.run(ctx, req)
	if err != nil {
		return domain.MatchResult{}, err
	}
	return e.buildResult(req.MatchID, state)
}

// RunMatchDetailed executes a full match and returns the result together
// with every intermediate the pipeline produced.
func (e *Engine) RunMatchDetailed(ctx context.Context, req MatchRequest) (domain.DetailedMatchResult, error) {
	state, err := e.run(ctx, req)
	if err != nil {
		return domain.DetailedMatchResult{}, err
	}

	result, err := e.buildResult(req.MatchID, state)
	if err != nil {
		return domain.DetailedMatchResult{}, err
	}

	log, _ := domain.Get(state, domain.KeyLog)
	initial, _ := domain.Get(state, domain.KeyInitialEvaluations)
	evals, _ := domain.Get(state, domain.KeyEvaluations)
	reasoning, _ := domain.Get(state, domain.KeyDiscussionReasoning)
	consensus, _ := domain.Get(state, domain.KeyConsensus)
	predictions, _ := domain.Get(state, domain.KeyPredictions)

	return domain.DetailedMatchResult{
		MatchResult:         result,
		Log:                 log,
		InitialEvaluations:  initial,
		Evaluations:         evals,
		DiscussionReasoning: reasoning,
		Consensus:           consensus,
		Predictions:         predictions,
	}, nil
}

// run validates the request, executes the pipeline, and replays the
// interaction log to the audit sink. The log is replayed even when the
// pipeline fails partway, so aborted runs still leave an audit trail.
func (e *Engine) run(ctx context.Context, req MatchRequest) (domain.State, error) {
	if err := e.validateRequest(req); err != nil {
		e.countMatch("rejected")
		return domain.State{}, err
	}

	state := domain.With(domain.NewState(), domain.KeyMatchID, req.MatchID)
	state = domain.With(state, domain.KeyModels, req.Models[:])

	final, err := e.pipeline.Execute(ctx, state)
	e.replayLog(ctx, final)
	if err != nil {
		e.countMatch("error")
		return domain.State{}, fmt.Errorf("match %s: %w", req.MatchID, err)
	}

	e.countMatch("success")
	e.countFallbacks(final)
	return final, nil
}

func (e *Engine) validateRequest(req MatchRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	for _, model := range req.Models {
		if err := validate.Struct(model); err != nil {
			return fmt.Errorf("model %s: %w", model.ID, err)
		}
	}
	if req.Models[0].ID == req.Models[1].ID {
		return domain.ErrInvalidMatchShape
	}
	return nil
}

func (e *Engine) buildResult(matchID string, state domain.State) (domain.MatchResult, error) {
	verdict, ok := domain.Get(state, domain.KeyVerdict)
	if !ok || verdict == nil {
		return domain.MatchResult{}, fmt.Errorf("match %s: %w: verdict", matchID, domain.ErrKeyNotFound)
	}
	confidence, ok := domain.Get(state, domain.KeyOverallConfidence)
	if !ok {
		return domain.MatchResult{}, fmt.Errorf("match %s: %w: overall confidence", matchID, domain.ErrKeyNotFound)
	}

	return domain.MatchResult{
		MatchID:    matchID,
		Winner:     verdict.Winner,
		Scores:     verdict.Blended,
		Confidence: confidence,
		Reasoning:  verdict.Reasoning,
		Timestamp:  time.Now().UTC(),
	}, nil
}

// replayLog forwards the interaction log to the sink in call order.
// Sink failures are reported as counters rather than run failures; the
// audit trail is advisory.
func (e *Engine) replayLog(ctx context.Context, state domain.State) {
	if e.sink == nil {
		return
	}
	log, _ := domain.Get(state, domain.KeyLog)
	for _, entry := range log {
		if err := e.sink.Append(ctx, entry); err != nil {
			if e.metrics != nil {
				e.metrics.RecordCounter("audit_append_failures_total", 1,
					map[string]string{"status": "error"})
			}
			return
		}
	}
}

func (e *Engine) countMatch(status string) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordCounter("arena_matches_total", 1, map[string]string{
		"status":    status,
		"evaluator": e.evaluator,
	})
}

// countFallbacks records whether this run was scored by the fallback
// evaluator, which the initial evaluation stage marks in the log.
func (e *Engine) countFallbacks(state domain.State) {
	if e.metrics == nil {
		return
	}
	log, _ := domain.Get(state, domain.KeyLog)
	for _, entry := range log {
		if entry.Action == "fallback_triggered" {
			e.metrics.RecordCounter("arena_evaluator_fallbacks_total", 1,
				map[string]string{"evaluator": e.evaluator})
			return
		}
	}
}
