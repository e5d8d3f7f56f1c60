package domain

import "time"

// Verdict is the determination stage's output: the winner and the blended
// scores the decision was based on.
type Verdict struct {
	// Winner is the model with the higher blended score.
	Winner Model `json:"winner"`

	// Blended maps model ID to its 70/30 consensus/predictive blend.
	Blended map[string]float64 `json:"blended"`

	// Reasoning summarizes how the decision was reached.
	Reasoning string `json:"reasoning"`
}

// MatchResult is the externally visible artifact of a match run.
// Everything upstream of it is intermediate state discarded after the run
// unless the detailed variant is requested.
type MatchResult struct {
	// MatchID is the caller-supplied identifier for this run.
	// The engine itself never mints identifiers.
	MatchID string `json:"match_id"`

	// Winner is the winning model.
	Winner Model `json:"winner"`

	// Scores maps each model ID to its final blended score.
	Scores map[string]float64 `json:"scores"`

	// Confidence is the shared decision confidence derived from the score
	// gap between the two models.
	Confidence float64 `json:"confidence"`

	// Reasoning is the human-readable decision summary.
	Reasoning string `json:"reasoning"`

	// Timestamp records when the result was produced.
	Timestamp time.Time `json:"timestamp"`
}

// DetailedMatchResult extends MatchResult with every intermediate the
// pipeline produced, for callers that want the full audit trail.
type DetailedMatchResult struct {
	MatchResult

	// Log is the run's complete interaction log in insertion order.
	Log []InteractionLogEntry `json:"interaction_log"`

	// InitialEvaluations is the evaluation set before any discussion round.
	InitialEvaluations EvaluationSet `json:"initial_evaluations"`

	// Evaluations is the set actually aggregated, post-discussion.
	Evaluations EvaluationSet `json:"evaluations"`

	// DiscussionReasoning reports the discussion stage's variance analysis.
	DiscussionReasoning string `json:"discussion_reasoning"`

	// Consensus maps model ID to its consensus breakdown.
	Consensus map[string]ConsensusEntry `json:"consensus"`

	// Predictions maps model ID to its predictive outcome in (0, 1).
	Predictions map[string]float64 `json:"predictions"`
}
