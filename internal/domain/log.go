package domain

import "time"

// Phase names the pipeline stage that produced an interaction log entry.
type Phase string

// Pipeline phases in execution order.
const (
	PhaseInitialEvaluation     Phase = "initial_evaluation"
	PhaseDiscussion            Phase = "discussion"
	PhaseConsensusBuilding     Phase = "consensus_building"
	PhasePredictiveIntegration Phase = "predictive_integration"
	PhaseFinalDetermination    Phase = "final_determination"
)

// InteractionLogEntry is one record in a match run's append-only audit
// trail. Entries are totally ordered by Seq; the log is created empty for
// every run and owned exclusively by that run.
type InteractionLogEntry struct {
	// Seq is the 1-based insertion index within the run.
	Seq int `json:"seq"`

	// Timestamp records when the entry was appended.
	Timestamp time.Time `json:"timestamp"`

	// Phase identifies the stage that appended the entry.
	Phase Phase `json:"phase"`

	// Slot labels the judge slot involved, when one applies.
	Slot string `json:"slot,omitempty"`

	// Action tags what happened, e.g. "evaluating" or "fallback_triggered".
	Action string `json:"action"`

	// Detail carries structured stage-specific payload.
	Detail map[string]any `json:"detail,omitempty"`
}
