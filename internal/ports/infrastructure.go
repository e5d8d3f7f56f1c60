package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-arena/internal/domain"
)

// LLMClient defines the interface for interacting with Large Language
// Model providers. Implementations handle provider-specific details like
// authentication, request formatting, and response parsing.
type LLMClient interface {
	// Complete sends a completion request to the LLM provider and returns
	// the generated text. The options map allows provider flexibility
	// without changing the interface; common options include
	// "temperature" (float64), "max_tokens" (int), and "model" (string).
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// EstimateTokens calculates the approximate token count for a text,
	// useful for cost estimation and staying within model limits.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier used by this client.
	GetModel() string
}

// AuditSink receives a run's interaction log entries. The only contract is
// call order = log order; no acknowledgement is expected. Implementations
// may write to a console, a database, or nowhere at all.
type AuditSink interface {
	// Append records one interaction log entry.
	Append(ctx context.Context, entry domain.InteractionLogEntry) error
}

// MetricsCollector defines the interface for collecting operational
// metrics. Implementations integrate with observability platforms such as
// Prometheus or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)
}

// StageObserver is notified around each pipeline stage execution.
// Observers must not mutate state; they exist for tracing and metrics.
type StageObserver interface {
	// StageStarted is called before a stage executes. The returned context
	// is passed to the stage, allowing observers to attach spans.
	StageStarted(ctx context.Context, matchID, stage string) context.Context

	// StageCompleted is called after a stage returns, with its error if any.
	StageCompleted(ctx context.Context, matchID, stage string, err error)
}
