// Package middleware provides cross-cutting concerns for the match engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-arena/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks match throughput, stage latency, fallback
// activations, and LLM usage.
type PrometheusMetrics struct {
	matchesTotal     *prometheus.CounterVec
	fallbacksTotal   *prometheus.CounterVec
	stageLatency     *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// its collectors in the global registry. Call it once per process.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		matchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_matches_total",
				Help: "Total number of matches run, by outcome status.",
			},
			[]string{"status", "evaluator"},
		),
		fallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_evaluator_fallbacks_total",
				Help: "Total number of runs where the primary evaluator failed and the fallback produced all scores.",
			},
			[]string{"evaluator"},
		),
		stageLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arena_stage_duration_seconds",
				Help:    "Execution time of pipeline stages.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_operations_total",
				Help: "Total number of engine operations by name and status.",
			},
			[]string{"operation", "status"},
		),
		systemGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arena_system_state",
				Help: "Current engine state values.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency records operation latency in a Prometheus histogram.
// Stage executions land in the per-stage histogram; everything else is
// recorded under its operation name.
func (pm *PrometheusMetrics) RecordLatency(
	operation string, duration time.Duration, labels map[string]string,
) {
	if stage, ok := labels["stage"]; ok {
		pm.stageLatency.WithLabelValues(stage).Observe(duration.Seconds())
		return
	}
	pm.stageLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter increments the matching Prometheus counter.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "arena_matches_total":
		pm.matchesTotal.WithLabelValues(
			orUnknown(labels["status"]),
			orUnknown(labels["evaluator"]),
		).Add(value)
	case "arena_evaluator_fallbacks_total":
		pm.fallbacksTotal.WithLabelValues(orUnknown(labels["evaluator"])).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, orUnknown(labels["status"])).Add(value)
	}
}

// RecordGauge sets the matching Prometheus gauge value.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, _ map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
