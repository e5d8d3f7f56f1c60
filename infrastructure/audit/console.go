// Package audit provides sinks for match interaction logs. A sink
// receives entries in log order; what it does with them is its own
// business.
package audit

import (
	"context"

	"github.com/chainguard-dev/clog"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// ConsoleSink writes interaction log entries to the structured logger
// attached to the context.
type ConsoleSink struct{}

var _ ports.AuditSink = (*ConsoleSink)(nil)

// NewConsoleSink creates a sink that logs each entry at info level.
func NewConsoleSink() *ConsoleSink { return &ConsoleSink{} }

// Append logs one interaction entry with its phase, actor, and action.
func (s *ConsoleSink) Append(ctx context.Context, entry domain.InteractionLogEntry) error {
	log := clog.FromContext(ctx).With(
		"seq", entry.Seq,
		"phase", string(entry.Phase),
		"action", entry.Action,
	)
	if entry.Slot != "" {
		log = log.With("judge", entry.Slot)
	}
	for k, v := range entry.Detail {
		log = log.With(k, v)
	}
	log.Info("match event")
	return nil
}
