package audit

import (
	"context"
	"sync"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// MemorySink accumulates interaction log entries in memory. Useful for
// tests and for callers that want to inspect a run after the fact.
type MemorySink struct {
	mu      sync.Mutex
	entries []domain.InteractionLogEntry
}

var _ ports.AuditSink = (*MemorySink)(nil)

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

// Append stores one entry.
func (s *MemorySink) Append(_ context.Context, entry domain.InteractionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns a copy of all recorded entries in append order.
func (s *MemorySink) Entries() []domain.InteractionLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.InteractionLogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Reset discards all recorded entries.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
