// Package audit provides AuditSink implementations. The sink runs outside
// every mutation transaction; a failed audit write is logged by the engine
// and never fails the mutation.
package audit

import (
	"context"
	"sync"

	"github.com/structcms/structured-content/pkg/structcontent"
)

// MemorySink keeps entries in memory. Used in tests to assert what was, and
// was not, audited.
type MemorySink struct {
	mu      sync.Mutex
	entries []structcontent.AuditEntry
}

// NewMemorySink creates a new in-memory audit sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record appends the entry.
func (s *MemorySink) Record(ctx context.Context, entry structcontent.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns a copy of everything recorded so far, in order.
func (s *MemorySink) Entries() []structcontent.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]structcontent.AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
