package structcontent

import "context"

// NoopAuditSink is a no-operation implementation of AuditSink
// Useful when audit logging is not wired or for testing
type NoopAuditSink struct{}

// NewNoopAuditSink creates a new no-operation audit sink
func NewNoopAuditSink() AuditSink {
	return &NoopAuditSink{}
}

// Record does nothing and returns nil
func (n *NoopAuditSink) Record(ctx context.Context, entry AuditEntry) error {
	return nil
}
