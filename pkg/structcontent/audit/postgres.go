package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/structcms/structured-content/pkg/structcontent"
)

// PostgresSink appends entries to the audit_log table on its own pool
// connection, deliberately outside any mutation transaction.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates an audit sink backed by the given pool.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// Record inserts one audit row.
func (s *PostgresSink) Record(ctx context.Context, entry structcontent.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO audit_log (id, action, entity_type, entity_id, details, actor, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.Action, entry.EntityType, entry.EntityID,
		details, entry.Actor, entry.RequestID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
