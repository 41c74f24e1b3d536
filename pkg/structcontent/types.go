package structcontent

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the domain type for content item lifecycle states.
type ItemStatus string

// Item status constants (typed).
const (
	ItemStatusDraft     ItemStatus = "draft"
	ItemStatusPublished ItemStatus = "published"
	ItemStatusArchived  ItemStatus = "archived"
)

// ValidStatus reports whether s is one of the known item statuses.
func ValidStatus(s ItemStatus) bool {
	switch s {
	case ItemStatusDraft, ItemStatusPublished, ItemStatusArchived:
		return true
	}
	return false
}

// ContentType is a named, versionless JSON-schema definition that content
// items conform to. The schema may change over time; item validation always
// uses the schema current at mutation time.
type ContentType struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Schema      json.RawMessage `json:"schema"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ContentItem is a versioned record of structured data belonging to a
// content type. Version is monotonic, starts at 1 and never decreases or
// repeats. All writes go through the mutation engine.
type ContentItem struct {
	ID            uuid.UUID       `json:"id"`
	ContentTypeID uuid.UUID       `json:"contentTypeId"`
	Data          json.RawMessage `json:"data"`
	Status        ItemStatus      `json:"status"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ContentItemVersion is an immutable snapshot of an item's (data, status)
// immediately before the mutation that bumped the item past Version. For an
// item at version V there are exactly V-1 snapshot rows, one per version
// number 1..V-1.
type ContentItemVersion struct {
	ID            uuid.UUID       `json:"id"`
	ContentItemID uuid.UUID       `json:"contentItemId"`
	Version       int             `json:"version"`
	Data          json.RawMessage `json:"data"`
	Status        ItemStatus      `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// AuditEntry records one committed mutation. Emission happens after the
// mutation's transaction commits and is never part of it.
type AuditEntry struct {
	ID         uuid.UUID      `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   uuid.UUID      `json:"entityId"`
	Details    map[string]any `json:"details,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	RequestID  string         `json:"requestId,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Audit actions.
const (
	ActionItemCreate   = "content_item.create"
	ActionItemUpdate   = "content_item.update"
	ActionItemDelete   = "content_item.delete"
	ActionItemRollback = "content_item.rollback"
	ActionTypeCreate   = "content_type.create"
	ActionTypeUpdate   = "content_type.update"
	ActionTypeDelete   = "content_type.delete"
)

// Audit entity types.
const (
	EntityContentItem = "content_item"
	EntityContentType = "content_type"
)

// BatchOp identifies the operation a batch item requests.
type BatchOp string

// Batch operations.
const (
	BatchOpCreate BatchOp = "create"
	BatchOpUpdate BatchOp = "update"
	BatchOpDelete BatchOp = "delete"
)

// BatchItemResult is the per-item outcome of a partial-mode (or dry-run)
// batch. Index preserves caller-supplied ordering.
type BatchItemResult struct {
	Index   int        `json:"index"`
	OK      bool       `json:"ok"`
	ID      *uuid.UUID `json:"id,omitempty"`
	Version *int       `json:"version,omitempty"`
	Code    string     `json:"code,omitempty"`
	Error   string     `json:"error,omitempty"`
}
