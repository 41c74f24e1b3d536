package structcontent

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Repository defines the interface for content persistence. WithTx runs fn
// against a transactional handle of the same interface; every persistence
// call of a version-bumping mutation goes through that explicit handle,
// never through ambient state. Atomic batches share one handle across all
// items, partial batches take a fresh handle per item.
type Repository interface {
	// Content type operations
	CreateContentType(ctx context.Context, ct *ContentType) error
	GetContentType(ctx context.Context, id uuid.UUID) (*ContentType, error)
	GetContentTypeBySlug(ctx context.Context, slug string) (*ContentType, error)
	UpdateContentType(ctx context.Context, ct *ContentType) error
	DeleteContentType(ctx context.Context, id uuid.UUID) error
	ListContentTypes(ctx context.Context) ([]*ContentType, error)
	CountItemsByType(ctx context.Context, contentTypeID uuid.UUID) (int, error)

	// Content item operations
	CreateItem(ctx context.Context, item *ContentItem) error
	GetItem(ctx context.Context, id uuid.UUID) (*ContentItem, error)
	UpdateItem(ctx context.Context, item *ContentItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context, contentTypeID *uuid.UUID) ([]*ContentItem, error)

	// Version ledger operations. AppendItemVersion is called exclusively by
	// the mutation engine; snapshots are immutable once written and are
	// removed only by item-deletion cascade.
	AppendItemVersion(ctx context.Context, v *ContentItemVersion) error
	GetItemVersion(ctx context.Context, itemID uuid.UUID, version int) (*ContentItemVersion, error)
	ListItemVersions(ctx context.Context, itemID uuid.UUID) ([]*ContentItemVersion, error)

	// WithTx executes fn inside one transaction. A non-nil error from fn
	// rolls the transaction back and is returned unchanged. A handle that is
	// already transactional reuses itself.
	WithTx(ctx context.Context, fn func(Repository) error) error
}

// SchemaValidator validates schema documents and payloads. Implementations
// are pure: no I/O, no retained state between calls. A nil return means
// valid; failures are *Error values carrying code, message, remediation and
// context.
type SchemaValidator interface {
	// ValidateSchema checks that schema is itself a well-formed schema
	// document.
	ValidateSchema(schema json.RawMessage) error

	// ValidateData checks data against schema.
	ValidateData(schema, data json.RawMessage) error
}

// AuditSink receives one entry per committed mutation. It is invoked after
// the mutation's transaction commits and its errors never surface into the
// caller's success path. A crash between commit and audit write is an
// accepted gap.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}
