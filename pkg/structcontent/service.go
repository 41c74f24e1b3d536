package structcontent

import (
	"context"

	"github.com/google/uuid"
)

// Service is the single mutation and query engine behind all three protocol
// surfaces. The REST, graph and tool adapters are pure wire-format
// translations over this interface and contain no business logic of their
// own.
type Service interface {
	// Content item mutations
	CreateItem(ctx context.Context, req CreateItemRequest) (*ContentItem, error)
	UpdateItem(ctx context.Context, req UpdateItemRequest) (*ContentItem, error)
	DeleteItem(ctx context.Context, req DeleteItemRequest) (*ContentItem, error)
	RollbackItem(ctx context.Context, req RollbackItemRequest) (*ContentItem, error)

	// Batch execution
	ExecuteBatch(ctx context.Context, req BatchRequest) ([]BatchItemResult, error)

	// Content item reads
	GetItem(ctx context.Context, id uuid.UUID) (*ContentItem, error)
	ListItems(ctx context.Context, req ListItemsRequest) ([]*ContentItem, error)
	ListItemVersions(ctx context.Context, itemID uuid.UUID) ([]*ContentItemVersion, error)

	// Content type operations
	CreateContentType(ctx context.Context, req CreateContentTypeRequest) (*ContentType, error)
	UpdateContentType(ctx context.Context, req UpdateContentTypeRequest) (*ContentType, error)
	DeleteContentType(ctx context.Context, id uuid.UUID) (*ContentType, error)
	GetContentType(ctx context.Context, id uuid.UUID) (*ContentType, error)
	GetContentTypeBySlug(ctx context.Context, slug string) (*ContentType, error)
	ListContentTypes(ctx context.Context) ([]*ContentType, error)
}
