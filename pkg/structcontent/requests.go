package structcontent

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Request DTOs

// CreateItemRequest contains parameters for creating a content item.
// With DryRun set the payload is fully validated but nothing is persisted;
// the returned preview carries uuid.Nil as ID and version 1.
type CreateItemRequest struct {
	ContentTypeID uuid.UUID
	Data          json.RawMessage
	Status        ItemStatus
	DryRun        bool
}

// UpdateItemRequest contains parameters for updating a content item. Nil
// fields are left unchanged; at least one of ContentTypeID, Data or Status
// must be set.
type UpdateItemRequest struct {
	ID            uuid.UUID
	ContentTypeID *uuid.UUID
	Data          json.RawMessage
	Status        *ItemStatus
	DryRun        bool
}

// IsEmpty reports whether the request carries no field to change.
func (r UpdateItemRequest) IsEmpty() bool {
	return r.ContentTypeID == nil && r.Data == nil && r.Status == nil
}

// DeleteItemRequest contains parameters for deleting a content item.
type DeleteItemRequest struct {
	ID     uuid.UUID
	DryRun bool
}

// RollbackItemRequest contains parameters for rolling a content item back to
// the content of an earlier version. Rollback always appends a new version;
// it never rewinds the version counter.
type RollbackItemRequest struct {
	ID      uuid.UUID
	Version int
	DryRun  bool
}

// BatchItem is one requested mutation inside a batch. Op selects which of
// the remaining fields apply: create uses ContentTypeID/Data/Status, update
// uses ID plus any of ContentTypeID/Data/Status, delete uses ID only.
type BatchItem struct {
	Op            BatchOp         `json:"op"`
	ID            *uuid.UUID      `json:"id,omitempty"`
	ContentTypeID *uuid.UUID      `json:"contentTypeId,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
	Status        *ItemStatus     `json:"status,omitempty"`
}

// BatchRequest contains a non-empty list of item mutations plus two
// independent flags. Atomic runs every item inside one transaction and
// aborts all of them on the first failure. DryRun validates every item
// exactly like a live run but persists and audits nothing.
type BatchRequest struct {
	Items  []BatchItem
	Atomic bool
	DryRun bool
}

// CreateContentTypeRequest contains parameters for declaring a content type.
type CreateContentTypeRequest struct {
	Name        string
	Slug        string
	Schema      json.RawMessage
	Description string
}

// UpdateContentTypeRequest contains parameters for updating a content type.
// Nil fields are left unchanged. Changing the schema does not revalidate
// existing items; they are checked against the current schema on their next
// mutation.
type UpdateContentTypeRequest struct {
	ID          uuid.UUID
	Name        *string
	Slug        *string
	Schema      json.RawMessage
	Description *string
}

// ListItemsRequest contains parameters for listing content items.
// ContentTypeID narrows the listing to one type when set.
type ListItemsRequest struct {
	ContentTypeID *uuid.UUID
}
