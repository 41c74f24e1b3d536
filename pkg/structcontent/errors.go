package structcontent

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error codes surfaced to callers. Every code maps to the same meaning on
// all three protocol surfaces.
const (
	CodeContentTypeNotFound   = "CONTENT_TYPE_NOT_FOUND"
	CodeContentItemNotFound   = "CONTENT_ITEM_NOT_FOUND"
	CodeTargetVersionNotFound = "TARGET_VERSION_NOT_FOUND"
	CodeContentSchemaInvalid  = "CONTENT_SCHEMA_INVALID"
	CodeTypeSchemaInvalid     = "TYPE_SCHEMA_INVALID"
	CodeEmptyUpdateBody       = "EMPTY_UPDATE_BODY"
	CodeEmptyBatch            = "EMPTY_BATCH"
	CodeBatchAtomicFailed     = "BATCH_ATOMIC_FAILED"
	CodeContentTypeInUse      = "CONTENT_TYPE_IN_USE"
	CodeInvalidStatus         = "INVALID_STATUS"
	CodeInvalidBatchOp        = "INVALID_BATCH_OP"
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeInternal              = "INTERNAL"
)

// Error is the structured error returned by every operation. It carries a
// machine-actionable remediation string and, where relevant, structured
// context, so an autonomous caller can self-correct. It never exposes
// internal stack traces.
type Error struct {
	Code        string         `json:"code"`
	Message     string         `json:"error"`
	Remediation string         `json:"remediation"`
	Context     map[string]any `json:"context,omitempty"`

	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// WithContext returns e with the given context key set.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewError builds a structured error with the given code, message and
// remediation.
func NewError(code, message, remediation string) *Error {
	return &Error{Code: code, Message: message, Remediation: remediation}
}

// AsError unwraps err into a *Error if one is anywhere in its chain.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// CodeOf returns the structured code of err, or CodeInternal when err
// carries none.
func CodeOf(err error) string {
	if se, ok := AsError(err); ok {
		return se.Code
	}
	return CodeInternal
}

// Not-found constructors.

func ErrContentTypeNotFound(id uuid.UUID) *Error {
	return NewError(CodeContentTypeNotFound,
		fmt.Sprintf("content type %s does not exist", id),
		"list content types to discover valid content type ids, then retry",
	).WithContext("contentTypeId", id.String())
}

func ErrContentItemNotFound(id uuid.UUID) *Error {
	return NewError(CodeContentItemNotFound,
		fmt.Sprintf("content item %s does not exist", id),
		"list content items to discover valid item ids, then retry",
	).WithContext("contentItemId", id.String())
}

func ErrTargetVersionNotFound(id uuid.UUID, version int) *Error {
	return NewError(CodeTargetVersionNotFound,
		fmt.Sprintf("content item %s has no version %d", id, version),
		"list the item's versions and pick an existing version number",
	).WithContext("contentItemId", id.String()).WithContext("version", version)
}

// Precondition constructors. These are checked before any I/O.

func ErrEmptyUpdateBody() *Error {
	return NewError(CodeEmptyUpdateBody,
		"update requires at least one field",
		"provide at least one of contentTypeId, data or status",
	)
}

func ErrEmptyBatch() *Error {
	return NewError(CodeEmptyBatch,
		"batch requires at least one item",
		"provide a non-empty items array",
	)
}

func ErrInvalidStatus(status ItemStatus) *Error {
	return NewError(CodeInvalidStatus,
		fmt.Sprintf("status %q is not a valid item status", status),
		"use one of: draft, published, archived",
	).WithContext("status", string(status))
}

func ErrInvalidBatchOp(op BatchOp) *Error {
	return NewError(CodeInvalidBatchOp,
		fmt.Sprintf("batch op %q is not supported", op),
		"use one of: create, update, delete",
	).WithContext("op", string(op))
}

func ErrContentTypeInUse(id uuid.UUID, itemCount int) *Error {
	return NewError(CodeContentTypeInUse,
		fmt.Sprintf("content type %s still has %d content items", id, itemCount),
		"delete or re-type the items of this content type first",
	).WithContext("contentTypeId", id.String()).WithContext("itemCount", itemCount)
}

// ErrBatchAtomicFailed wraps the first failing item of an atomic batch. The
// whole batch rolled back; no partial writes are observable.
func ErrBatchAtomicFailed(index int, cause *Error) *Error {
	e := NewError(CodeBatchAtomicFailed,
		fmt.Sprintf("atomic batch aborted: item %d failed", index),
		"fix the failing item and resubmit the whole batch; no items were written",
	).WithContext("index", index).
		WithContext("code", cause.Code).
		WithContext("error", cause.Message)
	e.cause = cause
	return e
}

// ErrInternal wraps an infrastructure failure without leaking its details
// into the remediation path.
func ErrInternal(cause error) *Error {
	e := NewError(CodeInternal,
		"an internal error occurred",
		"retry later; if the problem persists contact the operator",
	)
	e.cause = cause
	return e
}

// asStructured coerces any error into a *Error, wrapping unknown errors as
// internal failures.
func asStructured(err error) *Error {
	if se, ok := AsError(err); ok {
		return se
	}
	return ErrInternal(err)
}
