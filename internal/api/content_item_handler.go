package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/structcms/structured-content/pkg/structcontent"
)

// createItemRequest is the request body for creating a content item
type createItemRequest struct {
	ContentTypeID uuid.UUID                `json:"contentTypeId"`
	Data          json.RawMessage          `json:"data"`
	Status        structcontent.ItemStatus `json:"status,omitempty"`
}

// updateItemRequest is the request body for updating a content item
type updateItemRequest struct {
	ContentTypeID *uuid.UUID                `json:"contentTypeId,omitempty"`
	Data          json.RawMessage           `json:"data,omitempty"`
	Status        *structcontent.ItemStatus `json:"status,omitempty"`
}

// rollbackRequest is the request body for rolling back a content item
type rollbackRequest struct {
	Version int `json:"version"`
}

// batchRequest is the request body for batch execution. The dryRun flag is
// accepted in the body as well as via mode=dry_run.
type batchRequest struct {
	Items  []structcontent.BatchItem `json:"items"`
	Atomic bool                      `json:"atomic,omitempty"`
	DryRun bool                      `json:"dryRun,omitempty"`
}

// batchResponse wraps the ordered per-item results of a partial or dry-run
// batch.
type batchResponse struct {
	Results []structcontent.BatchItemResult `json:"results"`
}

func itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, structcontent.NewError(structcontent.CodeInvalidRequest,
			"id is not a valid UUID",
			"use the id returned when the resource was created"))
		return uuid.Nil, false
	}
	return id, true
}

// CreateItem creates a content item at version 1.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.svc.CreateItem(r.Context(), structcontent.CreateItemRequest{
		ContentTypeID: req.ContentTypeID,
		Data:          req.Data,
		Status:        req.Status,
		DryRun:        dryRun(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, item)
}

// UpdateItem applies a partial update, bumping the item's version.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	var req updateItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.svc.UpdateItem(r.Context(), structcontent.UpdateItemRequest{
		ID:            id,
		ContentTypeID: req.ContentTypeID,
		Data:          req.Data,
		Status:        req.Status,
		DryRun:        dryRun(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, item)
}

// DeleteItem deletes a content item; version rows cascade.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.svc.DeleteItem(r.Context(), structcontent.DeleteItemRequest{
		ID:     id,
		DryRun: dryRun(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, item)
}

// RollbackItem appends a new version whose content equals an older one.
func (h *Handler) RollbackItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	var req rollbackRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.svc.RollbackItem(r.Context(), structcontent.RollbackItemRequest{
		ID:      id,
		Version: req.Version,
		DryRun:  dryRun(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, item)
}

// ExecuteBatch runs a batch of item mutations.
func (h *Handler) ExecuteBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	results, err := h.svc.ExecuteBatch(r.Context(), structcontent.BatchRequest{
		Items:  req.Items,
		Atomic: req.Atomic,
		DryRun: req.DryRun || dryRun(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, batchResponse{Results: results})
}

// GetItem fetches one content item.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.svc.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, item)
}

// ListItems lists content items, optionally filtered by contentTypeId.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	var req structcontent.ListItemsRequest
	if raw := r.URL.Query().Get("contentTypeId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, structcontent.NewError(structcontent.CodeInvalidRequest,
				"contentTypeId is not a valid UUID",
				"use an id from the content type listing"))
			return
		}
		req.ContentTypeID = &id
	}

	items, err := h.svc.ListItems(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

// ListItemVersions lists an item's version snapshots, newest first.
func (h *Handler) ListItemVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	versions, err := h.svc.ListItemVersions(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, versions)
}
