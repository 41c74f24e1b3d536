package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/structcms/structured-content/pkg/structcontent"
)

// createContentTypeRequest is the request body for declaring a content type
type createContentTypeRequest struct {
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Schema      json.RawMessage `json:"schema"`
	Description string          `json:"description,omitempty"`
}

// updateContentTypeRequest is the request body for updating a content type
type updateContentTypeRequest struct {
	Name        *string         `json:"name,omitempty"`
	Slug        *string         `json:"slug,omitempty"`
	Schema      json.RawMessage `json:"schema,omitempty"`
	Description *string         `json:"description,omitempty"`
}

// CreateContentType declares a content type with a JSON schema.
func (h *Handler) CreateContentType(w http.ResponseWriter, r *http.Request) {
	var req createContentTypeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ct, err := h.svc.CreateContentType(r.Context(), structcontent.CreateContentTypeRequest{
		Name:        req.Name,
		Slug:        req.Slug,
		Schema:      req.Schema,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, ct)
}

// UpdateContentType updates a content type declaration.
func (h *Handler) UpdateContentType(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	var req updateContentTypeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ct, err := h.svc.UpdateContentType(r.Context(), structcontent.UpdateContentTypeRequest{
		ID:          id,
		Name:        req.Name,
		Slug:        req.Slug,
		Schema:      req.Schema,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, ct)
}

// DeleteContentType deletes a content type that no items reference.
func (h *Handler) DeleteContentType(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	ct, err := h.svc.DeleteContentType(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, ct)
}

// GetContentType fetches one content type.
func (h *Handler) GetContentType(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	ct, err := h.svc.GetContentType(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, ct)
}

// GetContentTypeBySlug fetches one content type by slug.
func (h *Handler) GetContentTypeBySlug(w http.ResponseWriter, r *http.Request) {
	ct, err := h.svc.GetContentTypeBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, ct)
}

// ListContentTypes lists declared content types.
func (h *Handler) ListContentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.ListContentTypes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, types)
}
