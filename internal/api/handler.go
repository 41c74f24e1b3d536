// Package api is the REST adapter. It translates wire shapes to the content
// service and back; all business logic lives behind structcontent.Service.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/structcms/structured-content/pkg/structcontent"
	"github.com/structcms/structured-content/pkg/structcontent/capability"
)

// dryRunMode is the query parameter value that turns a mutation route into
// a consequence-free validation pass.
const dryRunMode = "dry_run"

// Handler serves the REST surface.
type Handler struct {
	svc structcontent.Service
}

// NewHandler creates a new REST handler.
func NewHandler(svc structcontent.Service) *Handler {
	return &Handler{svc: svc}
}

// route is one declared REST binding. The same table registers the chi
// routes and feeds the capability parity check, so the two cannot drift.
type route struct {
	method  string
	pattern string
	dryRun  bool
	fn      http.HandlerFunc
}

func (h *Handler) routes() []route {
	return []route{
		{http.MethodPost, "/content-items", true, h.CreateItem},
		{http.MethodPut, "/content-items/{id}", true, h.UpdateItem},
		{http.MethodDelete, "/content-items/{id}", true, h.DeleteItem},
		{http.MethodPost, "/content-items/{id}/rollback", true, h.RollbackItem},
		{http.MethodPost, "/content-items/batch", true, h.ExecuteBatch},
		{http.MethodGet, "/content-items/{id}", false, h.GetItem},
		{http.MethodGet, "/content-items", false, h.ListItems},
		{http.MethodGet, "/content-items/{id}/versions", false, h.ListItemVersions},
		{http.MethodPost, "/content-types", false, h.CreateContentType},
		{http.MethodPut, "/content-types/{id}", false, h.UpdateContentType},
		{http.MethodDelete, "/content-types/{id}", false, h.DeleteContentType},
		{http.MethodGet, "/content-types/{id}", false, h.GetContentType},
		{http.MethodGet, "/content-types/slug/{slug}", false, h.GetContentTypeBySlug},
		{http.MethodGet, "/content-types", false, h.ListContentTypes},
	}
}

// Routes returns the chi router for the REST surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	for _, rt := range h.routes() {
		r.MethodFunc(rt.method, rt.pattern, rt.fn)
	}
	return r
}

// Bindings exports the declared routes for the capability parity check.
func (h *Handler) Bindings() []capability.RESTRoute {
	routes := h.routes()
	out := make([]capability.RESTRoute, len(routes))
	for i, rt := range routes {
		out[i] = capability.RESTRoute{Method: rt.method, Path: rt.pattern, DryRun: rt.dryRun}
	}
	return out
}

func dryRun(r *http.Request) bool {
	return r.URL.Query().Get("mode") == dryRunMode
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return structcontent.NewError(structcontent.CodeInvalidRequest,
			"request body could not be decoded",
			"send a JSON body matching the documented request shape",
		).WithContext("detail", err.Error())
	}
	return nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	se, ok := structcontent.AsError(err)
	if !ok {
		se = structcontent.NewError(structcontent.CodeInternal,
			"an internal error occurred",
			"retry later; if the problem persists contact the operator")
	}
	render.Status(r, statusFor(se.Code))
	render.JSON(w, r, se)
}

func statusFor(code string) int {
	switch code {
	case structcontent.CodeContentTypeNotFound,
		structcontent.CodeContentItemNotFound,
		structcontent.CodeTargetVersionNotFound:
		return http.StatusNotFound
	case structcontent.CodeContentSchemaInvalid,
		structcontent.CodeTypeSchemaInvalid,
		structcontent.CodeEmptyUpdateBody,
		structcontent.CodeEmptyBatch,
		structcontent.CodeInvalidStatus,
		structcontent.CodeInvalidBatchOp,
		structcontent.CodeInvalidRequest:
		return http.StatusBadRequest
	case structcontent.CodeBatchAtomicFailed:
		return http.StatusUnprocessableEntity
	case structcontent.CodeContentTypeInUse:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
