// Package mcp exposes the mutation engine as MCP tools. Like the REST and
// graph adapters it only translates wire formats; one spec list drives both
// tool registration and the bindings handed to the conformance check.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/structcms/structured-content/pkg/structcontent"
	"github.com/structcms/structured-content/pkg/structcontent/capability"
)

// Handler registers the content tools on an MCP server.
type Handler struct {
	svc structcontent.Service
}

// NewHandler creates a handler backed by the given service.
func NewHandler(svc structcontent.Service) *Handler {
	return &Handler{svc: svc}
}

type toolSpec struct {
	tool mcp.Tool
	fn   server.ToolHandlerFunc
}

// RegisterTools registers every content tool with the MCP server.
func (h *Handler) RegisterTools(s *server.MCPServer) {
	for _, sp := range h.tools() {
		s.AddTool(sp.tool, sp.fn)
	}
}

// Bindings reports the declared tools in the shape the conformance check
// compares against the capability registry.
func (h *Handler) Bindings() []capability.Tool {
	specs := h.tools()
	out := make([]capability.Tool, 0, len(specs))
	for _, sp := range specs {
		props := make([]string, 0, len(sp.tool.InputSchema.Properties))
		for name := range sp.tool.InputSchema.Properties {
			props = append(props, name)
		}
		out = append(out, capability.Tool{Name: sp.tool.Name, Properties: props})
	}
	return out
}

func (h *Handler) tools() []toolSpec {
	return []toolSpec{
		{
			tool: newTool("create_content_item",
				"Create a content item at version 1. Set dryRun to validate without persisting.",
				map[string]any{
					"contentTypeId": property("string", "ID of the content type the item conforms to"),
					"data":          property("object", "Item payload validated against the type's JSON schema"),
					"status":        property("string", "draft, published or archived (default draft)"),
					"dryRun":        property("boolean", "Validate only; persist and audit nothing"),
				}, "contentTypeId", "data"),
			fn: h.handleCreateItem,
		},
		{
			tool: newTool("update_content_item",
				"Update a content item's data, status or type, bumping its version. Set dryRun to validate without persisting.",
				map[string]any{
					"id":            property("string", "Content item ID"),
					"contentTypeId": property("string", "New content type ID"),
					"data":          property("object", "New item payload"),
					"status":        property("string", "New status: draft, published or archived"),
					"dryRun":        property("boolean", "Validate only; persist and audit nothing"),
				}, "id"),
			fn: h.handleUpdateItem,
		},
		{
			tool: newTool("delete_content_item",
				"Delete a content item and its version history. Set dryRun to check without deleting.",
				map[string]any{
					"id":     property("string", "Content item ID"),
					"dryRun": property("boolean", "Check only; persist and audit nothing"),
				}, "id"),
			fn: h.handleDeleteItem,
		},
		{
			tool: newTool("rollback_content_item",
				"Append a new version whose content equals an earlier version. Set dryRun to validate without persisting.",
				map[string]any{
					"id":      property("string", "Content item ID"),
					"version": property("integer", "Version number to roll back to"),
					"dryRun":  property("boolean", "Validate only; persist and audit nothing"),
				}, "id", "version"),
			fn: h.handleRollbackItem,
		},
		{
			tool: newTool("create_content_items_batch",
				"Execute a batch of item mutations, atomically or per item. Set dryRun to validate every item without persisting.",
				map[string]any{
					"items":  property("array", "Batch items, each with an op (create, update, delete) plus that op's fields"),
					"atomic": property("boolean", "Run all items in one transaction; abort all on first failure"),
					"dryRun": property("boolean", "Validate only; persist and audit nothing"),
				}, "items"),
			fn: h.handleBatch,
		},
		{
			tool: newTool("get_content_item",
				"Fetch one content item by ID.",
				map[string]any{
					"id": property("string", "Content item ID"),
				}, "id"),
			fn: h.handleGetItem,
		},
		{
			tool: newTool("list_content_items",
				"List content items, optionally narrowed to one content type.",
				map[string]any{
					"contentTypeId": property("string", "Only list items of this content type"),
				}),
			fn: h.handleListItems,
		},
		{
			tool: newTool("get_content_item_versions",
				"List an item's version snapshots, newest first.",
				map[string]any{
					"id": property("string", "Content item ID"),
				}, "id"),
			fn: h.handleItemVersions,
		},
		{
			tool: newTool("create_content_type",
				"Declare a content type with a JSON schema its items must conform to.",
				map[string]any{
					"name":        property("string", "Display name"),
					"slug":        property("string", "URL-safe unique identifier"),
					"schema":      property("object", "JSON schema for item payloads"),
					"description": property("string", "Optional description"),
				}, "name", "slug", "schema"),
			fn: h.handleCreateType,
		},
		{
			tool: newTool("update_content_type",
				"Update a content type. Existing items are revalidated on their next mutation, not now.",
				map[string]any{
					"id":          property("string", "Content type ID"),
					"name":        property("string", "New display name"),
					"slug":        property("string", "New slug"),
					"schema":      property("object", "New JSON schema"),
					"description": property("string", "New description"),
				}, "id"),
			fn: h.handleUpdateType,
		},
		{
			tool: newTool("delete_content_type",
				"Delete a content type that has no content items.",
				map[string]any{
					"id": property("string", "Content type ID"),
				}, "id"),
			fn: h.handleDeleteType,
		},
		{
			tool: newTool("get_content_type",
				"Fetch one content type by ID.",
				map[string]any{
					"id": property("string", "Content type ID"),
				}, "id"),
			fn: h.handleGetType,
		},
		{
			tool: newTool("get_content_type_by_slug",
				"Fetch one content type by slug.",
				map[string]any{
					"slug": property("string", "Content type slug"),
				}, "slug"),
			fn: h.handleGetTypeBySlug,
		},
		{
			tool: newTool("list_content_types",
				"List declared content types.",
				map[string]any{}),
			fn: h.handleListTypes,
		},
	}
}

func (h *Handler) handleCreateItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	typeID, serr := uuidField(args, "contentTypeId")
	if serr != nil {
		return errorResult(serr), nil
	}
	data, serr := rawField(args, "data")
	if serr != nil {
		return errorResult(serr), nil
	}
	req := structcontent.CreateItemRequest{
		ContentTypeID: typeID,
		Data:          data,
		DryRun:        boolField(args, "dryRun"),
	}
	if s := stringField(args, "status"); s != "" {
		req.Status = structcontent.ItemStatus(s)
	}
	item, err := h.svc.CreateItem(ctx, req)
	if err != nil {
		return errorResult(asEnvelope(err)), nil
	}
	return jsonResult(item)
}

func (h *Handler) handleUpdateItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, serr := uuidField(args, "id")
	if serr != nil {
		return errorResult(serr), nil
	}
	typeID, serr := optionalUUIDField(args, "contentTypeId")
	if serr != nil {
		return errorResult(serr), nil
	}
	data, serr := rawField(args, "data")
	if serr != nil {
		return errorResult(serr), nil
	}
	req := structcontent.UpdateItemRequest{
		ID:            id,
		ContentTypeID: typeID,
		Data:          data,
		DryRun:        boolField(args, "dryRun"),
	}
	if s := stringField(args, "status"); s != "" {
		st := structcontent.ItemStatus(s)
		req.Status = &st
	}
	item, err := h.svc.UpdateItem(ctx, req)
	if err != nil {
		return errorResult(asEnvelope(err)), nil
	}
	return jsonResult(item)
}

func (h *Handler) handleDeleteItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, serr := uuidField(args, "id")
	if serr != nil {
		return errorResult(serr), nil
	}
	item, err := h.svc.DeleteItem(ctx, structcontent.DeleteItemRequest{
		ID:     id,
		DryRun: boolField(args, "dryRun"),
	})
	if err != nil {
		return errorResult(asEnvelope(err)), nil
	}
	return jsonResult(item)
}

func (h *Handler) handleRollbackItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, serr := uuidField(args, "id")
	if serr != nil {
		return errorResult(serr), nil
	}
	version, serr := intField(args, "version")
	if serr != nil {
		return errorResult(serr), nil
	}
	item, err := h.svc.RollbackItem(ctx, structcontent.RollbackItemRequest{
		ID:      id,
		Version: version,
		DryRun:  boolField(args, "dryRun"),
	})
	if err != nil {
		return errorResult(asEnvelope(err)), nil
	}
	return jsonResult(item)
}

func (h *Handler) handleBatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	items, serr := batchItemsField(args)
	if serr != nil {
		return errorResult(serr), nil
	}
	results, err := h.svc.ExecuteBatch(ctx, structcontent.BatchRequest{
		Items:  items,
		Atomic: boolField(args, "atomic"),
		DryRun: boolField(args, "dryRun"),
	})
	if err != nil {
		return errorResult(asEnvelope(err)), nil
	}
	return jsonResult(map[string]any{"results": results})
}

func (h *Handler) handleGetItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, serr := uuidField(request.GetArguments(), "id")
	if serr != nil {
		return errorResult(serr), nil
	}
	item, err := h.svc.GetItem(ctx, id)
	if err != nil {
		return errorResult(asEnvelope(err)), nil
	}
	return jsonResult(item)
}

func (h *Handler) handleListItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typeID, serr := optionalUUIDField(request.GetArguments(), "contentTypeId")
	if serr != nil {
		return errorResult(serr), nil
	}
	items, err := h.svc.ListItems(ctx, structcontent.ListItemsRequest{ContentTypeID: typeID})
	if err != nil {
		return errorResult(asEnvelope(err)), nil
	}
	return jsonResult(items)
}

func (h *Handler) handleItemVersions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, serr := uuidField(request.GetArguments(), "id")
	if serr != nil {
		return errorResult(serr), nil
	}
	versions, err := h.svc.ListItemVersions(ctx, id)
	if err != nil {
		return errorResult(asEnvelope(err)), nil
	}
	return jsonResult(versions)
}

func (h *Handler) handleCreateType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	schema, serr := rawField(args, "schema")
	if serr != nil {
		return errorResult(serr), nil
	}
	ct, err := h.svc.CreateContentType(ctx, structcontent.CreateContentTypeRequest{
		Name:        stringField(args, "name"),
		Slug:        stringField(args, "slug"),
		Schema:      schema,
		Description: stringField(args, "description"),
	})
	if err != nil {
		return errorResult(asEnvelope(err)), nil
	}
	return jsonResult(ct)
}

func (h *Handler) handleUpdateType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, serr := uuidField(args, "id")
	if serr != nil {
		return errorResult(serr), nil
	}
	schema, serr := rawField(args, "schema")
	if serr != nil {
		return errorResult(serr), nil
	}
	ct, err := h.svc.UpdateContentType(ctx, structcontent.UpdateContentTypeRequest{
		ID:          id,
		Name:        optionalStringField(args, "name"),
		Slug:        optionalStringField(args, "slug"),
		Schema:      schema,
		Description: optionalStringField(args, "description"),
	})
	if err != nil {
		return errorResult(asEnvelope(err)), nil
	}
	return jsonResult(ct)
}

func (h *Handler) handleDeleteType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, serr := uuidField(request.GetArguments(), "id")
	if serr != nil {
		return errorResult(serr), nil
	}
	ct, err := h.svc.DeleteContentType(ctx, id)
	if err != nil {
		return errorResult(asEnvelope(err)), nil
	}
	return jsonResult(ct)
}

func (h *Handler) handleGetType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, serr := uuidField(request.GetArguments(), "id")
	if serr != nil {
		return errorResult(serr), nil
	}
	ct, err := h.svc.GetContentType(ctx, id)
	if err != nil {
		return errorResult(asEnvelope(err)), nil
	}
	return jsonResult(ct)
}

func (h *Handler) handleGetTypeBySlug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug := stringField(request.GetArguments(), "slug")
	ct, err := h.svc.GetContentTypeBySlug(ctx, slug)
	if err != nil {
		return errorResult(asEnvelope(err)), nil
	}
	return jsonResult(ct)
}

func (h *Handler) handleListTypes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	types, err := h.svc.ListContentTypes(ctx)
	if err != nil {
		return errorResult(asEnvelope(err)), nil
	}
	return jsonResult(types)
}

// Tool construction and result helpers.

func newTool(name, description string, props map[string]any, required ...string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
}

func property(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

// errorResult renders the same error envelope the other surfaces return,
// as a tool error.
func errorResult(se *structcontent.Error) *mcp.CallToolResult {
	out, err := json.Marshal(se)
	if err != nil {
		return mcp.NewToolResultError(se.Error())
	}
	return mcp.NewToolResultError(string(out))
}

func asEnvelope(err error) *structcontent.Error {
	if se, ok := structcontent.AsError(err); ok {
		return se
	}
	return structcontent.ErrInternal(err)
}

// Argument parsing. MCP arguments arrive as decoded JSON, so numbers are
// float64 and nested documents are maps.

func uuidField(args map[string]any, name string) (uuid.UUID, *structcontent.Error) {
	s, _ := args[name].(string)
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, structcontent.NewError(structcontent.CodeInvalidRequest,
			fmt.Sprintf("%s must be a UUID", name),
			"pass a canonical UUID string",
		).WithContext(name, s)
	}
	return id, nil
}

func optionalUUIDField(args map[string]any, name string) (*uuid.UUID, *structcontent.Error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	id, serr := uuidField(args, name)
	if serr != nil {
		return nil, serr
	}
	return &id, nil
}

func stringField(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func optionalStringField(args map[string]any, name string) *string {
	if s, ok := args[name].(string); ok {
		return &s
	}
	return nil
}

func boolField(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}

func intField(args map[string]any, name string) (int, *structcontent.Error) {
	switch v := args[name].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	}
	return 0, structcontent.NewError(structcontent.CodeInvalidRequest,
		fmt.Sprintf("%s must be an integer", name),
		"pass a whole number",
	).WithContext(name, args[name])
}

func rawField(args map[string]any, name string) (json.RawMessage, *structcontent.Error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, structcontent.NewError(structcontent.CodeInvalidRequest,
			fmt.Sprintf("%s is not a JSON value", name),
			"pass a JSON object, array or scalar",
		)
	}
	return raw, nil
}

func batchItemsField(args map[string]any) ([]structcontent.BatchItem, *structcontent.Error) {
	raw, err := json.Marshal(args["items"])
	if err != nil {
		return nil, structcontent.NewError(structcontent.CodeInvalidRequest,
			"items is not a JSON array", "pass an array of batch item objects")
	}
	var items []structcontent.BatchItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, structcontent.NewError(structcontent.CodeInvalidRequest,
			"items could not be decoded", "each item needs an op plus the fields that op requires",
		).WithContext("detail", err.Error())
	}
	return items, nil
}
