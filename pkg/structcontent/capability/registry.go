// Package capability declares the static registry mapping every logical
// operation to its binding on each of the three protocol surfaces, and the
// structural conformance check that keeps the surfaces from drifting apart.
package capability

// Capability maps one logical operation to its REST route, graph field and
// tool name. DryRun marks operations that must expose an equivalently shaped
// dry-run parameter on every surface; every such operation is a mutation.
type Capability struct {
	ID          string
	Description string
	RESTMethod  string
	RESTPath    string
	GraphField  string
	ToolName    string
	Mutation    bool
	DryRun      bool
}

// Registry returns the capability table. It is the single source of truth
// for what every protocol adapter must expose; the Verify check compares
// each adapter's declared bindings against it.
func Registry() []Capability {
	return []Capability{
		{
			ID:          "content_item.create",
			Description: "Create a content item at version 1",
			RESTMethod:  "POST", RESTPath: "/content-items",
			GraphField: "createContentItem",
			ToolName:   "create_content_item",
			Mutation:   true, DryRun: true,
		},
		{
			ID:          "content_item.update",
			Description: "Update a content item, bumping its version",
			RESTMethod:  "PUT", RESTPath: "/content-items/{id}",
			GraphField: "updateContentItem",
			ToolName:   "update_content_item",
			Mutation:   true, DryRun: true,
		},
		{
			ID:          "content_item.delete",
			Description: "Delete a content item and its version history",
			RESTMethod:  "DELETE", RESTPath: "/content-items/{id}",
			GraphField: "deleteContentItem",
			ToolName:   "delete_content_item",
			Mutation:   true, DryRun: true,
		},
		{
			ID:          "content_item.rollback",
			Description: "Append a new version whose content equals an older one",
			RESTMethod:  "POST", RESTPath: "/content-items/{id}/rollback",
			GraphField: "rollbackContentItem",
			ToolName:   "rollback_content_item",
			Mutation:   true, DryRun: true,
		},
		{
			ID:          "content_item.batch",
			Description: "Execute a batch of item mutations atomically or per item",
			RESTMethod:  "POST", RESTPath: "/content-items/batch",
			GraphField: "createContentItemsBatch",
			ToolName:   "create_content_items_batch",
			Mutation:   true, DryRun: true,
		},
		{
			ID:          "content_item.get",
			Description: "Fetch one content item",
			RESTMethod:  "GET", RESTPath: "/content-items/{id}",
			GraphField: "contentItem",
			ToolName:   "get_content_item",
		},
		{
			ID:          "content_item.list",
			Description: "List content items, optionally by type",
			RESTMethod:  "GET", RESTPath: "/content-items",
			GraphField: "contentItems",
			ToolName:   "list_content_items",
		},
		{
			ID:          "content_item.versions",
			Description: "List an item's version snapshots, newest first",
			RESTMethod:  "GET", RESTPath: "/content-items/{id}/versions",
			GraphField: "contentItemVersions",
			ToolName:   "get_content_item_versions",
		},
		{
			ID:          "content_type.create",
			Description: "Declare a content type with a JSON schema",
			RESTMethod:  "POST", RESTPath: "/content-types",
			GraphField: "createContentType",
			ToolName:   "create_content_type",
			Mutation:   true,
		},
		{
			ID:          "content_type.update",
			Description: "Update a content type; items revalidate on next mutation",
			RESTMethod:  "PUT", RESTPath: "/content-types/{id}",
			GraphField: "updateContentType",
			ToolName:   "update_content_type",
			Mutation:   true,
		},
		{
			ID:          "content_type.delete",
			Description: "Delete an unused content type",
			RESTMethod:  "DELETE", RESTPath: "/content-types/{id}",
			GraphField: "deleteContentType",
			ToolName:   "delete_content_type",
			Mutation:   true,
		},
		{
			ID:          "content_type.get",
			Description: "Fetch one content type",
			RESTMethod:  "GET", RESTPath: "/content-types/{id}",
			GraphField: "contentType",
			ToolName:   "get_content_type",
		},
		{
			ID:          "content_type.get_by_slug",
			Description: "Fetch one content type by slug",
			RESTMethod:  "GET", RESTPath: "/content-types/slug/{slug}",
			GraphField: "contentTypeBySlug",
			ToolName:   "get_content_type_by_slug",
		},
		{
			ID:          "content_type.list",
			Description: "List declared content types",
			RESTMethod:  "GET", RESTPath: "/content-types",
			GraphField: "contentTypes",
			ToolName:   "list_content_types",
		},
	}
}
