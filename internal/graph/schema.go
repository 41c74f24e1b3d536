// Package graph exposes the mutation engine as a GraphQL schema. It is a
// wire-format adapter over structcontent.Service with no business logic of
// its own; its field set mirrors the capability registry exactly, which the
// conformance check enforces.
package graph

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"

	"github.com/structcms/structured-content/pkg/structcontent"
)

// resolverError adapts a structured engine error to the graph surface.
// Code, remediation and context travel in the error's extensions so callers
// see the same envelope as on the other surfaces.
type resolverError struct {
	err *structcontent.Error
}

func (e resolverError) Error() string { return e.err.Error() }

func (e resolverError) Unwrap() error { return e.err }

func (e resolverError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{
		"code":        e.err.Code,
		"remediation": e.err.Remediation,
	}
	if len(e.err.Context) > 0 {
		ext["context"] = e.err.Context
	}
	return ext
}

func wrap(err error) error {
	if se, ok := structcontent.AsError(err); ok {
		return resolverError{se}
	}
	return resolverError{structcontent.ErrInternal(err)}
}

// New builds the executable schema over the given service.
func New(svc structcontent.Service) (graphql.Schema, error) {
	contentTypeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ContentType",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"slug":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"schema":      &graphql.Field{Type: graphql.NewNonNull(jsonScalar)},
			"description": &graphql.Field{Type: graphql.String},
			"createdAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"updatedAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		},
	})

	contentItemType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ContentItem",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"contentTypeId": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"data":          &graphql.Field{Type: graphql.NewNonNull(jsonScalar)},
			"status":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"version":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"createdAt":     &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"updatedAt":     &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"contentType": &graphql.Field{
				Type: contentTypeType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					item, ok := p.Source.(*structcontent.ContentItem)
					if !ok {
						return nil, nil
					}
					ct, err := svc.GetContentType(p.Context, item.ContentTypeID)
					if err != nil {
						return nil, wrap(err)
					}
					return ct, nil
				},
			},
		},
	})

	contentItemVersionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ContentItemVersion",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"contentItemId": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"version":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"data":          &graphql.Field{Type: graphql.NewNonNull(jsonScalar)},
			"status":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt":     &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		},
	})

	batchItemResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BatchItemResult",
		Fields: graphql.Fields{
			"index": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"ok":    &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"id": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					res, ok := p.Source.(structcontent.BatchItemResult)
					if !ok || res.ID == nil {
						return nil, nil
					}
					return res.ID.String(), nil
				},
			},
			"version": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					res, ok := p.Source.(structcontent.BatchItemResult)
					if !ok || res.Version == nil {
						return nil, nil
					}
					return *res.Version, nil
				},
			},
			"code":  &graphql.Field{Type: graphql.String},
			"error": &graphql.Field{Type: graphql.String},
		},
	})

	batchItemInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "BatchItemInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"op":            &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"id":            &graphql.InputObjectFieldConfig{Type: graphql.String},
			"contentTypeId": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"data":          &graphql.InputObjectFieldConfig{Type: jsonScalar},
			"status":        &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"contentItem": &graphql.Field{
				Type: contentItemType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := uuidArg(p, "id")
					if err != nil {
						return nil, err
					}
					item, err := svc.GetItem(p.Context, id)
					if err != nil {
						return nil, wrap(err)
					}
					return item, nil
				},
			},
			"contentItems": &graphql.Field{
				Type: graphql.NewList(contentItemType),
				Args: graphql.FieldConfigArgument{
					"contentTypeId": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					typeID, err := optionalUUIDArg(p, "contentTypeId")
					if err != nil {
						return nil, err
					}
					items, err := svc.ListItems(p.Context, structcontent.ListItemsRequest{ContentTypeID: typeID})
					if err != nil {
						return nil, wrap(err)
					}
					return items, nil
				},
			},
			"contentItemVersions": &graphql.Field{
				Type: graphql.NewList(contentItemVersionType),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := uuidArg(p, "id")
					if err != nil {
						return nil, err
					}
					versions, err := svc.ListItemVersions(p.Context, id)
					if err != nil {
						return nil, wrap(err)
					}
					return versions, nil
				},
			},
			"contentType": &graphql.Field{
				Type: contentTypeType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := uuidArg(p, "id")
					if err != nil {
						return nil, err
					}
					ct, err := svc.GetContentType(p.Context, id)
					if err != nil {
						return nil, wrap(err)
					}
					return ct, nil
				},
			},
			"contentTypeBySlug": &graphql.Field{
				Type: contentTypeType,
				Args: graphql.FieldConfigArgument{
					"slug": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					slug, _ := p.Args["slug"].(string)
					ct, err := svc.GetContentTypeBySlug(p.Context, slug)
					if err != nil {
						return nil, wrap(err)
					}
					return ct, nil
				},
			},
			"contentTypes": &graphql.Field{
				Type: graphql.NewList(contentTypeType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					types, err := svc.ListContentTypes(p.Context)
					if err != nil {
						return nil, wrap(err)
					}
					return types, nil
				},
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createContentItem": &graphql.Field{
				Type: contentItemType,
				Args: graphql.FieldConfigArgument{
					"contentTypeId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"data":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(jsonScalar)},
					"status":        &graphql.ArgumentConfig{Type: graphql.String},
					"dryRun":        &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					typeID, err := uuidArg(p, "contentTypeId")
					if err != nil {
						return nil, err
					}
					data, err := rawArg(p, "data")
					if err != nil {
						return nil, err
					}
					req := structcontent.CreateItemRequest{
						ContentTypeID: typeID,
						Data:          data,
						DryRun:        boolArg(p, "dryRun"),
					}
					if st := statusArg(p); st != nil {
						req.Status = *st
					}
					item, err := svc.CreateItem(p.Context, req)
					if err != nil {
						return nil, wrap(err)
					}
					return item, nil
				},
			},
			"updateContentItem": &graphql.Field{
				Type: contentItemType,
				Args: graphql.FieldConfigArgument{
					"id":            &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"contentTypeId": &graphql.ArgumentConfig{Type: graphql.String},
					"data":          &graphql.ArgumentConfig{Type: jsonScalar},
					"status":        &graphql.ArgumentConfig{Type: graphql.String},
					"dryRun":        &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := uuidArg(p, "id")
					if err != nil {
						return nil, err
					}
					typeID, err := optionalUUIDArg(p, "contentTypeId")
					if err != nil {
						return nil, err
					}
					data, err := rawArg(p, "data")
					if err != nil {
						return nil, err
					}
					item, err := svc.UpdateItem(p.Context, structcontent.UpdateItemRequest{
						ID:            id,
						ContentTypeID: typeID,
						Data:          data,
						Status:        statusArg(p),
						DryRun:        boolArg(p, "dryRun"),
					})
					if err != nil {
						return nil, wrap(err)
					}
					return item, nil
				},
			},
			"deleteContentItem": &graphql.Field{
				Type: contentItemType,
				Args: graphql.FieldConfigArgument{
					"id":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"dryRun": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := uuidArg(p, "id")
					if err != nil {
						return nil, err
					}
					item, err := svc.DeleteItem(p.Context, structcontent.DeleteItemRequest{
						ID:     id,
						DryRun: boolArg(p, "dryRun"),
					})
					if err != nil {
						return nil, wrap(err)
					}
					return item, nil
				},
			},
			"rollbackContentItem": &graphql.Field{
				Type: contentItemType,
				Args: graphql.FieldConfigArgument{
					"id":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"version": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"dryRun":  &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := uuidArg(p, "id")
					if err != nil {
						return nil, err
					}
					version, _ := p.Args["version"].(int)
					item, err := svc.RollbackItem(p.Context, structcontent.RollbackItemRequest{
						ID:      id,
						Version: version,
						DryRun:  boolArg(p, "dryRun"),
					})
					if err != nil {
						return nil, wrap(err)
					}
					return item, nil
				},
			},
			"createContentItemsBatch": &graphql.Field{
				Type: graphql.NewList(batchItemResultType),
				Args: graphql.FieldConfigArgument{
					"items":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(batchItemInput)))},
					"atomic": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"dryRun": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					items, err := batchItemsArg(p)
					if err != nil {
						return nil, err
					}
					results, err := svc.ExecuteBatch(p.Context, structcontent.BatchRequest{
						Items:  items,
						Atomic: boolArg(p, "atomic"),
						DryRun: boolArg(p, "dryRun"),
					})
					if err != nil {
						return nil, wrap(err)
					}
					return results, nil
				},
			},
			"createContentType": &graphql.Field{
				Type: contentTypeType,
				Args: graphql.FieldConfigArgument{
					"name":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"slug":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"schema":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(jsonScalar)},
					"description": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					schema, err := rawArg(p, "schema")
					if err != nil {
						return nil, err
					}
					name, _ := p.Args["name"].(string)
					slug, _ := p.Args["slug"].(string)
					description, _ := p.Args["description"].(string)
					ct, err := svc.CreateContentType(p.Context, structcontent.CreateContentTypeRequest{
						Name:        name,
						Slug:        slug,
						Schema:      schema,
						Description: description,
					})
					if err != nil {
						return nil, wrap(err)
					}
					return ct, nil
				},
			},
			"updateContentType": &graphql.Field{
				Type: contentTypeType,
				Args: graphql.FieldConfigArgument{
					"id":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"name":        &graphql.ArgumentConfig{Type: graphql.String},
					"slug":        &graphql.ArgumentConfig{Type: graphql.String},
					"schema":      &graphql.ArgumentConfig{Type: jsonScalar},
					"description": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := uuidArg(p, "id")
					if err != nil {
						return nil, err
					}
					schema, err := rawArg(p, "schema")
					if err != nil {
						return nil, err
					}
					ct, err := svc.UpdateContentType(p.Context, structcontent.UpdateContentTypeRequest{
						ID:          id,
						Name:        optionalStringArg(p, "name"),
						Slug:        optionalStringArg(p, "slug"),
						Schema:      schema,
						Description: optionalStringArg(p, "description"),
					})
					if err != nil {
						return nil, wrap(err)
					}
					return ct, nil
				},
			},
			"deleteContentType": &graphql.Field{
				Type: contentTypeType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := uuidArg(p, "id")
					if err != nil {
						return nil, err
					}
					ct, err := svc.DeleteContentType(p.Context, id)
					if err != nil {
						return nil, wrap(err)
					}
					return ct, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

// Argument helpers. Malformed arguments surface as INVALID_REQUEST with the
// offending argument named in the context, same as on the REST surface.

func uuidArg(p graphql.ResolveParams, name string) (uuid.UUID, error) {
	s, _ := p.Args[name].(string)
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, wrap(structcontent.NewError(structcontent.CodeInvalidRequest,
			fmt.Sprintf("%s must be a UUID", name),
			"pass a canonical UUID string",
		).WithContext(name, s))
	}
	return id, nil
}

func optionalUUIDArg(p graphql.ResolveParams, name string) (*uuid.UUID, error) {
	v, ok := p.Args[name]
	if !ok || v == nil {
		return nil, nil
	}
	id, err := uuidArg(p, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optionalStringArg(p graphql.ResolveParams, name string) *string {
	if s, ok := p.Args[name].(string); ok {
		return &s
	}
	return nil
}

func boolArg(p graphql.ResolveParams, name string) bool {
	b, _ := p.Args[name].(bool)
	return b
}

func statusArg(p graphql.ResolveParams) *structcontent.ItemStatus {
	s, ok := p.Args["status"].(string)
	if !ok || s == "" {
		return nil
	}
	st := structcontent.ItemStatus(s)
	return &st
}

func rawArg(p graphql.ResolveParams, name string) (json.RawMessage, error) {
	v, ok := p.Args[name]
	if !ok || v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, wrap(structcontent.NewError(structcontent.CodeInvalidRequest,
			fmt.Sprintf("%s is not a JSON value", name),
			"pass a JSON object, array or scalar",
		))
	}
	return raw, nil
}

func batchItemsArg(p graphql.ResolveParams) ([]structcontent.BatchItem, error) {
	raw, err := json.Marshal(p.Args["items"])
	if err != nil {
		return nil, wrap(structcontent.NewError(structcontent.CodeInvalidRequest,
			"items is not a JSON array", "pass an array of batch item objects"))
	}
	var items []structcontent.BatchItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, wrap(structcontent.NewError(structcontent.CodeInvalidRequest,
			"items could not be decoded", "each item needs an op plus the fields that op requires",
		).WithContext("detail", err.Error()))
	}
	return items, nil
}
