package structcontent_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structcms/structured-content/pkg/structcontent"
)

func TestCreateContentType(t *testing.T) {
	svc, sink := setupTestService(t)

	ct, err := svc.CreateContentType(context.Background(), structcontent.CreateContentTypeRequest{
		Name:        "Article",
		Slug:        "article",
		Schema:      json.RawMessage(articleSchema),
		Description: "Long-form posts",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, ct.ID)
	assert.Equal(t, "article", ct.Slug)
	assert.Equal(t, "Long-form posts", ct.Description)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, structcontent.ActionTypeCreate, entries[0].Action)
}

func TestCreateContentTypeInvalidSchema(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		schema json.RawMessage
	}{
		{"empty document", nil},
		{"broken json", json.RawMessage(`{"type": `)},
		{"malformed schema", json.RawMessage(`{"type": 12}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateContentType(ctx, structcontent.CreateContentTypeRequest{
				Name:   "Broken",
				Slug:   "broken",
				Schema: tt.schema,
			})
			assert.Equal(t, structcontent.CodeTypeSchemaInvalid, structcontent.CodeOf(err))
		})
	}
}

func TestUpdateContentType(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	ct := createArticleType(t, svc)

	name := "Long Article"
	updated, err := svc.UpdateContentType(ctx, structcontent.UpdateContentTypeRequest{
		ID:   ct.ID,
		Name: &name,
	})
	require.NoError(t, err)
	assert.Equal(t, "Long Article", updated.Name)
	// Untouched fields carry over.
	assert.Equal(t, ct.Slug, updated.Slug)
	assert.JSONEq(t, string(ct.Schema), string(updated.Schema))
}

func TestUpdateContentTypeRejectsBrokenSchema(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	ct := createArticleType(t, svc)

	_, err := svc.UpdateContentType(ctx, structcontent.UpdateContentTypeRequest{
		ID:     ct.ID,
		Schema: json.RawMessage(`{"type": `),
	})
	assert.Equal(t, structcontent.CodeTypeSchemaInvalid, structcontent.CodeOf(err))

	// The stored schema is unchanged.
	stored, err := svc.GetContentType(ctx, ct.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(ct.Schema), string(stored.Schema))
}

func TestUpdateContentTypeNotFound(t *testing.T) {
	svc, _ := setupTestService(t)

	name := "x"
	_, err := svc.UpdateContentType(context.Background(), structcontent.UpdateContentTypeRequest{
		ID:   uuid.New(),
		Name: &name,
	})
	assert.Equal(t, structcontent.CodeContentTypeNotFound, structcontent.CodeOf(err))
}

func TestDeleteContentType(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	ct := createArticleType(t, svc)

	deleted, err := svc.DeleteContentType(ctx, ct.ID)
	require.NoError(t, err)
	assert.Equal(t, ct.ID, deleted.ID)

	_, err = svc.GetContentType(ctx, ct.ID)
	assert.Equal(t, structcontent.CodeContentTypeNotFound, structcontent.CodeOf(err))
}

func TestDeleteContentTypeInUse(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	ct := createArticleType(t, svc)
	item := createArticle(t, svc, ct.ID, "blocker")

	_, err := svc.DeleteContentType(ctx, ct.ID)
	require.Error(t, err)
	se, ok := structcontent.AsError(err)
	require.True(t, ok)
	assert.Equal(t, structcontent.CodeContentTypeInUse, se.Code)
	assert.Equal(t, 1, se.Context["itemCount"])

	// Once the blocker is gone the delete goes through.
	_, err = svc.DeleteItem(ctx, structcontent.DeleteItemRequest{ID: item.ID})
	require.NoError(t, err)
	_, err = svc.DeleteContentType(ctx, ct.ID)
	assert.NoError(t, err)
}

func TestGetContentTypeBySlug(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	ct := createArticleType(t, svc)

	found, err := svc.GetContentTypeBySlug(ctx, "article")
	require.NoError(t, err)
	assert.Equal(t, ct.ID, found.ID)

	_, err = svc.GetContentTypeBySlug(ctx, "missing")
	assert.Equal(t, structcontent.CodeContentTypeNotFound, structcontent.CodeOf(err))
}

func TestListContentTypes(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	types, err := svc.ListContentTypes(ctx)
	require.NoError(t, err)
	assert.Empty(t, types)

	createArticleType(t, svc)
	_, err = svc.CreateContentType(ctx, structcontent.CreateContentTypeRequest{
		Name:   "Note",
		Slug:   "note",
		Schema: json.RawMessage(`{"type": "object"}`),
	})
	require.NoError(t, err)

	types, err = svc.ListContentTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 2)
}
