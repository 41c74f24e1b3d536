package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structcms/structured-content/internal/api"
	"github.com/structcms/structured-content/pkg/structcontent"
	"github.com/structcms/structured-content/pkg/structcontent/repo/memory"
	"github.com/structcms/structured-content/pkg/structcontent/schemavalidator"
)

const articleSchema = `{
	"type": "object",
	"properties": {"title": {"type": "string"}},
	"required": ["title"],
	"additionalProperties": false
}`

func setupServer(t *testing.T) (*httptest.Server, structcontent.Service) {
	t.Helper()

	svc, err := structcontent.New(
		structcontent.WithRepository(memory.New()),
		structcontent.WithValidator(schemavalidator.New()),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewHandler(svc).Routes())
	t.Cleanup(srv.Close)
	return srv, svc
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createTypeHTTP(t *testing.T, srv *httptest.Server) structcontent.ContentType {
	t.Helper()

	resp := doJSON(t, http.MethodPost, srv.URL+"/content-types", map[string]any{
		"name":   "Article",
		"slug":   "article",
		"schema": json.RawMessage(articleSchema),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[structcontent.ContentType](t, resp)
}

func createItemHTTP(t *testing.T, srv *httptest.Server, typeID uuid.UUID, title string) structcontent.ContentItem {
	t.Helper()

	resp := doJSON(t, http.MethodPost, srv.URL+"/content-items", map[string]any{
		"contentTypeId": typeID,
		"data":          map[string]any{"title": title},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[structcontent.ContentItem](t, resp)
}

func TestCreateItemEndpoint(t *testing.T) {
	srv, _ := setupServer(t)
	ct := createTypeHTTP(t, srv)

	item := createItemHTTP(t, srv, ct.ID, "hello")
	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.Equal(t, 1, item.Version)
	assert.Equal(t, structcontent.ItemStatusDraft, item.Status)
}

func TestCreateItemEndpointDryRun(t *testing.T) {
	srv, svc := setupServer(t)
	ct := createTypeHTTP(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/content-items?mode=dry_run", map[string]any{
		"contentTypeId": ct.ID,
		"data":          map[string]any{"title": "preview"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := decodeBody[structcontent.ContentItem](t, resp)
	assert.Equal(t, uuid.Nil, item.ID)

	items, err := svc.ListItems(context.Background(), structcontent.ListItemsRequest{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreateItemEndpointValidationError(t *testing.T) {
	srv, _ := setupServer(t)
	ct := createTypeHTTP(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/content-items", map[string]any{
		"contentTypeId": ct.ID,
		"data":          map[string]any{"wrong": "field"},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The envelope carries code, message and remediation on every surface.
	envelope := decodeBody[map[string]any](t, resp)
	assert.Equal(t, structcontent.CodeContentSchemaInvalid, envelope["code"])
	assert.NotEmpty(t, envelope["error"])
	assert.NotEmpty(t, envelope["remediation"])
	assert.Contains(t, envelope, "context")
}

func TestUpdateItemEndpoint(t *testing.T) {
	srv, _ := setupServer(t)
	ct := createTypeHTTP(t, srv)
	item := createItemHTTP(t, srv, ct.ID, "before")

	resp := doJSON(t, http.MethodPut, fmt.Sprintf("%s/content-items/%s", srv.URL, item.ID), map[string]any{
		"data": map[string]any{"title": "after"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[structcontent.ContentItem](t, resp)
	assert.Equal(t, 2, updated.Version)
}

func TestUpdateItemEndpointEmptyBody(t *testing.T) {
	srv, _ := setupServer(t)
	ct := createTypeHTTP(t, srv)
	item := createItemHTTP(t, srv, ct.ID, "post")

	resp := doJSON(t, http.MethodPut, fmt.Sprintf("%s/content-items/%s", srv.URL, item.ID), map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	envelope := decodeBody[map[string]any](t, resp)
	assert.Equal(t, structcontent.CodeEmptyUpdateBody, envelope["code"])
}

func TestDeleteItemEndpoint(t *testing.T) {
	srv, _ := setupServer(t)
	ct := createTypeHTTP(t, srv)
	item := createItemHTTP(t, srv, ct.ID, "doomed")

	resp := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/content-items/%s", srv.URL, item.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	deleted := decodeBody[structcontent.ContentItem](t, resp)
	assert.Equal(t, item.ID, deleted.ID)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/content-items/%s", srv.URL, item.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestRollbackItemEndpoint(t *testing.T) {
	srv, _ := setupServer(t)
	ct := createTypeHTTP(t, srv)
	item := createItemHTTP(t, srv, ct.ID, "v1")

	resp := doJSON(t, http.MethodPut, fmt.Sprintf("%s/content-items/%s", srv.URL, item.ID), map[string]any{
		"data": map[string]any{"title": "v2"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/content-items/%s/rollback", srv.URL, item.ID), map[string]any{
		"version": 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rolled := decodeBody[structcontent.ContentItem](t, resp)
	assert.Equal(t, 3, rolled.Version)
	assert.JSONEq(t, `{"title": "v1"}`, string(rolled.Data))
}

func TestRollbackItemEndpointUnknownVersion(t *testing.T) {
	srv, _ := setupServer(t)
	ct := createTypeHTTP(t, srv)
	item := createItemHTTP(t, srv, ct.ID, "only")

	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/content-items/%s/rollback", srv.URL, item.ID), map[string]any{
		"version": 9,
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	envelope := decodeBody[map[string]any](t, resp)
	assert.Equal(t, structcontent.CodeTargetVersionNotFound, envelope["code"])
}

func TestBatchEndpoint(t *testing.T) {
	srv, _ := setupServer(t)
	ct := createTypeHTTP(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/content-items/batch", map[string]any{
		"items": []map[string]any{
			{"op": "create", "contentTypeId": ct.ID, "data": map[string]any{"title": "a"}},
			{"op": "create", "contentTypeId": ct.ID, "data": map[string]any{"wrong": "field"}},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[struct {
		Results []structcontent.BatchItemResult `json:"results"`
	}](t, resp)
	require.Len(t, body.Results, 2)
	assert.True(t, body.Results[0].OK)
	assert.False(t, body.Results[1].OK)
	assert.Equal(t, structcontent.CodeContentSchemaInvalid, body.Results[1].Code)
}

func TestBatchEndpointAtomicFailure(t *testing.T) {
	srv, _ := setupServer(t)
	ct := createTypeHTTP(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/content-items/batch", map[string]any{
		"atomic": true,
		"items": []map[string]any{
			{"op": "create", "contentTypeId": ct.ID, "data": map[string]any{"title": "a"}},
			{"op": "create", "contentTypeId": ct.ID, "data": map[string]any{"wrong": "field"}},
		},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	envelope := decodeBody[map[string]any](t, resp)
	assert.Equal(t, structcontent.CodeBatchAtomicFailed, envelope["code"])

	// Index of the failing item travels in the context.
	ctxMap, ok := envelope["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), ctxMap["index"])
}

func TestBatchEndpointDryRunQueryParam(t *testing.T) {
	srv, svc := setupServer(t)
	ct := createTypeHTTP(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/content-items/batch?mode=dry_run", map[string]any{
		"items": []map[string]any{
			{"op": "create", "contentTypeId": ct.ID, "data": map[string]any{"title": "a"}},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	items, err := svc.ListItems(context.Background(), structcontent.ListItemsRequest{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListItemVersionsEndpoint(t *testing.T) {
	srv, _ := setupServer(t)
	ct := createTypeHTTP(t, srv)
	item := createItemHTTP(t, srv, ct.ID, "v1")

	resp := doJSON(t, http.MethodPut, fmt.Sprintf("%s/content-items/%s", srv.URL, item.ID), map[string]any{
		"data": map[string]any{"title": "v2"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/content-items/%s/versions", srv.URL, item.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	versions := decodeBody[[]structcontent.ContentItemVersion](t, resp)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].Version)
}

func TestListItemsEndpointFilter(t *testing.T) {
	srv, _ := setupServer(t)
	ct := createTypeHTTP(t, srv)
	createItemHTTP(t, srv, ct.ID, "a")
	createItemHTTP(t, srv, ct.ID, "b")

	resp := doJSON(t, http.MethodGet, srv.URL+"/content-items?contentTypeId="+ct.ID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decodeBody[[]structcontent.ContentItem](t, resp)
	assert.Len(t, items, 2)

	resp = doJSON(t, http.MethodGet, srv.URL+"/content-items?contentTypeId=not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestContentTypeEndpoints(t *testing.T) {
	srv, _ := setupServer(t)
	ct := createTypeHTTP(t, srv)

	resp := doJSON(t, http.MethodGet, srv.URL+"/content-types/slug/article", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bySlug := decodeBody[structcontent.ContentType](t, resp)
	assert.Equal(t, ct.ID, bySlug.ID)

	resp = doJSON(t, http.MethodPut, fmt.Sprintf("%s/content-types/%s", srv.URL, ct.ID), map[string]any{
		"name": "Long Article",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[structcontent.ContentType](t, resp)
	assert.Equal(t, "Long Article", updated.Name)

	resp = doJSON(t, http.MethodGet, srv.URL+"/content-types", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	types := decodeBody[[]structcontent.ContentType](t, resp)
	assert.Len(t, types, 1)

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/content-types/%s", srv.URL, ct.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestDeleteContentTypeEndpointInUse(t *testing.T) {
	srv, _ := setupServer(t)
	ct := createTypeHTTP(t, srv)
	createItemHTTP(t, srv, ct.ID, "blocker")

	resp := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/content-types/%s", srv.URL, ct.ID), nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	envelope := decodeBody[map[string]any](t, resp)
	assert.Equal(t, structcontent.CodeContentTypeInUse, envelope["code"])
}

func TestMalformedBody(t *testing.T) {
	srv, _ := setupServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/content-items", bytes.NewBufferString(`{"broken`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	envelope := decodeBody[map[string]any](t, resp)
	assert.Equal(t, structcontent.CodeInvalidRequest, envelope["code"])
}
