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

func TestExecuteBatchEmpty(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.ExecuteBatch(context.Background(), structcontent.BatchRequest{})
	assert.Equal(t, structcontent.CodeEmptyBatch, structcontent.CodeOf(err))
}

func TestExecuteBatchPartial(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	ct := createArticleType(t, svc)

	results, err := svc.ExecuteBatch(ctx, structcontent.BatchRequest{
		Items: []structcontent.BatchItem{
			{Op: structcontent.BatchOpCreate, ContentTypeID: &ct.ID, Data: json.RawMessage(`{"title": "first"}`)},
			{Op: structcontent.BatchOpCreate, ContentTypeID: &ct.ID, Data: json.RawMessage(`{"body": "no title"}`)},
			{Op: structcontent.BatchOpCreate, ContentTypeID: &ct.ID, Data: json.RawMessage(`{"title": "third"}`)},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// One item's failure never touches its siblings.
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Equal(t, structcontent.CodeContentSchemaInvalid, results[1].Code)
	assert.NotEmpty(t, results[1].Error)
	assert.True(t, results[2].OK)

	items, err := svc.ListItems(ctx, structcontent.ListItemsRequest{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestExecuteBatchPartialMixedOps(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	ct := createArticleType(t, svc)
	existing := createArticle(t, svc, ct.ID, "existing")
	doomed := createArticle(t, svc, ct.ID, "doomed")

	results, err := svc.ExecuteBatch(ctx, structcontent.BatchRequest{
		Items: []structcontent.BatchItem{
			{Op: structcontent.BatchOpUpdate, ID: &existing.ID, Data: json.RawMessage(`{"title": "renamed"}`)},
			{Op: structcontent.BatchOpDelete, ID: &doomed.ID},
			{Op: structcontent.BatchOpCreate, ContentTypeID: &ct.ID, Data: json.RawMessage(`{"title": "fresh"}`)},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.OK)
	}
	assert.Equal(t, 2, *results[0].Version)

	updated, err := svc.GetItem(ctx, existing.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "renamed"}`, string(updated.Data))

	_, err = svc.GetItem(ctx, doomed.ID)
	assert.Equal(t, structcontent.CodeContentItemNotFound, structcontent.CodeOf(err))
}

func TestExecuteBatchPartialBadOp(t *testing.T) {
	svc, _ := setupTestService(t)
	ct := createArticleType(t, svc)

	results, err := svc.ExecuteBatch(context.Background(), structcontent.BatchRequest{
		Items: []structcontent.BatchItem{
			{Op: "upsert", ContentTypeID: &ct.ID, Data: json.RawMessage(`{"title": "x"}`)},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Equal(t, structcontent.CodeInvalidBatchOp, results[0].Code)
}

func TestExecuteBatchAtomicSuccess(t *testing.T) {
	svc, sink := setupTestService(t)
	ctx := context.Background()
	ct := createArticleType(t, svc)
	existing := createArticle(t, svc, ct.ID, "existing")
	auditBefore := len(sink.Entries())

	results, err := svc.ExecuteBatch(ctx, structcontent.BatchRequest{
		Atomic: true,
		Items: []structcontent.BatchItem{
			{Op: structcontent.BatchOpCreate, ContentTypeID: &ct.ID, Data: json.RawMessage(`{"title": "first"}`)},
			{Op: structcontent.BatchOpUpdate, ID: &existing.ID, Data: json.RawMessage(`{"title": "renamed"}`)},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].OK)
	assert.True(t, results[1].OK)

	// Audit entries land once, after the whole batch commits.
	assert.Len(t, sink.Entries(), auditBefore+2)
}

func TestExecuteBatchAtomicAllOrNothing(t *testing.T) {
	svc, sink := setupTestService(t)
	ctx := context.Background()
	ct := createArticleType(t, svc)
	auditBefore := len(sink.Entries())

	_, err := svc.ExecuteBatch(ctx, structcontent.BatchRequest{
		Atomic: true,
		Items: []structcontent.BatchItem{
			{Op: structcontent.BatchOpCreate, ContentTypeID: &ct.ID, Data: json.RawMessage(`{"title": "first"}`)},
			{Op: structcontent.BatchOpCreate, ContentTypeID: &ct.ID, Data: json.RawMessage(`{"body": "no title"}`)},
			{Op: structcontent.BatchOpCreate, ContentTypeID: &ct.ID, Data: json.RawMessage(`{"title": "third"}`)},
		},
	})
	require.Error(t, err)

	se, ok := structcontent.AsError(err)
	require.True(t, ok)
	assert.Equal(t, structcontent.CodeBatchAtomicFailed, se.Code)
	assert.Equal(t, 1, se.Context["index"])
	assert.Equal(t, structcontent.CodeContentSchemaInvalid, se.Context["code"])

	// The whole batch rolled back; the first item is gone too.
	items, listErr := svc.ListItems(ctx, structcontent.ListItemsRequest{})
	require.NoError(t, listErr)
	assert.Empty(t, items)

	// A rolled back batch emits no audit noise.
	assert.Len(t, sink.Entries(), auditBefore)
}

func TestExecuteBatchAtomicRollsBackPriorWrites(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	ct := createArticleType(t, svc)
	existing := createArticle(t, svc, ct.ID, "untouched")

	_, err := svc.ExecuteBatch(ctx, structcontent.BatchRequest{
		Atomic: true,
		Items: []structcontent.BatchItem{
			{Op: structcontent.BatchOpUpdate, ID: &existing.ID, Data: json.RawMessage(`{"title": "mutated"}`)},
			{Op: structcontent.BatchOpDelete, ID: ptrUUID(uuid.New())},
		},
	})
	require.Error(t, err)
	assert.Equal(t, structcontent.CodeBatchAtomicFailed, structcontent.CodeOf(err))

	// The successful first item was rolled back with the rest.
	stored, err := svc.GetItem(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.JSONEq(t, `{"title": "untouched"}`, string(stored.Data))

	versions, err := svc.ListItemVersions(ctx, existing.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestExecuteBatchDryRun(t *testing.T) {
	svc, sink := setupTestService(t)
	ctx := context.Background()
	ct := createArticleType(t, svc)
	existing := createArticle(t, svc, ct.ID, "existing")
	auditBefore := len(sink.Entries())

	results, err := svc.ExecuteBatch(ctx, structcontent.BatchRequest{
		DryRun: true,
		Items: []structcontent.BatchItem{
			{Op: structcontent.BatchOpCreate, ContentTypeID: &ct.ID, Data: json.RawMessage(`{"title": "preview"}`)},
			{Op: structcontent.BatchOpUpdate, ID: &existing.ID, Data: json.RawMessage(`{"title": "previewed update"}`)},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Results are shaped like a live run; the created preview has no
	// identity yet.
	assert.True(t, results[0].OK)
	assert.Equal(t, uuid.Nil, *results[0].ID)
	assert.Equal(t, 1, *results[0].Version)
	assert.True(t, results[1].OK)
	assert.Equal(t, 2, *results[1].Version)

	// Nothing was persisted or audited.
	items, err := svc.ListItems(ctx, structcontent.ListItemsRequest{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	stored, err := svc.GetItem(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.Len(t, sink.Entries(), auditBefore)
}

func TestExecuteBatchAtomicDryRunFailure(t *testing.T) {
	svc, _ := setupTestService(t)
	ct := createArticleType(t, svc)

	// Dry-run failure semantics match the live run: first failure aborts.
	_, err := svc.ExecuteBatch(context.Background(), structcontent.BatchRequest{
		Atomic: true,
		DryRun: true,
		Items: []structcontent.BatchItem{
			{Op: structcontent.BatchOpCreate, ContentTypeID: &ct.ID, Data: json.RawMessage(`{"title": "ok"}`)},
			{Op: structcontent.BatchOpCreate, ContentTypeID: &ct.ID, Data: json.RawMessage(`{"body": "bad"}`)},
		},
	})
	require.Error(t, err)
	se, ok := structcontent.AsError(err)
	require.True(t, ok)
	assert.Equal(t, structcontent.CodeBatchAtomicFailed, se.Code)
	assert.Equal(t, 1, se.Context["index"])
}

func TestExecuteBatchUpdateWithoutFields(t *testing.T) {
	svc, _ := setupTestService(t)
	ct := createArticleType(t, svc)
	item := createArticle(t, svc, ct.ID, "post")

	results, err := svc.ExecuteBatch(context.Background(), structcontent.BatchRequest{
		Items: []structcontent.BatchItem{
			{Op: structcontent.BatchOpUpdate, ID: &item.ID},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Equal(t, structcontent.CodeEmptyUpdateBody, results[0].Code)
}

func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }
