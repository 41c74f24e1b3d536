package memory_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structcms/structured-content/pkg/structcontent"
	"github.com/structcms/structured-content/pkg/structcontent/repo/memory"
)

func newContentType(slug string) *structcontent.ContentType {
	now := time.Now().UTC()
	return &structcontent.ContentType{
		ID:        uuid.New(),
		Name:      slug,
		Slug:      slug,
		Schema:    json.RawMessage(`{"type": "object"}`),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newItem(typeID uuid.UUID) *structcontent.ContentItem {
	now := time.Now().UTC()
	return &structcontent.ContentItem{
		ID:            uuid.New(),
		ContentTypeID: typeID,
		Data:          json.RawMessage(`{"title": "hello"}`),
		Status:        structcontent.ItemStatusDraft,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestContentTypeCRUD(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	ct := newContentType("article")

	require.NoError(t, repo.CreateContentType(ctx, ct))

	got, err := repo.GetContentType(ctx, ct.ID)
	require.NoError(t, err)
	assert.Equal(t, ct.Slug, got.Slug)

	bySlug, err := repo.GetContentTypeBySlug(ctx, "article")
	require.NoError(t, err)
	assert.Equal(t, ct.ID, bySlug.ID)

	_, err = repo.GetContentTypeBySlug(ctx, "missing")
	assert.Equal(t, structcontent.CodeContentTypeNotFound, structcontent.CodeOf(err))

	ct.Name = "Renamed"
	require.NoError(t, repo.UpdateContentType(ctx, ct))
	got, err = repo.GetContentType(ctx, ct.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	require.NoError(t, repo.DeleteContentType(ctx, ct.ID))
	_, err = repo.GetContentType(ctx, ct.ID)
	assert.Equal(t, structcontent.CodeContentTypeNotFound, structcontent.CodeOf(err))
}

func TestGetReturnsCopy(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	ct := newContentType("article")
	require.NoError(t, repo.CreateContentType(ctx, ct))

	got, err := repo.GetContentType(ctx, ct.ID)
	require.NoError(t, err)
	got.Name = "mutated by caller"

	reread, err := repo.GetContentType(ctx, ct.ID)
	require.NoError(t, err)
	assert.Equal(t, "article", reread.Name)
}

func TestDeleteItemCascadesVersions(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	ct := newContentType("article")
	require.NoError(t, repo.CreateContentType(ctx, ct))
	item := newItem(ct.ID)
	require.NoError(t, repo.CreateItem(ctx, item))

	require.NoError(t, repo.AppendItemVersion(ctx, &structcontent.ContentItemVersion{
		ID:            uuid.New(),
		ContentItemID: item.ID,
		Version:       1,
		Data:          item.Data,
		Status:        item.Status,
		CreatedAt:     time.Now().UTC(),
	}))

	require.NoError(t, repo.DeleteItem(ctx, item.ID))

	versions, err := repo.ListItemVersions(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestListItemVersionsNewestFirst(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	itemID := uuid.New()

	for _, v := range []int{2, 1, 3} {
		require.NoError(t, repo.AppendItemVersion(ctx, &structcontent.ContentItemVersion{
			ID:            uuid.New(),
			ContentItemID: itemID,
			Version:       v,
			Data:          json.RawMessage(`{}`),
			Status:        structcontent.ItemStatusDraft,
			CreatedAt:     time.Now().UTC(),
		}))
	}

	versions, err := repo.ListItemVersions(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, 3, versions[0].Version)
	assert.Equal(t, 2, versions[1].Version)
	assert.Equal(t, 1, versions[2].Version)
}

func TestGetItemVersionNotFound(t *testing.T) {
	repo := memory.New()

	_, err := repo.GetItemVersion(context.Background(), uuid.New(), 3)
	assert.Equal(t, structcontent.CodeTargetVersionNotFound, structcontent.CodeOf(err))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	ct := newContentType("article")
	require.NoError(t, repo.CreateContentType(ctx, ct))

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(tx structcontent.Repository) error {
		if err := tx.CreateItem(ctx, newItem(ct.ID)); err != nil {
			return err
		}
		if err := tx.DeleteContentType(ctx, ct.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Everything inside the failed transaction is undone.
	_, err = repo.GetContentType(ctx, ct.ID)
	assert.NoError(t, err)
	items, err := repo.ListItems(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	ct := newContentType("article")
	require.NoError(t, repo.CreateContentType(ctx, ct))
	item := newItem(ct.ID)

	err := repo.WithTx(ctx, func(tx structcontent.Repository) error {
		return tx.CreateItem(ctx, item)
	})
	require.NoError(t, err)

	got, err := repo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
}
