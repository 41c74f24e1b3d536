// Package memory implements structcontent.Repository with in-memory maps.
// Used for tests and for running the server without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/structcms/structured-content/pkg/structcontent"
)

// Repository implements structcontent.Repository using in-memory storage.
// WithTx serializes transactions under one lock and rolls back by restoring
// a snapshot of the map state, which gives the same all-or-nothing
// semantics the postgres repository gets from a real transaction.
type Repository struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	types    map[uuid.UUID]*structcontent.ContentType
	items    map[uuid.UUID]*structcontent.ContentItem
	versions map[uuid.UUID][]*structcontent.ContentItemVersion // item id -> snapshots, append order
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		types:    make(map[uuid.UUID]*structcontent.ContentType),
		items:    make(map[uuid.UUID]*structcontent.ContentItem),
		versions: make(map[uuid.UUID][]*structcontent.ContentItemVersion),
	}
}

// Content type operations

func (r *Repository) CreateContentType(ctx context.Context, ct *structcontent.ContentType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctCopy := *ct
	r.types[ct.ID] = &ctCopy
	return nil
}

func (r *Repository) GetContentType(ctx context.Context, id uuid.UUID) (*structcontent.ContentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ct, exists := r.types[id]
	if !exists {
		return nil, structcontent.ErrContentTypeNotFound(id)
	}
	ctCopy := *ct
	return &ctCopy, nil
}

func (r *Repository) GetContentTypeBySlug(ctx context.Context, slug string) (*structcontent.ContentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ct := range r.types {
		if ct.Slug == slug {
			ctCopy := *ct
			return &ctCopy, nil
		}
	}
	return nil, structcontent.NewError(structcontent.CodeContentTypeNotFound,
		"content type with slug "+slug+" does not exist",
		"list content types to discover valid slugs, then retry",
	).WithContext("slug", slug)
}

func (r *Repository) UpdateContentType(ctx context.Context, ct *structcontent.ContentType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[ct.ID]; !exists {
		return structcontent.ErrContentTypeNotFound(ct.ID)
	}
	ctCopy := *ct
	r.types[ct.ID] = &ctCopy
	return nil
}

func (r *Repository) DeleteContentType(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[id]; !exists {
		return structcontent.ErrContentTypeNotFound(id)
	}
	delete(r.types, id)
	return nil
}

func (r *Repository) ListContentTypes(ctx context.Context) ([]*structcontent.ContentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*structcontent.ContentType, 0, len(r.types))
	for _, ct := range r.types {
		ctCopy := *ct
		out = append(out, &ctCopy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *Repository) CountItemsByType(ctx context.Context, contentTypeID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, item := range r.items {
		if item.ContentTypeID == contentTypeID {
			count++
		}
	}
	return count, nil
}

// Content item operations

func (r *Repository) CreateItem(ctx context.Context, item *structcontent.ContentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	itemCopy := *item
	r.items[item.ID] = &itemCopy
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*structcontent.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[id]
	if !exists {
		return nil, structcontent.ErrContentItemNotFound(id)
	}
	itemCopy := *item
	return &itemCopy, nil
}

func (r *Repository) UpdateItem(ctx context.Context, item *structcontent.ContentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; !exists {
		return structcontent.ErrContentItemNotFound(item.ID)
	}
	itemCopy := *item
	r.items[item.ID] = &itemCopy
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[id]; !exists {
		return structcontent.ErrContentItemNotFound(id)
	}
	delete(r.items, id)
	// Cascade: version snapshots go with the item.
	delete(r.versions, id)
	return nil
}

func (r *Repository) ListItems(ctx context.Context, contentTypeID *uuid.UUID) ([]*structcontent.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*structcontent.ContentItem, 0, len(r.items))
	for _, item := range r.items {
		if contentTypeID != nil && item.ContentTypeID != *contentTypeID {
			continue
		}
		itemCopy := *item
		out = append(out, &itemCopy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Version ledger operations

func (r *Repository) AppendItemVersion(ctx context.Context, v *structcontent.ContentItemVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	vCopy := *v
	r.versions[v.ContentItemID] = append(r.versions[v.ContentItemID], &vCopy)
	return nil
}

func (r *Repository) GetItemVersion(ctx context.Context, itemID uuid.UUID, version int) (*structcontent.ContentItemVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.versions[itemID] {
		if v.Version == version {
			vCopy := *v
			return &vCopy, nil
		}
	}
	return nil, structcontent.ErrTargetVersionNotFound(itemID, version)
}

func (r *Repository) ListItemVersions(ctx context.Context, itemID uuid.UUID) ([]*structcontent.ContentItemVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshots := r.versions[itemID]
	out := make([]*structcontent.ContentItemVersion, 0, len(snapshots))
	for _, v := range snapshots {
		vCopy := *v
		out = append(out, &vCopy)
	}
	// Most recent first.
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

// WithTx executes fn with rollback-on-error semantics. Transactions are
// serialized; tests and the in-process server do not need concurrent
// writers.
func (r *Repository) WithTx(ctx context.Context, fn func(structcontent.Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	snap := r.snapshot()
	if err := fn(r); err != nil {
		r.restore(snap)
		return err
	}
	return nil
}

type state struct {
	types    map[uuid.UUID]*structcontent.ContentType
	items    map[uuid.UUID]*structcontent.ContentItem
	versions map[uuid.UUID][]*structcontent.ContentItemVersion
}

func (r *Repository) snapshot() state {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := state{
		types:    make(map[uuid.UUID]*structcontent.ContentType, len(r.types)),
		items:    make(map[uuid.UUID]*structcontent.ContentItem, len(r.items)),
		versions: make(map[uuid.UUID][]*structcontent.ContentItemVersion, len(r.versions)),
	}
	for id, ct := range r.types {
		ctCopy := *ct
		s.types[id] = &ctCopy
	}
	for id, item := range r.items {
		itemCopy := *item
		s.items[id] = &itemCopy
	}
	for id, vs := range r.versions {
		list := make([]*structcontent.ContentItemVersion, len(vs))
		for i, v := range vs {
			vCopy := *v
			list[i] = &vCopy
		}
		s.versions[id] = list
	}
	return s
}

func (r *Repository) restore(s state) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.types = s.types
	r.items = s.items
	r.versions = s.versions
}
