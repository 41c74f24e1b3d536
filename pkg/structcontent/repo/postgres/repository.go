// Package postgres implements structcontent.Repository using PostgreSQL
// via pgx. The same repository code runs against a connection pool or an
// open transaction through the DBTX interface; WithTx hands the engine an
// explicitly transactional handle.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/structcms/structured-content/pkg/structcontent"
)

// DBTX is an interface that allows us to use either a connection pool or a
// transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements structcontent.Repository using PostgreSQL
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool // nil when the handle is already transactional
}

// NewWithPool creates a new PostgreSQL repository with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// WithTx begins a transaction and runs fn against a repository bound to it.
// A non-nil error from fn rolls the transaction back and is returned
// unchanged. An already-transactional repository reuses its handle.
func (r *Repository) WithTx(ctx context.Context, fn func(structcontent.Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Repository{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// handlePostgresError maps low-level pgx failures onto operation-scoped
// errors without leaking SQL details to callers.
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: duplicate entry (%s)", operation, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: referenced record not found", operation)
		case "42P01": // undefined_table
			return fmt.Errorf("%s: table does not exist - database migration required", operation)
		}
		return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Content type operations

func (r *Repository) CreateContentType(ctx context.Context, ct *structcontent.ContentType) error {
	query := `
		INSERT INTO content_types (id, name, slug, schema, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		ct.ID, ct.Name, ct.Slug, ct.Schema, ct.Description, ct.CreatedAt, ct.UpdatedAt)
	if err != nil {
		return handlePostgresError("create content type", err)
	}
	return nil
}

func (r *Repository) GetContentType(ctx context.Context, id uuid.UUID) (*structcontent.ContentType, error) {
	query := `
		SELECT id, name, slug, schema, description, created_at, updated_at
		FROM content_types WHERE id = $1`

	var ct structcontent.ContentType
	err := r.db.QueryRow(ctx, query, id).Scan(
		&ct.ID, &ct.Name, &ct.Slug, &ct.Schema, &ct.Description, &ct.CreatedAt, &ct.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, structcontent.ErrContentTypeNotFound(id)
		}
		return nil, handlePostgresError("get content type", err)
	}
	return &ct, nil
}

func (r *Repository) GetContentTypeBySlug(ctx context.Context, slug string) (*structcontent.ContentType, error) {
	query := `
		SELECT id, name, slug, schema, description, created_at, updated_at
		FROM content_types WHERE slug = $1`

	var ct structcontent.ContentType
	err := r.db.QueryRow(ctx, query, slug).Scan(
		&ct.ID, &ct.Name, &ct.Slug, &ct.Schema, &ct.Description, &ct.CreatedAt, &ct.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, structcontent.NewError(structcontent.CodeContentTypeNotFound,
				"content type with slug "+slug+" does not exist",
				"list content types to discover valid slugs, then retry",
			).WithContext("slug", slug)
		}
		return nil, handlePostgresError("get content type by slug", err)
	}
	return &ct, nil
}

func (r *Repository) UpdateContentType(ctx context.Context, ct *structcontent.ContentType) error {
	query := `
		UPDATE content_types
		SET name = $2, slug = $3, schema = $4, description = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		ct.ID, ct.Name, ct.Slug, ct.Schema, ct.Description, ct.UpdatedAt)
	if err != nil {
		return handlePostgresError("update content type", err)
	}
	if tag.RowsAffected() == 0 {
		return structcontent.ErrContentTypeNotFound(ct.ID)
	}
	return nil
}

func (r *Repository) DeleteContentType(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM content_types WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete content type", err)
	}
	if tag.RowsAffected() == 0 {
		return structcontent.ErrContentTypeNotFound(id)
	}
	return nil
}

func (r *Repository) ListContentTypes(ctx context.Context) ([]*structcontent.ContentType, error) {
	query := `
		SELECT id, name, slug, schema, description, created_at, updated_at
		FROM content_types ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, handlePostgresError("list content types", err)
	}
	defer rows.Close()

	var out []*structcontent.ContentType
	for rows.Next() {
		var ct structcontent.ContentType
		if err := rows.Scan(&ct.ID, &ct.Name, &ct.Slug, &ct.Schema, &ct.Description,
			&ct.CreatedAt, &ct.UpdatedAt); err != nil {
			return nil, handlePostgresError("scan content type", err)
		}
		out = append(out, &ct)
	}
	return out, rows.Err()
}

func (r *Repository) CountItemsByType(ctx context.Context, contentTypeID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM content_items WHERE content_type_id = $1`,
		contentTypeID).Scan(&count)
	if err != nil {
		return 0, handlePostgresError("count items by type", err)
	}
	return count, nil
}

// Content item operations

func (r *Repository) CreateItem(ctx context.Context, item *structcontent.ContentItem) error {
	query := `
		INSERT INTO content_items (id, content_type_id, data, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		item.ID, item.ContentTypeID, item.Data, item.Status, item.Version,
		item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return handlePostgresError("create content item", err)
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*structcontent.ContentItem, error) {
	query := `
		SELECT id, content_type_id, data, status, version, created_at, updated_at
		FROM content_items WHERE id = $1`

	var item structcontent.ContentItem
	err := r.db.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.ContentTypeID, &item.Data, &item.Status, &item.Version,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, structcontent.ErrContentItemNotFound(id)
		}
		return nil, handlePostgresError("get content item", err)
	}
	return &item, nil
}

func (r *Repository) UpdateItem(ctx context.Context, item *structcontent.ContentItem) error {
	query := `
		UPDATE content_items
		SET content_type_id = $2, data = $3, status = $4, version = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		item.ID, item.ContentTypeID, item.Data, item.Status, item.Version, item.UpdatedAt)
	if err != nil {
		return handlePostgresError("update content item", err)
	}
	if tag.RowsAffected() == 0 {
		return structcontent.ErrContentItemNotFound(item.ID)
	}
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	// Version rows cascade via the content_item_versions foreign key.
	tag, err := r.db.Exec(ctx, `DELETE FROM content_items WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete content item", err)
	}
	if tag.RowsAffected() == 0 {
		return structcontent.ErrContentItemNotFound(id)
	}
	return nil
}

func (r *Repository) ListItems(ctx context.Context, contentTypeID *uuid.UUID) ([]*structcontent.ContentItem, error) {
	query := `
		SELECT id, content_type_id, data, status, version, created_at, updated_at
		FROM content_items`
	args := []interface{}{}
	if contentTypeID != nil {
		query += ` WHERE content_type_id = $1`
		args = append(args, *contentTypeID)
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, handlePostgresError("list content items", err)
	}
	defer rows.Close()

	var out []*structcontent.ContentItem
	for rows.Next() {
		var item structcontent.ContentItem
		if err := rows.Scan(&item.ID, &item.ContentTypeID, &item.Data, &item.Status,
			&item.Version, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, handlePostgresError("scan content item", err)
		}
		out = append(out, &item)
	}
	return out, rows.Err()
}

// Version ledger operations

func (r *Repository) AppendItemVersion(ctx context.Context, v *structcontent.ContentItemVersion) error {
	query := `
		INSERT INTO content_item_versions (id, content_item_id, version, data, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		v.ID, v.ContentItemID, v.Version, v.Data, v.Status, v.CreatedAt)
	if err != nil {
		return handlePostgresError("append item version", err)
	}
	return nil
}

func (r *Repository) GetItemVersion(ctx context.Context, itemID uuid.UUID, version int) (*structcontent.ContentItemVersion, error) {
	query := `
		SELECT id, content_item_id, version, data, status, created_at
		FROM content_item_versions WHERE content_item_id = $1 AND version = $2`

	var v structcontent.ContentItemVersion
	err := r.db.QueryRow(ctx, query, itemID, version).Scan(
		&v.ID, &v.ContentItemID, &v.Version, &v.Data, &v.Status, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, structcontent.ErrTargetVersionNotFound(itemID, version)
		}
		return nil, handlePostgresError("get item version", err)
	}
	return &v, nil
}

func (r *Repository) ListItemVersions(ctx context.Context, itemID uuid.UUID) ([]*structcontent.ContentItemVersion, error) {
	query := `
		SELECT id, content_item_id, version, data, status, created_at
		FROM content_item_versions WHERE content_item_id = $1
		ORDER BY version DESC`

	rows, err := r.db.Query(ctx, query, itemID)
	if err != nil {
		return nil, handlePostgresError("list item versions", err)
	}
	defer rows.Close()

	var out []*structcontent.ContentItemVersion
	for rows.Next() {
		var v structcontent.ContentItemVersion
		if err := rows.Scan(&v.ID, &v.ContentItemID, &v.Version, &v.Data, &v.Status,
			&v.CreatedAt); err != nil {
			return nil, handlePostgresError("scan item version", err)
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}
