package structcontent

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Content type operations. Items are never revalidated when a type's schema
// changes; every item mutation validates against the schema current at that
// moment.

func (s *service) CreateContentType(ctx context.Context, req CreateContentTypeRequest) (*ContentType, error) {
	if err := s.validator.ValidateSchema(req.Schema); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ct := &ContentType{
		ID:          uuid.New(),
		Name:        req.Name,
		Slug:        req.Slug,
		Schema:      req.Schema,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateContentType(ctx, ct); err != nil {
		return nil, asStructured(err)
	}

	s.emit(ctx, newAuditEntry(ActionTypeCreate, EntityContentType, ct.ID, map[string]any{
		"slug": ct.Slug,
	}))
	return ct, nil
}

func (s *service) UpdateContentType(ctx context.Context, req UpdateContentTypeRequest) (*ContentType, error) {
	ct, err := s.repo.GetContentType(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		ct.Name = *req.Name
	}
	if req.Slug != nil {
		ct.Slug = *req.Slug
	}
	if req.Description != nil {
		ct.Description = *req.Description
	}
	if req.Schema != nil {
		if err := s.validator.ValidateSchema(req.Schema); err != nil {
			return nil, err
		}
		ct.Schema = req.Schema
	}
	ct.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateContentType(ctx, ct); err != nil {
		return nil, asStructured(err)
	}

	s.emit(ctx, newAuditEntry(ActionTypeUpdate, EntityContentType, ct.ID, map[string]any{
		"slug": ct.Slug,
	}))
	return ct, nil
}

func (s *service) DeleteContentType(ctx context.Context, id uuid.UUID) (*ContentType, error) {
	ct, err := s.repo.GetContentType(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountItemsByType(ctx, id)
	if err != nil {
		return nil, asStructured(err)
	}
	if count > 0 {
		return nil, ErrContentTypeInUse(id, count)
	}

	if err := s.repo.DeleteContentType(ctx, id); err != nil {
		return nil, asStructured(err)
	}

	s.emit(ctx, newAuditEntry(ActionTypeDelete, EntityContentType, ct.ID, map[string]any{
		"slug": ct.Slug,
	}))
	return ct, nil
}

func (s *service) GetContentType(ctx context.Context, id uuid.UUID) (*ContentType, error) {
	return s.repo.GetContentType(ctx, id)
}

func (s *service) GetContentTypeBySlug(ctx context.Context, slug string) (*ContentType, error) {
	return s.repo.GetContentTypeBySlug(ctx, slug)
}

func (s *service) ListContentTypes(ctx context.Context) ([]*ContentType, error) {
	return s.repo.ListContentTypes(ctx)
}
