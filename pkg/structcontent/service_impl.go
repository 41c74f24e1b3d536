package structcontent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repo      Repository
	validator SchemaValidator
	audit     AuditSink
	logger    *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repo = repo
	}
}

// WithValidator sets the schema validator for the service
func WithValidator(v SchemaValidator) Option {
	return func(s *service) {
		s.validator = v
	}
}

// WithAuditSink sets the audit sink for the service
func WithAuditSink(sink AuditSink) Option {
	return func(s *service) {
		s.audit = sink
	}
}

// WithLogger sets the logger used for post-commit side-effect failures
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		audit: NewNoopAuditSink(),
	}

	for _, option := range options {
		option(s)
	}

	if s.repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.validator == nil {
		return nil, fmt.Errorf("schema validator is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Content item mutations

func (s *service) CreateItem(ctx context.Context, req CreateItemRequest) (*ContentItem, error) {
	item, entry, err := s.applyCreateItem(ctx, s.repo, req)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, entry)
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, req UpdateItemRequest) (*ContentItem, error) {
	if req.IsEmpty() {
		return nil, ErrEmptyUpdateBody()
	}

	if req.DryRun {
		item, _, err := s.applyUpdateItem(ctx, s.repo, req)
		return item, err
	}

	var (
		item  *ContentItem
		entry *AuditEntry
	)
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		var err error
		item, entry, err = s.applyUpdateItem(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, entry)
	return item, nil
}

func (s *service) DeleteItem(ctx context.Context, req DeleteItemRequest) (*ContentItem, error) {
	if req.DryRun {
		item, _, err := s.applyDeleteItem(ctx, s.repo, req)
		return item, err
	}

	var (
		item  *ContentItem
		entry *AuditEntry
	)
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		var err error
		item, entry, err = s.applyDeleteItem(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, entry)
	return item, nil
}

func (s *service) RollbackItem(ctx context.Context, req RollbackItemRequest) (*ContentItem, error) {
	if req.DryRun {
		item, _, err := s.applyRollbackItem(ctx, s.repo, req)
		return item, err
	}

	var (
		item  *ContentItem
		entry *AuditEntry
	)
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		var err error
		item, entry, err = s.applyRollbackItem(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, entry)
	return item, nil
}

// Content item reads

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*ContentItem, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *service) ListItems(ctx context.Context, req ListItemsRequest) ([]*ContentItem, error) {
	return s.repo.ListItems(ctx, req.ContentTypeID)
}

func (s *service) ListItemVersions(ctx context.Context, itemID uuid.UUID) ([]*ContentItemVersion, error) {
	if _, err := s.repo.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.repo.ListItemVersions(ctx, itemID)
}

// apply* helpers hold the whole of each mutation's semantics. They run
// against the repository handle they are given, so the same code path
// serves single mutations (own transaction), atomic batches (the shared
// batch transaction) and partial batches (a fresh transaction per item).
// They persist nothing in dry-run mode and return the audit entry for the
// caller to emit after commit.

func (s *service) applyCreateItem(ctx context.Context, repo Repository, req CreateItemRequest) (*ContentItem, *AuditEntry, error) {
	status := req.Status
	if status == "" {
		status = ItemStatusDraft
	}
	if !ValidStatus(status) {
		return nil, nil, ErrInvalidStatus(status)
	}

	ct, err := repo.GetContentType(ctx, req.ContentTypeID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.validator.ValidateData(ct.Schema, req.Data); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	item := &ContentItem{
		ID:            uuid.Nil,
		ContentTypeID: ct.ID,
		Data:          req.Data,
		Status:        status,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.DryRun {
		return item, nil, nil
	}

	item.ID = uuid.New()
	if err := repo.CreateItem(ctx, item); err != nil {
		return nil, nil, asStructured(err)
	}

	entry := newAuditEntry(ActionItemCreate, EntityContentItem, item.ID, map[string]any{
		"contentTypeId": ct.ID.String(),
		"version":       item.Version,
		"status":        string(item.Status),
	})
	return item, entry, nil
}

func (s *service) applyUpdateItem(ctx context.Context, repo Repository, req UpdateItemRequest) (*ContentItem, *AuditEntry, error) {
	// The read happens on the handle we were given. In the live path that
	// handle is the open transaction, which closes the lost-update race:
	// two racing updates cannot both observe version V.
	item, err := repo.GetItem(ctx, req.ID)
	if err != nil {
		return nil, nil, err
	}

	targetTypeID := item.ContentTypeID
	if req.ContentTypeID != nil {
		targetTypeID = *req.ContentTypeID
	}
	ct, err := repo.GetContentType(ctx, targetTypeID)
	if err != nil {
		return nil, nil, err
	}

	mergedData := item.Data
	if req.Data != nil {
		mergedData = req.Data
	}
	mergedStatus := item.Status
	if req.Status != nil {
		mergedStatus = *req.Status
	}
	if !ValidStatus(mergedStatus) {
		return nil, nil, ErrInvalidStatus(mergedStatus)
	}

	// The merged payload is validated against the target type's current
	// schema, which may have changed since the item was written.
	if err := s.validator.ValidateData(ct.Schema, mergedData); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	updated := &ContentItem{
		ID:            item.ID,
		ContentTypeID: targetTypeID,
		Data:          mergedData,
		Status:        mergedStatus,
		Version:       item.Version + 1,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     now,
	}
	if req.DryRun {
		return updated, nil, nil
	}

	if err := s.snapshotAndWrite(ctx, repo, item, updated, now); err != nil {
		return nil, nil, err
	}

	entry := newAuditEntry(ActionItemUpdate, EntityContentItem, item.ID, map[string]any{
		"fromVersion": item.Version,
		"toVersion":   updated.Version,
		"status":      string(updated.Status),
	})
	return updated, entry, nil
}

func (s *service) applyDeleteItem(ctx context.Context, repo Repository, req DeleteItemRequest) (*ContentItem, *AuditEntry, error) {
	item, err := repo.GetItem(ctx, req.ID)
	if err != nil {
		return nil, nil, err
	}
	if req.DryRun {
		return item, nil, nil
	}

	// Version rows cascade with the item.
	if err := repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, nil, asStructured(err)
	}

	entry := newAuditEntry(ActionItemDelete, EntityContentItem, item.ID, map[string]any{
		"contentTypeId": item.ContentTypeID.String(),
		"version":       item.Version,
	})
	return item, entry, nil
}

func (s *service) applyRollbackItem(ctx context.Context, repo Repository, req RollbackItemRequest) (*ContentItem, *AuditEntry, error) {
	item, err := repo.GetItem(ctx, req.ID)
	if err != nil {
		return nil, nil, err
	}

	target, err := repo.GetItemVersion(ctx, item.ID, req.Version)
	if err != nil {
		return nil, nil, err
	}

	ct, err := repo.GetContentType(ctx, item.ContentTypeID)
	if err != nil {
		return nil, nil, err
	}

	// The historical payload must satisfy the type's current schema. A
	// schema that tightened since the snapshot was taken can make an older
	// version permanently un-rollback-able.
	if err := s.validator.ValidateData(ct.Schema, target.Data); err != nil {
		if se, ok := AsError(err); ok {
			return nil, nil, se.WithContext("rollbackVersion", req.Version)
		}
		return nil, nil, err
	}

	now := time.Now().UTC()
	rolled := &ContentItem{
		ID:            item.ID,
		ContentTypeID: item.ContentTypeID,
		Data:          target.Data,
		Status:        target.Status,
		Version:       item.Version + 1,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     now,
	}
	if req.DryRun {
		return rolled, nil, nil
	}

	if err := s.snapshotAndWrite(ctx, repo, item, rolled, now); err != nil {
		return nil, nil, err
	}

	entry := newAuditEntry(ActionItemRollback, EntityContentItem, item.ID, map[string]any{
		"fromVersion":     item.Version,
		"toVersion":       rolled.Version,
		"rollbackVersion": req.Version,
	})
	return rolled, entry, nil
}

// snapshotAndWrite appends the pre-mutation state of current to the version
// ledger, tagged with its version number, then writes updated. Caller must
// hold the transaction.
func (s *service) snapshotAndWrite(ctx context.Context, repo Repository, current, updated *ContentItem, now time.Time) error {
	snapshot := &ContentItemVersion{
		ID:            uuid.New(),
		ContentItemID: current.ID,
		Version:       current.Version,
		Data:          current.Data,
		Status:        current.Status,
		CreatedAt:     now,
	}
	if err := repo.AppendItemVersion(ctx, snapshot); err != nil {
		return asStructured(err)
	}
	if err := repo.UpdateItem(ctx, updated); err != nil {
		return asStructured(err)
	}
	return nil
}

// emit records an audit entry after a commit. Failures are logged and never
// surfaced into the caller's success path.
func (s *service) emit(ctx context.Context, entry *AuditEntry) {
	if entry == nil {
		return
	}
	if err := s.audit.Record(ctx, *entry); err != nil {
		s.logger.Error("audit record failed",
			"action", entry.Action,
			"entityId", entry.EntityID,
			"error", err)
	}
}

func newAuditEntry(action, entityType string, entityID uuid.UUID, details map[string]any) *AuditEntry {
	return &AuditEntry{
		ID:         uuid.New(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
}
