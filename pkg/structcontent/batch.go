package structcontent

import "context"

// ExecuteBatch runs a non-empty list of create/update/delete mutations.
//
// Atomic mode executes every item inside one transaction; the first failure
// aborts and rolls back the whole batch and the caller receives a single
// BATCH_ATOMIC_FAILED error carrying the failing item's index, code and
// message as context. No partial writes are ever observable and a rolled
// back batch emits no audit entries.
//
// Partial mode (the default) executes every item in its own transaction.
// All items are always attempted; one item's failure does not affect its
// siblings, so callers retry failed indices only. The result array is
// ordered by input index.
//
// DryRun is orthogonal to both modes: every item is validated exactly as in
// a live run but nothing is persisted or audited, and results are shaped
// identically to a live run.
func (s *service) ExecuteBatch(ctx context.Context, req BatchRequest) ([]BatchItemResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyBatch()
	}
	if req.Atomic {
		return s.executeAtomic(ctx, req)
	}
	return s.executePartial(ctx, req), nil
}

func (s *service) executeAtomic(ctx context.Context, req BatchRequest) ([]BatchItemResult, error) {
	results := make([]BatchItemResult, 0, len(req.Items))
	var entries []*AuditEntry

	run := func(repo Repository) error {
		for i, bi := range req.Items {
			item, entry, err := s.applyBatchItem(ctx, repo, bi, req.DryRun)
			if err != nil {
				return ErrBatchAtomicFailed(i, asStructured(err))
			}
			results = append(results, okResult(i, item))
			if entry != nil {
				entries = append(entries, entry)
			}
		}
		return nil
	}

	if req.DryRun {
		// Nothing persists, so no transaction is needed; failure semantics
		// are still first-failure-aborts.
		if err := run(s.repo); err != nil {
			return nil, err
		}
		return results, nil
	}

	if err := s.repo.WithTx(ctx, run); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		s.emit(ctx, entry)
	}
	return results, nil
}

func (s *service) executePartial(ctx context.Context, req BatchRequest) []BatchItemResult {
	results := make([]BatchItemResult, len(req.Items))

	for i, bi := range req.Items {
		var (
			item  *ContentItem
			entry *AuditEntry
			err   error
		)
		if req.DryRun {
			item, entry, err = s.applyBatchItem(ctx, s.repo, bi, true)
		} else {
			err = s.repo.WithTx(ctx, func(tx Repository) error {
				var inner error
				item, entry, inner = s.applyBatchItem(ctx, tx, bi, false)
				return inner
			})
		}

		if err != nil {
			se := asStructured(err)
			results[i] = BatchItemResult{Index: i, OK: false, Code: se.Code, Error: se.Message}
			continue
		}
		results[i] = okResult(i, item)
		if !req.DryRun {
			s.emit(ctx, entry)
		}
	}
	return results
}

// applyBatchItem translates one batch item into the matching single-item
// mutation against the given repository handle.
func (s *service) applyBatchItem(ctx context.Context, repo Repository, bi BatchItem, dryRun bool) (*ContentItem, *AuditEntry, error) {
	switch bi.Op {
	case BatchOpCreate:
		req := CreateItemRequest{Data: bi.Data, DryRun: dryRun}
		if bi.ContentTypeID != nil {
			req.ContentTypeID = *bi.ContentTypeID
		}
		if bi.Status != nil {
			req.Status = *bi.Status
		}
		return s.applyCreateItem(ctx, repo, req)

	case BatchOpUpdate:
		req := UpdateItemRequest{
			ContentTypeID: bi.ContentTypeID,
			Data:          bi.Data,
			Status:        bi.Status,
			DryRun:        dryRun,
		}
		if bi.ID != nil {
			req.ID = *bi.ID
		}
		if req.IsEmpty() {
			return nil, nil, ErrEmptyUpdateBody()
		}
		return s.applyUpdateItem(ctx, repo, req)

	case BatchOpDelete:
		req := DeleteItemRequest{DryRun: dryRun}
		if bi.ID != nil {
			req.ID = *bi.ID
		}
		return s.applyDeleteItem(ctx, repo, req)
	}
	return nil, nil, ErrInvalidBatchOp(bi.Op)
}

func okResult(index int, item *ContentItem) BatchItemResult {
	id := item.ID
	version := item.Version
	return BatchItemResult{Index: index, OK: true, ID: &id, Version: &version}
}
