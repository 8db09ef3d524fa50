package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"landrec/internal/registration/models"
	"landrec/internal/registration/tract"
	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
	audit "landrec/pkg/platform/audit"
	"landrec/pkg/platform/sentinel"
	"landrec/pkg/requestcontext"
)

// CreateLandRecord opens the land record of a transaction. The transaction
// must be in a registrable status and may own one record at most.
func (s *Service) CreateLandRecord(ctx context.Context, cmd models.CreateLandRecordCommand) (*models.LandRecordState, error) {
	if cmd.TransactionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "transaction_id is required")
	}
	if s.transactions == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "transaction reader is not configured")
	}
	info, err := s.transactions.GetTransactionInfo(ctx, cmd.TransactionID)
	if err != nil {
		return nil, notFound(err, "transaction")
	}
	if !info.Registrable {
		return nil, dErrors.New(dErrors.CodeValidation, "transaction status does not allow registration").
			WithDetail("transaction", info.UID).
			WithDetail("status", info.Status)
	}

	now := requestcontext.Now(ctx)
	presentation := now
	if cmd.PresentationTime != nil {
		presentation = *cmd.PresentationTime
	}
	lr, err := models.NewLandRecord(id.LandRecordID(uuid.New()), info.ID, info.UID, cmd.Instrument, presentation, now)
	if err != nil {
		return nil, err
	}

	var state *models.LandRecordState
	err = s.tx.RunInTx(withLockKey(ctx, cmd.TransactionID.String()), func(ctx context.Context, store Store) error {
		if existing, err := store.FindLandRecordByTransaction(ctx, cmd.TransactionID); err == nil {
			return dErrors.New(dErrors.CodeConflict, "transaction already has a land record").
				WithDetail("land_record", existing.UID)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return internal(err, "failed to load land record")
		}

		if err := store.CreateLandRecord(ctx, lr); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "transaction already has a land record")
			}
			return internal(err, "failed to create land record")
		}
		if err := s.emit(ctx, audit.Event{
			Action:        string(audit.EventLandRecordCreated),
			AggregateType: "land_record",
			AggregateID:   lr.ID.String(),
			Subject:       lr.UID,
			Attributes: map[string]string{
				"transaction_uid":   info.UID,
				"instrument_kind":   cmd.Instrument.Kind,
				"instrument_number": cmd.Instrument.Number,
			},
		}); err != nil {
			return err
		}
		state = &models.LandRecordState{LandRecord: lr}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "land record created",
		"land_record_id", lr.ID.String(),
		"transaction_id", info.ID.String(),
	)
	return state, nil
}

// GetLandRecord returns the record with its active acts and entries.
func (s *Service) GetLandRecord(ctx context.Context, landRecordID id.LandRecordID) (*models.LandRecordState, error) {
	lr, err := s.store.FindLandRecord(ctx, landRecordID)
	if err != nil {
		return nil, notFound(err, "land record")
	}
	return loadState(ctx, s.store, lr)
}

// GetLandRecordByTransaction returns the record owned by a transaction.
func (s *Service) GetLandRecordByTransaction(ctx context.Context, transactionID id.TransactionID) (*models.LandRecord, error) {
	lr, err := s.store.FindLandRecordByTransaction(ctx, transactionID)
	if err != nil {
		return nil, notFound(err, "land record")
	}
	return lr, nil
}

// CreateRecordingBook registers a legacy book. Office and book number are unique.
func (s *Service) CreateRecordingBook(ctx context.Context, cmd models.CreateBookCommand) (*models.RecordingBook, error) {
	book, err := models.NewRecordingBook(id.BookID(uuid.New()), cmd.RecorderOffice, cmd.BookNumber, cmd.Policy,
		cmd.Perpetual, cmd.StartIndex, cmd.ControlFrom, cmd.ControlTo, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	err = s.tx.RunInTx(withLockKey(ctx, book.ID.String()), func(ctx context.Context, store Store) error {
		if err := store.CreateBook(ctx, book); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "recording book already exists").
					WithDetail("recorder_office", book.RecorderOffice).
					WithDetail("book_number", book.BookNumber)
			}
			return internal(err, "failed to create recording book")
		}
		return s.emit(ctx, audit.Event{
			Action:        string(audit.EventRecordingBookCreated),
			AggregateType: "book",
			AggregateID:   book.ID.String(),
			Subject:       book.UID,
			Attributes: map[string]string{
				"recorder_office": book.RecorderOffice,
				"book_number":     book.BookNumber,
				"policy":          string(book.Policy),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (s *Service) GetRecordingBook(ctx context.Context, bookID id.BookID) (*models.RecordingBook, error) {
	book, err := s.store.FindBook(ctx, bookID)
	if err != nil {
		return nil, notFound(err, "recording book")
	}
	return book, nil
}

func (s *Service) GetResource(ctx context.Context, resourceID id.ResourceID) (*models.Resource, error) {
	r, err := s.store.FindResource(ctx, resourceID)
	if err != nil {
		return nil, notFound(err, "resource")
	}
	return r, nil
}

// MergeResource folds one real estate into another. The merged resource keeps
// its tract and stops accepting acts.
func (s *Service) MergeResource(ctx context.Context, resourceID, intoID id.ResourceID) (*models.Resource, error) {
	var merged *models.Resource
	err := s.tx.RunInTx(withLockKey(ctx, resourceID.String()), func(ctx context.Context, store Store) error {
		source, err := store.FindResource(ctx, resourceID)
		if err != nil {
			return notFound(err, "resource")
		}
		target, err := store.FindResource(ctx, intoID)
		if err != nil {
			return notFound(err, "target resource")
		}
		if err := source.CanMergeInto(target); err != nil {
			return err
		}
		source.ApplyMerge(target.ID, requestcontext.Now(ctx))
		if err := store.UpdateResource(ctx, source); err != nil {
			return internal(err, "failed to merge resource")
		}
		merged = source
		return s.emit(ctx, audit.Event{
			Action:        string(audit.EventResourceMerged),
			AggregateType: "resource",
			AggregateID:   source.ID.String(),
			Subject:       source.UID,
			Attributes:    map[string]string{"merged_into": target.UID},
		})
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// GetTractIndex returns the tract of a resource. With full set, acts where the
// resource is only the related subject are included.
func (s *Service) GetTractIndex(ctx context.Context, resourceID id.ResourceID, full bool) ([]tract.Entry, error) {
	if _, err := s.GetResource(ctx, resourceID); err != nil {
		return nil, err
	}
	ix := tract.New(s.store)
	var (
		entries []tract.Entry
		err     error
	)
	if full {
		entries, err = ix.GetFullTractIndex(ctx, resourceID)
	} else {
		entries, err = ix.GetRecordingActs(ctx, resourceID)
	}
	if err != nil {
		return nil, internal(err, "failed to build tract index")
	}
	return entries, nil
}

// GetTractIndexUntil returns the full tract up to breakAct.
func (s *Service) GetTractIndexUntil(ctx context.Context, resourceID id.ResourceID, breakAct id.RecordingActID, includeBreak bool) ([]tract.Entry, error) {
	if _, err := s.GetResource(ctx, resourceID); err != nil {
		return nil, err
	}
	act, err := s.store.FindRecordingAct(ctx, breakAct)
	if err != nil {
		return nil, notFound(err, "recording act")
	}
	if !act.InvolvesResource(resourceID) {
		return nil, dErrors.New(dErrors.CodeValidation, "recording act is not in the resource tract").
			WithDetail("recording_act", act.UID)
	}
	entries, err := tract.New(s.store).GetRecordingActsUntil(ctx, resourceID, breakAct, includeBreak)
	if err != nil {
		return nil, internal(err, "failed to build tract index")
	}
	return entries, nil
}
