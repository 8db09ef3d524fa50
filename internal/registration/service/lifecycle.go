package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"landrec/internal/registration/models"
	"landrec/internal/registration/seal"
	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
	audit "landrec/pkg/platform/audit"
	"landrec/pkg/requestcontext"
)

// Close validates and seals a land record. With electronic sealing the digest
// is signed with the office credentials; otherwise the operator-entered hash
// and signature in cmd are stored and the record becomes manually closed.
// Record, acts and security data are written in one transaction.
func (s *Service) Close(ctx context.Context, landRecordID id.LandRecordID, cmd models.CloseCommand) (*models.LandRecordState, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Close")
	defer span.End()
	start := time.Now()

	if !s.esignEnabled {
		if cmd.Manual == nil || cmd.Manual.Hash == "" || cmd.Manual.Signature == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "manual closing requires the hash and signature")
		}
	}

	now := requestcontext.Now(ctx)
	var state *models.LandRecordState
	err := s.tx.RunInTx(withLockKey(ctx, landRecordID.String()), func(ctx context.Context, store Store) error {
		lr, err := store.FindLandRecordForUpdate(ctx, landRecordID)
		if err != nil {
			return notFound(err, "land record")
		}
		if err := lr.CanClose(); err != nil {
			return err
		}
		current, err := loadState(ctx, store, lr)
		if err != nil {
			return err
		}
		if err := s.validateClosable(current); err != nil {
			return err
		}

		security, err := s.buildSecurity(ctx, lr, current.Acts, cmd, now)
		if err != nil {
			return err
		}
		lr.ApplyClose(security, now)

		for _, act := range current.Acts {
			act.ApplyRegistered(now)
			if err := store.UpdateRecordingAct(ctx, act); err != nil {
				return internal(err, "failed to register recording act")
			}
		}
		for _, entry := range current.BookEntries {
			if entry.AuthorizationTime == nil {
				entry.AuthorizationTime = lr.AuthorizationTime
				if err := store.UpdateBookEntry(ctx, entry); err != nil {
					return internal(err, "failed to authorize book entry")
				}
			}
		}
		if err := store.UpdateLandRecord(ctx, lr); err != nil {
			return internal(err, "failed to close land record")
		}

		action := audit.EventLandRecordClosed
		if security.Mode == models.SealModeManual {
			action = audit.EventLandRecordManuallyClosed
		}
		if err := s.emit(ctx, audit.Event{
			Action:        string(action),
			AggregateType: "land_record",
			AggregateID:   lr.ID.String(),
			Subject:       lr.UID,
			Attributes: map[string]string{
				"digest":          security.Digest,
				"mode":            string(security.Mode),
				"transaction_uid": lr.TransactionUID,
			},
		}); err != nil {
			return err
		}

		state, err = loadState(ctx, store, lr)
		return err
	})
	if err != nil {
		s.logger.WarnContext(ctx, "land record close rejected",
			"land_record_id", landRecordID.String(),
			"error", err,
		)
		return nil, err
	}

	mode := string(state.LandRecord.Security.Mode)
	span.SetAttributes(attribute.String("seal_mode", mode))
	s.metrics.ObserveClose(mode, time.Since(start))
	s.logger.InfoContext(ctx, "land record closed",
		"land_record_id", landRecordID.String(),
		"transaction_id", state.LandRecord.TransactionID.String(),
		"mode", mode,
	)
	return state, nil
}

// ValidateClosable runs the close checks without sealing.
func (s *Service) ValidateClosable(ctx context.Context, landRecordID id.LandRecordID) error {
	lr, err := s.store.FindLandRecord(ctx, landRecordID)
	if err != nil {
		return notFound(err, "land record")
	}
	if err := lr.CanClose(); err != nil {
		return err
	}
	state, err := loadState(ctx, s.store, lr)
	if err != nil {
		return err
	}
	return s.validateClosable(state)
}

func (s *Service) validateClosable(state *models.LandRecordState) error {
	if len(state.Acts) == 0 && len(state.BookEntries) == 0 {
		return dErrors.New(dErrors.CodeValidation, "land record has no recording acts or book entries").
			WithDetail("land_record", state.LandRecord.UID)
	}
	for _, act := range state.Acts {
		t, ok := s.catalog.Lookup(act.Type)
		if !ok {
			return dErrors.New(dErrors.CodeInvariantViolation, "recording act has a type missing from the catalog").
				WithDetail("recording_act", act.UID).
				WithDetail("act_type", act.Type)
		}
		if err := act.CanBeClosed(t.IsAmendment(), t.CreatesPartition); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) buildSecurity(ctx context.Context, lr *models.LandRecord, acts []*models.RecordingAct, cmd models.CloseCommand, now time.Time) (models.SecurityData, error) {
	uids := make([]string, len(acts))
	for i, act := range acts {
		uids[i] = act.UID
	}
	digest := seal.Digest(lr.TransactionUID, lr.UID, uids)
	signedAt := now

	if !s.esignEnabled {
		return models.SecurityData{
			Digest:          digest,
			Mode:            models.SealModeManual,
			SignedAt:        &signedAt,
			ManualHash:      cmd.Manual.Hash,
			ManualSignature: cmd.Manual.Signature,
		}, nil
	}

	sealed, err := s.signer.SignTextWithSystemCredentials(ctx, digest)
	if err != nil {
		return models.SecurityData{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to seal land record")
	}
	return models.SecurityData{
		Digest:   digest,
		Seal:     sealed,
		Mode:     models.SealModeElectronic,
		SignerID: s.signer.SignerID(),
		SignedAt: &signedAt,
	}, nil
}

// RemoveSignature resets the security data of a sealed record so it can be
// reopened. The record stays closed.
func (s *Service) RemoveSignature(ctx context.Context, landRecordID id.LandRecordID) (*models.LandRecordState, error) {
	return s.mutateSealed(ctx, landRecordID, audit.EventLandRecordSignatureRemoved, func(_ context.Context, lr *models.LandRecord, now time.Time) error {
		if err := lr.CanRemoveSignature(); err != nil {
			return err
		}
		lr.ApplyRemoveSignature(now)
		return nil
	})
}

// Open reopens a sealed record whose signature was removed. The transaction
// that owns the record must still be in progress.
func (s *Service) Open(ctx context.Context, landRecordID id.LandRecordID) (*models.LandRecordState, error) {
	return s.mutateSealed(ctx, landRecordID, audit.EventLandRecordOpened, func(ctx context.Context, lr *models.LandRecord, now time.Time) error {
		if err := lr.CanOpen(); err != nil {
			return err
		}
		if s.transactions != nil {
			info, err := s.transactions.GetTransactionInfo(ctx, lr.TransactionID)
			if err != nil {
				return notFound(err, "transaction")
			}
			if info.Terminal {
				return dErrors.New(dErrors.CodeValidation, "land record of a finished transaction cannot be reopened").
					WithDetail("transaction", info.UID).
					WithDetail("status", info.Status)
			}
		}
		lr.ApplyOpen(now)
		return nil
	})
}

func (s *Service) mutateSealed(ctx context.Context, landRecordID id.LandRecordID, action audit.AuditEvent, mutate func(ctx context.Context, lr *models.LandRecord, now time.Time) error) (*models.LandRecordState, error) {
	now := requestcontext.Now(ctx)
	var state *models.LandRecordState
	err := s.tx.RunInTx(withLockKey(ctx, landRecordID.String()), func(ctx context.Context, store Store) error {
		lr, err := store.FindLandRecordForUpdate(ctx, landRecordID)
		if err != nil {
			return notFound(err, "land record")
		}
		if err := mutate(ctx, lr, now); err != nil {
			return err
		}
		if err := store.UpdateLandRecord(ctx, lr); err != nil {
			return internal(err, "failed to update land record")
		}
		if err := s.emit(ctx, audit.Event{
			Action:        string(action),
			AggregateType: "land_record",
			AggregateID:   lr.ID.String(),
			Subject:       lr.UID,
			Attributes:    map[string]string{"status": string(lr.Status)},
		}); err != nil {
			return err
		}
		state, err = loadState(ctx, store, lr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}
