package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"landrec/internal/registration/catalog"
	"landrec/internal/registration/models"
	"landrec/internal/registration/numbering"
	"landrec/internal/registration/tract"
	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
	audit "landrec/pkg/platform/audit"
	"landrec/pkg/platform/sentinel"
	"landrec/pkg/requestcontext"
)

// Execute registers one recording act in an open land record. It resolves or
// creates the subject, checks the antecedent against the subject's tract,
// creates the partition child for partition types and allocates a book entry
// when the command asks for one.
func (s *Service) Execute(ctx context.Context, landRecordID id.LandRecordID, cmd *models.RegistrationCommand) (*models.LandRecordState, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Execute")
	defer span.End()

	if cmd == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "registration command is required")
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("act_type", cmd.Type), attribute.String("land_record_id", landRecordID.String()))

	actType, err := s.lookupType(cmd.Type)
	if err != nil {
		return nil, err
	}
	if cmd.NewResource != nil && !actType.AllowsNewResource {
		return nil, dErrors.New(dErrors.CodeValidation, "recording act type cannot register a new resource").
			WithDetail("act_type", actType.Name)
	}
	if actType.IsAmendment() && cmd.AntecedentID == nil {
		return nil, dErrors.New(dErrors.CodeAntecedentNotFound, "amendment act requires an antecedent").
			WithDetail("act_type", actType.Name)
	}
	if !actType.IsAmendment() && cmd.AntecedentID != nil {
		return nil, dErrors.New(dErrors.CodeInvalidAntecedentType, "recording act type does not amend other acts").
			WithDetail("act_type", actType.Name)
	}

	// The book lease is taken before the record lock, always in that order.
	if cmd.BookEntry != nil {
		release, err := s.locker.Acquire(ctx, cmd.BookEntry.BookID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.UserID(ctx)

	lockKeys := []string{landRecordID.String()}
	if cmd.AntecedentID != nil {
		lockKeys = append(lockKeys, s.antecedentLockKey(ctx, *cmd.AntecedentID)...)
	}

	var state *models.LandRecordState
	err = s.tx.RunInTx(withLockKey(ctx, lockKeys...), func(ctx context.Context, store Store) error {
		lr, err := store.FindLandRecordForUpdate(ctx, landRecordID)
		if err != nil {
			return notFound(err, "land record")
		}
		if err := lr.CanMutate(); err != nil {
			return err
		}
		if err := s.requireRegistrable(ctx, lr); err != nil {
			return err
		}

		resource, isNew, err := resolveResource(ctx, store, cmd, now)
		if err != nil {
			return err
		}
		if !actType.AppliesToKind(resource.Kind) {
			return dErrors.New(dErrors.CodeValidation, "recording act type does not apply to this resource kind").
				WithDetail("act_type", actType.Name).
				WithDetail("resource_kind", string(resource.Kind))
		}

		act, err := models.NewRecordingAct(id.RecordingActID(uuid.New()), actType.Name, lr, resource.ID, actor, cmd.Notes, now)
		if err != nil {
			return err
		}
		if cmd.AntecedentID != nil {
			if err := checkAntecedent(ctx, store, actType, *cmd.AntecedentID, resource.ID, lr); err != nil {
				return err
			}
			antecedent := *cmd.AntecedentID
			act.AmendmentOf = &antecedent
		}

		var child *models.Resource
		if actType.CreatesPartition {
			child, err = models.NewPartition(id.ResourceID(uuid.New()), resource, cmd.PartitionDescription, now)
			if err != nil {
				return err
			}
		}

		var entry *models.BookEntry
		if cmd.BookEntry != nil {
			entry, err = s.allocateEntry(ctx, store, cmd.BookEntry, lr, now)
			if err != nil {
				return err
			}
		}

		if isNew {
			if err := store.CreateResource(ctx, resource); err != nil {
				return internal(err, "failed to create resource")
			}
		}
		if child != nil {
			if err := store.CreateResource(ctx, child); err != nil {
				return internal(err, "failed to create partition")
			}
			childID := child.ID
			act.RelatedResourceID = &childID
		}
		if entry != nil {
			if err := store.CreateBookEntry(ctx, entry); err != nil {
				if errors.Is(err, sentinel.ErrAlreadyUsed) {
					s.metrics.IncrementAllocationConflict()
					return dErrors.Wrap(err, dErrors.CodeBookEntryNumberAlreadyExists, "book entry number already exists").
						WithDetail("book_id", entry.BookID.String()).
						WithDetail("number", entry.Number)
				}
				return internal(err, "failed to create book entry")
			}
			entryID := entry.ID
			act.BookEntryID = &entryID
		}

		act.Index = lr.NextActIndex()
		lr.UpdatedAt = now
		if err := store.CreateRecordingAct(ctx, act); err != nil {
			return internal(err, "failed to create recording act")
		}
		if err := store.UpdateLandRecord(ctx, lr); err != nil {
			return internal(err, "failed to update land record")
		}

		if err := s.emitActCreated(ctx, lr, act, resource, entry); err != nil {
			return err
		}

		state, err = loadState(ctx, store, lr)
		return err
	})
	if err != nil {
		s.logger.WarnContext(ctx, "recording act rejected",
			"land_record_id", landRecordID.String(),
			"act_type", cmd.Type,
			"error", err,
		)
		return nil, err
	}

	s.metrics.IncrementActCreated(cmd.Type)
	return state, nil
}

func (s *Service) emitActCreated(ctx context.Context, lr *models.LandRecord, act *models.RecordingAct, resource *models.Resource, entry *models.BookEntry) error {
	attrs := map[string]string{
		"act_uid":      act.UID,
		"act_type":     act.Type,
		"act_index":    strconv.Itoa(act.Index),
		"resource_uid": resource.UID,
	}
	if act.AmendmentOf != nil {
		attrs["amendment_of"] = act.AmendmentOf.String()
	}
	if err := s.emit(ctx, audit.Event{
		Action:        string(audit.EventRecordingActCreated),
		AggregateType: "land_record",
		AggregateID:   lr.ID.String(),
		Subject:       lr.UID,
		Attributes:    attrs,
	}); err != nil {
		return err
	}
	if entry == nil {
		return nil
	}
	return s.emit(ctx, audit.Event{
		Action:        string(audit.EventBookEntryAllocated),
		AggregateType: "book",
		AggregateID:   entry.BookID.String(),
		Subject:       entry.UID,
		Attributes: map[string]string{
			"number":         strconv.Itoa(entry.Number),
			"land_record_id": lr.ID.String(),
		},
	})
}

// antecedentLockKey names the land record holding an antecedent so an
// amendment and a removal of that antecedent serialize in memory. An unknown
// antecedent adds no key; the tract check rejects it later.
func (s *Service) antecedentLockKey(ctx context.Context, antecedentID id.RecordingActID) []string {
	antecedent, err := s.store.FindRecordingAct(ctx, antecedentID)
	if err != nil {
		return nil
	}
	return []string{antecedent.LandRecordID.String()}
}

// requireRegistrable rejects edits once the owning transaction has left the
// statuses where registration work happens.
func (s *Service) requireRegistrable(ctx context.Context, lr *models.LandRecord) error {
	if s.transactions == nil {
		return nil
	}
	info, err := s.transactions.GetTransactionInfo(ctx, lr.TransactionID)
	if err != nil {
		return notFound(err, "transaction")
	}
	if !info.Registrable {
		return dErrors.New(dErrors.CodeValidation, "transaction status does not allow registration").
			WithDetail("transaction", info.UID).
			WithDetail("status", info.Status)
	}
	return nil
}

func resolveResource(ctx context.Context, store Store, cmd *models.RegistrationCommand, now time.Time) (*models.Resource, bool, error) {
	if cmd.NewResource != nil {
		r, err := models.NewResource(id.ResourceID(uuid.New()), cmd.NewResource.Kind, cmd.NewResource.Description, now)
		if err != nil {
			return nil, false, err
		}
		return r, true, nil
	}
	r, err := store.FindResource(ctx, *cmd.ResourceID)
	if err != nil {
		return nil, false, notFound(err, "resource")
	}
	if !r.IsActive() {
		return nil, false, dErrors.New(dErrors.CodeValidation, "resource is not active").
			WithDetail("resource", r.UID).
			WithDetail("status", string(r.Status))
	}
	return r, false, nil
}

// checkAntecedent enforces that an amendment targets an act in the subject's
// tract, of a type the amendment applies to, recorded strictly earlier than
// the land record being edited. The antecedent row stays share-locked until
// the amendment commits.
func checkAntecedent(ctx context.Context, store Store, actType catalog.ActType, antecedentID id.RecordingActID, resourceID id.ResourceID, lr *models.LandRecord) error {
	antecedent, err := store.FindRecordingActForShare(ctx, antecedentID)
	if err != nil || !antecedent.IsActive() {
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return internal(err, "failed to lock antecedent")
		}
		return dErrors.New(dErrors.CodeAntecedentNotFound, "antecedent does not exist").
			WithDetail("antecedent_id", antecedentID.String())
	}

	entries, err := tract.New(store).GetFullTractIndex(ctx, resourceID)
	if err != nil {
		return internal(err, "failed to build tract index")
	}

	var found *tract.Entry
	for i := range entries {
		if entries[i].Act.ID == antecedentID {
			found = &entries[i]
			break
		}
	}
	if found == nil {
		return dErrors.New(dErrors.CodeAntecedentNotFound, "antecedent is not in the resource tract").
			WithDetail("antecedent_id", antecedentID.String())
	}

	if !actType.CanAmend(found.Act.Type) {
		return dErrors.New(dErrors.CodeInvalidAntecedentType, "antecedent type cannot be amended by this act type").
			WithDetail("antecedent_id", antecedentID.String()).
			WithDetail("antecedent_type", found.Act.Type).
			WithDetail("act_type", actType.Name)
	}

	// Acts already in the record precede the new act by index.
	if found.LandRecord.ID == lr.ID {
		return nil
	}
	if !found.LandRecord.EffectiveTime().Before(lr.EffectiveTime()) {
		return dErrors.New(dErrors.CodeAntecedentNotFound, "antecedent is not earlier than the land record").
			WithDetail("antecedent_id", antecedentID.String()).
			WithDetail("antecedent_time", found.LandRecord.EffectiveTime().UTC().Format(time.RFC3339)).
			WithDetail("land_record_time", lr.EffectiveTime().UTC().Format(time.RFC3339))
	}
	return nil
}

func (s *Service) allocateEntry(ctx context.Context, store Store, spec *models.BookEntrySpec, lr *models.LandRecord, now time.Time) (*models.BookEntry, error) {
	book, err := store.FindBook(ctx, spec.BookID)
	if err != nil {
		return nil, notFound(err, "recording book")
	}
	if err := numbering.ValidatePresentationTime(book, lr.PresentationTime); err != nil {
		return nil, err
	}
	if spec.AuthorizationTime != nil {
		if err := numbering.ValidateAuthorizationDate(book, *spec.AuthorizationTime); err != nil {
			return nil, err
		}
	}

	if err := store.LockBook(ctx, book.ID); err != nil {
		return nil, internal(err, "failed to lock recording book")
	}
	existing, err := store.ListBookEntries(ctx, book.ID)
	if err != nil {
		return nil, internal(err, "failed to list book entries")
	}
	number, err := numbering.NextEntryNumber(book, existing)
	if err != nil {
		s.metrics.IncrementAllocationConflict()
		s.logger.ErrorContext(ctx, "book numbering integrity violation",
			"book_id", book.ID.String(),
			"error", err,
		)
		return nil, err
	}

	entry, err := models.NewBookEntry(id.BookEntryID(uuid.New()), book, number, lr, spec.AuthorizationTime, now)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementEntryAllocated(string(book.Policy))
	return entry, nil
}

// RemoveRecordingAct deletes an act from an open land record. An act that a
// later act amends cannot be removed. Resources left without any act are
// marked deleted along with the act's book entry.
func (s *Service) RemoveRecordingAct(ctx context.Context, landRecordID id.LandRecordID, actID id.RecordingActID) (*models.LandRecordState, error) {
	now := requestcontext.Now(ctx)

	var state *models.LandRecordState
	err := s.tx.RunInTx(withLockKey(ctx, landRecordID.String()), func(ctx context.Context, store Store) error {
		lr, err := store.FindLandRecordForUpdate(ctx, landRecordID)
		if err != nil {
			return notFound(err, "land record")
		}
		if err := lr.CanMutate(); err != nil {
			return err
		}

		act, err := store.FindRecordingActForUpdate(ctx, actID)
		if err != nil {
			return notFound(err, "recording act")
		}
		if act.LandRecordID != lr.ID || !act.IsActive() {
			return dErrors.New(dErrors.CodeNotFound, "recording act not found in land record").
				WithDetail("recording_act_id", actID.String())
		}

		dependents, err := store.ListAmendmentsOf(ctx, act.ID)
		if err != nil {
			return internal(err, "failed to list amendments")
		}
		if len(dependents) > 0 {
			uids := make([]string, len(dependents))
			for i, d := range dependents {
				uids[i] = d.UID
			}
			return dErrors.New(dErrors.CodeRecordingActHasDependents, "recording act is the antecedent of later acts").
				WithDetail("recording_act", act.UID).
				WithDetail("dependents", uids)
		}

		act.ApplyDelete(now)
		if err := store.UpdateRecordingAct(ctx, act); err != nil {
			return internal(err, "failed to remove recording act")
		}

		if act.BookEntryID != nil {
			entry, err := store.FindBookEntry(ctx, *act.BookEntryID)
			if err != nil {
				return notFound(err, "book entry")
			}
			entry.ApplyDelete()
			if err := store.UpdateBookEntry(ctx, entry); err != nil {
				return internal(err, "failed to remove book entry")
			}
		}

		orphans := []id.ResourceID{act.ResourceID}
		if act.RelatedResourceID != nil {
			orphans = append(orphans, *act.RelatedResourceID)
		}
		for _, resourceID := range orphans {
			if err := releaseOrphan(ctx, store, resourceID, now); err != nil {
				return err
			}
		}

		lr.UpdatedAt = now
		if err := store.UpdateLandRecord(ctx, lr); err != nil {
			return internal(err, "failed to update land record")
		}

		if err := s.emit(ctx, audit.Event{
			Action:        string(audit.EventRecordingActRemoved),
			AggregateType: "land_record",
			AggregateID:   lr.ID.String(),
			Subject:       lr.UID,
			Attributes: map[string]string{
				"act_uid":  act.UID,
				"act_type": act.Type,
			},
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

// releaseOrphan marks a resource deleted once no active act refers to it.
func releaseOrphan(ctx context.Context, store Store, resourceID id.ResourceID, now time.Time) error {
	remaining, err := store.ListActsByResource(ctx, resourceID)
	if err != nil {
		return internal(err, "failed to list resource acts")
	}
	if len(remaining) > 0 {
		return nil
	}
	resource, err := store.FindResource(ctx, resourceID)
	if err != nil {
		return notFound(err, "resource")
	}
	if !resource.IsActive() {
		return nil
	}
	resource.ApplyDelete(now)
	return internal(store.UpdateResource(ctx, resource), "failed to update resource")
}

// ChangeRecordingActType re-types an act after checking the new type against
// its resource, its antecedent and the acts that amend it. On failure the act
// is left unchanged.
func (s *Service) ChangeRecordingActType(ctx context.Context, actID id.RecordingActID, newType string) (*models.LandRecordState, error) {
	newT, err := s.lookupType(newType)
	if err != nil {
		return nil, err
	}
	current, err := s.store.FindRecordingAct(ctx, actID)
	if err != nil {
		return nil, notFound(err, "recording act")
	}
	now := requestcontext.Now(ctx)

	lockKeys := []string{current.LandRecordID.String()}
	if current.AmendmentOf != nil {
		lockKeys = append(lockKeys, s.antecedentLockKey(ctx, *current.AmendmentOf)...)
	}

	var state *models.LandRecordState
	err = s.tx.RunInTx(withLockKey(ctx, lockKeys...), func(ctx context.Context, store Store) error {
		lr, err := store.FindLandRecordForUpdate(ctx, current.LandRecordID)
		if err != nil {
			return notFound(err, "land record")
		}
		if err := lr.CanMutate(); err != nil {
			return err
		}
		act, err := store.FindRecordingActForUpdate(ctx, actID)
		if err != nil {
			return notFound(err, "recording act")
		}
		if !act.IsActive() {
			return dErrors.New(dErrors.CodeNotFound, "recording act not found")
		}
		if act.Type == newT.Name {
			state, err = loadState(ctx, store, lr)
			return err
		}
		if err := s.checkRetype(ctx, store, act, newT); err != nil {
			return err
		}

		oldType := act.Type
		act.ApplyType(newT.Name, now)
		if err := store.UpdateRecordingAct(ctx, act); err != nil {
			return internal(err, "failed to change recording act type")
		}
		if err := s.emit(ctx, audit.Event{
			Action:        string(audit.EventRecordingActTypeChanged),
			AggregateType: "land_record",
			AggregateID:   lr.ID.String(),
			Subject:       lr.UID,
			Attributes: map[string]string{
				"act_uid":  act.UID,
				"from":     oldType,
				"to":       newT.Name,
				"resource": act.ResourceID.String(),
			},
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

func (s *Service) checkRetype(ctx context.Context, store Store, act *models.RecordingAct, newT catalog.ActType) error {
	oldT, _ := s.catalog.Lookup(act.Type)
	if oldT.CreatesPartition != newT.CreatesPartition {
		return dErrors.New(dErrors.CodeValidation, "partition acts cannot change to or from a non-partition type").
			WithDetail("from", act.Type).
			WithDetail("to", newT.Name)
	}

	resource, err := store.FindResource(ctx, act.ResourceID)
	if err != nil {
		return notFound(err, "resource")
	}
	if !newT.AppliesToKind(resource.Kind) {
		return dErrors.New(dErrors.CodeValidation, "recording act type does not apply to this resource kind").
			WithDetail("act_type", newT.Name).
			WithDetail("resource_kind", string(resource.Kind))
	}

	switch {
	case act.AmendmentOf != nil && !newT.IsAmendment():
		return dErrors.New(dErrors.CodeInvalidAntecedentType, "new type does not amend other acts but the act has an antecedent").
			WithDetail("act_type", newT.Name)
	case act.AmendmentOf == nil && newT.IsAmendment():
		return dErrors.New(dErrors.CodeAntecedentNotFound, "new type requires an antecedent").
			WithDetail("act_type", newT.Name)
	case act.AmendmentOf != nil:
		antecedent, err := store.FindRecordingActForShare(ctx, *act.AmendmentOf)
		if err != nil {
			return notFound(err, "antecedent")
		}
		if !newT.CanAmend(antecedent.Type) {
			return dErrors.New(dErrors.CodeInvalidAntecedentType, "antecedent type cannot be amended by the new type").
				WithDetail("antecedent_type", antecedent.Type).
				WithDetail("act_type", newT.Name)
		}
	}

	dependents, err := store.ListAmendmentsOf(ctx, act.ID)
	if err != nil {
		return internal(err, "failed to list amendments")
	}
	for _, dep := range dependents {
		depT, ok := s.catalog.Lookup(dep.Type)
		if !ok || !depT.CanAmend(newT.Name) {
			return dErrors.New(dErrors.CodeRecordingActHasDependents, "a later act amends this act and cannot amend the new type").
				WithDetail("dependent", dep.UID).
				WithDetail("dependent_type", dep.Type)
		}
	}
	return nil
}

func (s *Service) lookupType(name string) (catalog.ActType, error) {
	t, ok := s.catalog.Lookup(name)
	if !ok {
		return catalog.ActType{}, dErrors.New(dErrors.CodeValidation, "unknown recording act type").
			WithDetail("act_type", name)
	}
	return t, nil
}

func loadState(ctx context.Context, store Store, lr *models.LandRecord) (*models.LandRecordState, error) {
	acts, err := store.ListActsByLandRecord(ctx, lr.ID)
	if err != nil {
		return nil, internal(err, "failed to list recording acts")
	}
	entries, err := store.ListEntriesByLandRecord(ctx, lr.ID)
	if err != nil {
		return nil, internal(err, "failed to list book entries")
	}
	return &models.LandRecordState{LandRecord: lr, Acts: acts, BookEntries: entries}, nil
}
