package models

import (
	"time"

	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
)

type RecordingActStatus string

const (
	RecordingActStatusPending    RecordingActStatus = "pending"
	RecordingActStatusRegistered RecordingActStatus = "registered"
	RecordingActStatusDeleted    RecordingActStatus = "deleted"
)

// RecordingAct is one legally meaningful entry in a resource's tract.
type RecordingAct struct {
	ID           id.RecordingActID
	UID          string
	Type         string
	Index        int
	Status       RecordingActStatus
	LandRecordID id.LandRecordID
	ResourceID   id.ResourceID
	// RelatedResourceID surfaces the act in a second tract (partition child).
	RelatedResourceID *id.ResourceID
	// AmendmentOf points at the antecedent act this one amends.
	AmendmentOf *id.RecordingActID
	BookEntryID *id.BookEntryID
	Notes       string
	CreatedBy   id.UserID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewRecordingAct returns a pending act of actType against resourceID. The
// caller assigns the index from the owning land record.
func NewRecordingAct(actID id.RecordingActID, actType string, record *LandRecord, resourceID id.ResourceID, createdBy id.UserID, notes string, now time.Time) (*RecordingAct, error) {
	if actType == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "recording act requires a type")
	}
	if resourceID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "recording act requires a resource")
	}
	return &RecordingAct{
		ID:           actID,
		UID:          id.NewUID(id.UIDPrefixAct),
		Type:         actType,
		Status:       RecordingActStatusPending,
		LandRecordID: record.ID,
		ResourceID:   resourceID,
		Notes:        notes,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (a *RecordingAct) IsActive() bool {
	return a.Status != RecordingActStatusDeleted
}

// InvolvesResource reports whether the act belongs to the resource's tract.
func (a *RecordingAct) InvolvesResource(resourceID id.ResourceID) bool {
	if a.ResourceID == resourceID {
		return true
	}
	return a.RelatedResourceID != nil && *a.RelatedResourceID == resourceID
}

// Amends reports whether the act declares target as its antecedent.
func (a *RecordingAct) Amends(target id.RecordingActID) bool {
	return a.AmendmentOf != nil && *a.AmendmentOf == target
}

// CanBeClosed checks the act is complete enough to be sealed.
func (a *RecordingAct) CanBeClosed(requiresAntecedent, createsPartition bool) error {
	if !a.IsActive() {
		return dErrors.New(dErrors.CodeValidation, "deleted recording act cannot be sealed").
			WithDetail("recording_act", a.UID)
	}
	if a.ResourceID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "recording act has no principal resource").
			WithDetail("recording_act", a.UID)
	}
	if requiresAntecedent && a.AmendmentOf == nil {
		return dErrors.New(dErrors.CodeValidation, "amendment act has no antecedent").
			WithDetail("recording_act", a.UID)
	}
	if createsPartition && a.RelatedResourceID == nil {
		return dErrors.New(dErrors.CodeValidation, "partition act has no partition resource").
			WithDetail("recording_act", a.UID)
	}
	return nil
}

func (a *RecordingAct) ApplyRegistered(now time.Time) {
	a.Status = RecordingActStatusRegistered
	a.UpdatedAt = now
}

func (a *RecordingAct) ApplyDelete(now time.Time) {
	a.Status = RecordingActStatusDeleted
	a.UpdatedAt = now
}

func (a *RecordingAct) ApplyType(actType string, now time.Time) {
	a.Type = actType
	a.UpdatedAt = now
}
