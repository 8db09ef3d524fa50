package models

import (
	"time"

	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
)

type LandRecordStatus string

const (
	LandRecordStatusOpen           LandRecordStatus = "open"
	LandRecordStatusClosed         LandRecordStatus = "closed"
	LandRecordStatusManuallyClosed LandRecordStatus = "manually_closed"
)

type SealMode string

const (
	SealModeElectronic SealMode = "electronic"
	SealModeManual     SealMode = "manual"
)

// Instrument describes the legal document a land record registers.
type Instrument struct {
	Kind   string
	Number string
	Issuer string
}

// SecurityData holds the seal written when a land record is closed.
type SecurityData struct {
	Digest          string
	Seal            string
	Mode            SealMode
	SignerID        string
	SignedAt        *time.Time
	ManualHash      string
	ManualSignature string
}

// IsSigned reports whether any seal or manual signature is present.
func (s SecurityData) IsSigned() bool {
	return s.Seal != "" || s.ManualSignature != ""
}

// LandRecord groups the recording acts and book entries produced from one instrument.
type LandRecord struct {
	ID                id.LandRecordID
	UID               string
	TransactionID     id.TransactionID
	TransactionUID    string
	Instrument        Instrument
	Status            LandRecordStatus
	PresentationTime  time.Time
	AuthorizationTime *time.Time
	// LastActIndex only grows, so removed acts never free their index.
	LastActIndex int
	Security     SecurityData
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewLandRecord returns an open land record bound to a transaction.
func NewLandRecord(recordID id.LandRecordID, transactionID id.TransactionID, transactionUID string, instrument Instrument, presentation, now time.Time) (*LandRecord, error) {
	if transactionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "land record requires a transaction")
	}
	if presentation.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "land record requires a presentation time")
	}
	return &LandRecord{
		ID:               recordID,
		UID:              id.NewUID(id.UIDPrefixLandRecord),
		TransactionID:    transactionID,
		TransactionUID:   transactionUID,
		Instrument:       instrument,
		Status:           LandRecordStatusOpen,
		PresentationTime: presentation,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (lr *LandRecord) IsOpen() bool {
	return lr.Status == LandRecordStatusOpen
}

// IsSealed reports whether the record is closed by either path.
func (lr *LandRecord) IsSealed() bool {
	return lr.Status == LandRecordStatusClosed || lr.Status == LandRecordStatusManuallyClosed
}

// EffectiveTime orders land records in a tract: authorization time, falling
// back to presentation time while not yet authorized.
func (lr *LandRecord) EffectiveTime() time.Time {
	if lr.AuthorizationTime != nil {
		return *lr.AuthorizationTime
	}
	return lr.PresentationTime
}

// CanMutate rejects changes to a sealed record.
func (lr *LandRecord) CanMutate() error {
	if !lr.IsOpen() {
		return dErrors.New(dErrors.CodeLandRecordClosed, "land record is closed").
			WithDetail("land_record", lr.UID).
			WithDetail("status", string(lr.Status))
	}
	return nil
}

// NextActIndex reserves the next act index.
func (lr *LandRecord) NextActIndex() int {
	lr.LastActIndex++
	return lr.LastActIndex
}

// CanClose checks the record is open; content checks live in the lifecycle.
func (lr *LandRecord) CanClose() error {
	return lr.CanMutate()
}

// ApplyClose seals the record. Authorization time is stamped on first close.
func (lr *LandRecord) ApplyClose(security SecurityData, now time.Time) {
	if security.Mode == SealModeManual {
		lr.Status = LandRecordStatusManuallyClosed
	} else {
		lr.Status = LandRecordStatusClosed
	}
	if lr.AuthorizationTime == nil {
		at := now
		lr.AuthorizationTime = &at
	}
	lr.Security = security
	lr.UpdatedAt = now
}

// CanOpen requires a sealed record whose signature has been removed.
func (lr *LandRecord) CanOpen() error {
	if lr.IsOpen() {
		return dErrors.New(dErrors.CodeValidation, "land record is already open").
			WithDetail("land_record", lr.UID)
	}
	if lr.Security.IsSigned() {
		return dErrors.New(dErrors.CodeValidation, "remove the land record signature before reopening").
			WithDetail("land_record", lr.UID)
	}
	return nil
}

func (lr *LandRecord) ApplyOpen(now time.Time) {
	lr.Status = LandRecordStatusOpen
	lr.UpdatedAt = now
}

// CanRemoveSignature requires a sealed record.
func (lr *LandRecord) CanRemoveSignature() error {
	if !lr.IsSealed() {
		return dErrors.New(dErrors.CodeValidation, "land record is not sealed").
			WithDetail("land_record", lr.UID)
	}
	return nil
}

// ApplyRemoveSignature resets the security data; the record stays sealed
// until opened.
func (lr *LandRecord) ApplyRemoveSignature(now time.Time) {
	lr.Security = SecurityData{}
	lr.UpdatedAt = now
}
