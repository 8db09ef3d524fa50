package models

import (
	"strings"
	"time"

	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
)

// NewResourceSpec asks the engine to register a brand-new subject.
type NewResourceSpec struct {
	Kind        ResourceKind `json:"kind"`
	Description string       `json:"description"`
}

// BookEntrySpec asks the engine to record the act in a legacy book.
type BookEntrySpec struct {
	BookID            id.BookID
	AuthorizationTime *time.Time
}

// RegistrationCommand is the input of Execute: register one act of Type
// against an existing resource or a new one.
type RegistrationCommand struct {
	Type        string
	ResourceID  *id.ResourceID
	NewResource *NewResourceSpec
	// AntecedentID is required for amendment types.
	AntecedentID *id.RecordingActID
	// PartitionDescription labels the child parcel of a partition act.
	PartitionDescription string
	BookEntry            *BookEntrySpec
	Notes                string
}

// Validate checks command shape; catalog and tract rules are checked by the engine.
func (c *RegistrationCommand) Validate() error {
	c.Type = strings.TrimSpace(c.Type)
	if c.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "recording act type is required")
	}
	if (c.ResourceID == nil) == (c.NewResource == nil) {
		return dErrors.New(dErrors.CodeValidation, "exactly one of resource_id or new_resource is required")
	}
	if c.NewResource != nil && !c.NewResource.Kind.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid resource kind").
			WithDetail("kind", string(c.NewResource.Kind))
	}
	if c.BookEntry != nil && c.BookEntry.BookID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "book_id is required for book entries")
	}
	return nil
}

// CreateLandRecordCommand opens a land record for a transaction.
type CreateLandRecordCommand struct {
	TransactionID    id.TransactionID
	Instrument       Instrument
	PresentationTime *time.Time
}

// CreateBookCommand registers a recording book.
type CreateBookCommand struct {
	RecorderOffice string
	BookNumber     string
	Policy         NumberingPolicy
	Perpetual      bool
	StartIndex     int
	ControlFrom    *time.Time
	ControlTo      *time.Time
}

// ManualSeal carries the operator-entered hash and signature for manual closing.
type ManualSeal struct {
	Hash      string
	Signature string
}

// CloseCommand closes a land record. Manual is required when the office
// signs manually and ignored otherwise.
type CloseCommand struct {
	Manual *ManualSeal
}

// LandRecordState is what mutating operations return: the record with its
// active acts in index order and its active book entries.
type LandRecordState struct {
	LandRecord  *LandRecord
	Acts        []*RecordingAct
	BookEntries []*BookEntry
}

// TransactionInfo is the registration view of a workflow transaction.
type TransactionInfo struct {
	ID     id.TransactionID
	UID    string
	Status string
	// Registrable is true while the transaction is in a status where land
	// records may be created.
	Registrable bool
	Terminal    bool
}
