package models

import (
	"time"

	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
)

// NumberingPolicy decides whether freed book entry numbers are handed out again.
type NumberingPolicy string

const (
	NumberingPolicyReuse   NumberingPolicy = "reuse"
	NumberingPolicyNoReuse NumberingPolicy = "no_reuse"
)

func (p NumberingPolicy) IsValid() bool {
	return p == NumberingPolicyReuse || p == NumberingPolicyNoReuse
}

// RecordingBook is a legacy physical book whose entries are numbered.
type RecordingBook struct {
	ID             id.BookID
	UID            string
	RecorderOffice string
	BookNumber     string
	Policy         NumberingPolicy
	Perpetual      bool
	StartIndex     int
	// ControlFrom and ControlTo bound the presentation and authorization
	// dates accepted for new entries. Nil means unbounded on that side.
	ControlFrom *time.Time
	ControlTo   *time.Time
	CreatedAt   time.Time
}

// NewRecordingBook validates book configuration.
func NewRecordingBook(bookID id.BookID, office, number string, policy NumberingPolicy, perpetual bool, startIndex int, from, to *time.Time, now time.Time) (*RecordingBook, error) {
	if office == "" || number == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "recording book requires office and book number")
	}
	if !policy.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown numbering policy: "+string(policy))
	}
	if startIndex < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "start index cannot be negative")
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "control window ends before it starts")
	}
	return &RecordingBook{
		ID:             bookID,
		UID:            id.NewUID(id.UIDPrefixBook),
		RecorderOffice: office,
		BookNumber:     number,
		Policy:         policy,
		Perpetual:      perpetual,
		StartIndex:     startIndex,
		ControlFrom:    from,
		ControlTo:      to,
		CreatedAt:      now,
	}, nil
}

// InWindow reports whether t falls inside the control window, bounds included.
func (b *RecordingBook) InWindow(t time.Time) bool {
	if b.ControlFrom != nil && t.Before(*b.ControlFrom) {
		return false
	}
	if b.ControlTo != nil && t.After(*b.ControlTo) {
		return false
	}
	return true
}

type BookEntryStatus string

const (
	BookEntryStatusActive  BookEntryStatus = "active"
	BookEntryStatusDeleted BookEntryStatus = "deleted"
)

// BookEntry is a numbered slot in a recording book bound to one land record.
type BookEntry struct {
	ID                id.BookEntryID
	UID               string
	BookID            id.BookID
	Number            int
	LandRecordID      id.LandRecordID
	Status            BookEntryStatus
	PresentationTime  time.Time
	AuthorizationTime *time.Time
	CreatedAt         time.Time
}

func (e *BookEntry) IsActive() bool {
	return e.Status == BookEntryStatusActive
}

func (e *BookEntry) ApplyDelete() {
	e.Status = BookEntryStatusDeleted
}

// NewBookEntry binds number in book to a land record. The entry inherits the
// record's presentation time.
func NewBookEntry(entryID id.BookEntryID, book *RecordingBook, number int, record *LandRecord, authorization *time.Time, now time.Time) (*BookEntry, error) {
	if number <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "book entry number must be positive")
	}
	return &BookEntry{
		ID:                entryID,
		UID:               id.NewUID(id.UIDPrefixBookEntry),
		BookID:            book.ID,
		Number:            number,
		LandRecordID:      record.ID,
		Status:            BookEntryStatusActive,
		PresentationTime:  record.PresentationTime,
		AuthorizationTime: authorization,
		CreatedAt:         now,
	}, nil
}
