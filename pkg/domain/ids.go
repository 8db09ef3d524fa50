// Package domain holds typed identifiers shared across bounded contexts.
//
// Each aggregate gets its own UUID-backed ID type so the compiler rejects
// passing a ResourceID where a LandRecordID is expected. Parse functions are
// the trust boundary: they reject empty, malformed and nil UUIDs.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "landrec/pkg/domain-errors"
)

type (
	UserID         uuid.UUID
	ResourceID     uuid.UUID
	RecordingActID uuid.UUID
	LandRecordID   uuid.UUID
	BookID         uuid.UUID
	BookEntryID    uuid.UUID
	TransactionID  uuid.UUID
	TaskID         uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id ResourceID) String() string     { return uuid.UUID(id).String() }
func (id RecordingActID) String() string { return uuid.UUID(id).String() }
func (id LandRecordID) String() string   { return uuid.UUID(id).String() }
func (id BookID) String() string         { return uuid.UUID(id).String() }
func (id BookEntryID) String() string    { return uuid.UUID(id).String() }
func (id TransactionID) String() string  { return uuid.UUID(id).String() }
func (id TaskID) String() string         { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ResourceID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RecordingActID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id LandRecordID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id BookID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id BookEntryID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id TransactionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id TaskID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, label string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return parsed, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

func ParseResourceID(s string) (ResourceID, error) {
	u, err := parseUUID(s, "resource ID")
	return ResourceID(u), err
}

func ParseRecordingActID(s string) (RecordingActID, error) {
	u, err := parseUUID(s, "recording act ID")
	return RecordingActID(u), err
}

func ParseLandRecordID(s string) (LandRecordID, error) {
	u, err := parseUUID(s, "land record ID")
	return LandRecordID(u), err
}

func ParseBookID(s string) (BookID, error) {
	u, err := parseUUID(s, "book ID")
	return BookID(u), err
}

func ParseTransactionID(s string) (TransactionID, error) {
	u, err := parseUUID(s, "transaction ID")
	return TransactionID(u), err
}
