package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
)

var now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func openRecord(t *testing.T) *LandRecord {
	t.Helper()
	lr, err := NewLandRecord(id.LandRecordID(uuid.New()), id.TransactionID(uuid.New()), "TR-1", Instrument{Kind: "deed"}, now, now)
	require.NoError(t, err)
	return lr
}

func TestNewLandRecord(t *testing.T) {
	_, err := NewLandRecord(id.LandRecordID(uuid.New()), id.TransactionID{}, "", Instrument{}, now, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewLandRecord(id.LandRecordID(uuid.New()), id.TransactionID(uuid.New()), "", Instrument{}, time.Time{}, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	lr := openRecord(t)
	assert.True(t, lr.IsOpen())
	assert.Equal(t, now, lr.EffectiveTime())
	assert.Contains(t, lr.UID, id.UIDPrefixLandRecord+"-")
}

func TestLandRecordLifecycle(t *testing.T) {
	lr := openRecord(t)
	require.NoError(t, lr.CanMutate())
	assert.Equal(t, 1, lr.NextActIndex())
	assert.Equal(t, 2, lr.NextActIndex())

	closedAt := now.Add(time.Hour)
	lr.ApplyClose(SecurityData{Digest: "d", Seal: "s", Mode: SealModeElectronic}, closedAt)
	assert.Equal(t, LandRecordStatusClosed, lr.Status)
	assert.True(t, lr.IsSealed())
	assert.Equal(t, closedAt, lr.EffectiveTime())
	assert.True(t, dErrors.HasCode(lr.CanMutate(), dErrors.CodeLandRecordClosed))
	assert.True(t, dErrors.HasCode(lr.CanClose(), dErrors.CodeLandRecordClosed))
	assert.True(t, dErrors.HasCode(lr.CanOpen(), dErrors.CodeValidation), "signed record cannot reopen")

	require.NoError(t, lr.CanRemoveSignature())
	lr.ApplyRemoveSignature(closedAt)
	assert.False(t, lr.Security.IsSigned())
	assert.True(t, lr.IsSealed())
	require.NoError(t, lr.CanOpen())

	lr.ApplyOpen(closedAt)
	assert.True(t, lr.IsOpen())
	assert.True(t, dErrors.HasCode(lr.CanRemoveSignature(), dErrors.CodeValidation))
	assert.Equal(t, 3, lr.NextActIndex(), "indexes continue after reopening")

	lr.ApplyClose(SecurityData{Mode: SealModeManual, ManualSignature: "x"}, closedAt.Add(time.Hour))
	assert.Equal(t, LandRecordStatusManuallyClosed, lr.Status)
	assert.Equal(t, closedAt, *lr.AuthorizationTime, "authorization time is stamped once")
}

func TestRecordingActCanBeClosed(t *testing.T) {
	lr := openRecord(t)
	act, err := NewRecordingAct(id.RecordingActID(uuid.New()), "mortgage_cancellation", lr, id.ResourceID(uuid.New()), id.UserID{}, "", now)
	require.NoError(t, err)
	assert.Equal(t, RecordingActStatusPending, act.Status)

	assert.Error(t, act.CanBeClosed(true, false), "missing antecedent")
	antecedent := id.RecordingActID(uuid.New())
	act.AmendmentOf = &antecedent
	assert.NoError(t, act.CanBeClosed(true, false))
	assert.True(t, act.Amends(antecedent))

	assert.Error(t, act.CanBeClosed(false, true), "missing partition")

	act.ApplyDelete(now)
	assert.False(t, act.IsActive())
	assert.Error(t, act.CanBeClosed(false, false))

	_, err = NewRecordingAct(id.RecordingActID(uuid.New()), "mortgage", lr, id.ResourceID{}, id.UserID{}, "", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestResourceMerge(t *testing.T) {
	a, err := NewResource(id.ResourceID(uuid.New()), ResourceKindRealEstate, "", now)
	require.NoError(t, err)
	b, err := NewResource(id.ResourceID(uuid.New()), ResourceKindRealEstate, "", now)
	require.NoError(t, err)
	assoc, err := NewResource(id.ResourceID(uuid.New()), ResourceKindAssociation, "", now)
	require.NoError(t, err)

	assert.Error(t, a.CanMergeInto(a))
	assert.Error(t, a.CanMergeInto(assoc))
	require.NoError(t, a.CanMergeInto(b))

	a.ApplyMerge(b.ID, now)
	assert.Equal(t, ResourceStatusMerged, a.Status)
	assert.Error(t, a.CanMergeInto(b), "merged resources cannot merge again")

	child, err := NewPartition(id.ResourceID(uuid.New()), b, "B-1", now)
	require.NoError(t, err)
	assert.Equal(t, b.ID, *child.PartitionOf)

	_, err = NewResource(id.ResourceID(uuid.New()), ResourceKind("boat"), "", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestRecordingBookWindow(t *testing.T) {
	from := now.Add(-time.Hour)
	to := now.Add(time.Hour)
	book, err := NewRecordingBook(id.BookID(uuid.New()), "Central", "1", NumberingPolicyNoReuse, false, 1, &from, &to, now)
	require.NoError(t, err)

	assert.True(t, book.InWindow(from), "bounds are inclusive")
	assert.True(t, book.InWindow(to))
	assert.False(t, book.InWindow(to.Add(time.Second)))
	assert.False(t, book.InWindow(from.Add(-time.Second)))

	_, err = NewRecordingBook(id.BookID(uuid.New()), "Central", "1", NumberingPolicyNoReuse, false, 1, &to, &from, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	_, err = NewRecordingBook(id.BookID(uuid.New()), "Central", "1", NumberingPolicy("sometimes"), false, 1, nil, nil, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	lr := openRecord(t)
	_, err = NewBookEntry(id.BookEntryID(uuid.New()), book, 0, lr, nil, now)
	assert.Error(t, err)
	entry, err := NewBookEntry(id.BookEntryID(uuid.New()), book, 5, lr, nil, now)
	require.NoError(t, err)
	assert.Equal(t, lr.PresentationTime, entry.PresentationTime)
	assert.True(t, entry.IsActive())
}

func TestRegistrationCommandValidate(t *testing.T) {
	rid := id.ResourceID(uuid.New())
	tests := []struct {
		name string
		cmd  RegistrationCommand
		ok   bool
	}{
		{"existing resource", RegistrationCommand{Type: "mortgage", ResourceID: &rid}, true},
		{"new resource", RegistrationCommand{Type: "donation", NewResource: &NewResourceSpec{Kind: ResourceKindRealEstate}}, true},
		{"blank type", RegistrationCommand{Type: "  ", ResourceID: &rid}, false},
		{"both subjects", RegistrationCommand{Type: "donation", ResourceID: &rid, NewResource: &NewResourceSpec{Kind: ResourceKindRealEstate}}, false},
		{"no subject", RegistrationCommand{Type: "donation"}, false},
		{"bad kind", RegistrationCommand{Type: "donation", NewResource: &NewResourceSpec{Kind: "boat"}}, false},
		{"entry without book", RegistrationCommand{Type: "mortgage", ResourceID: &rid, BookEntry: &BookEntrySpec{}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}
