package service

import (
	"context"

	"landrec/internal/registration/models"
	id "landrec/pkg/domain"
	audit "landrec/pkg/platform/audit"
)

// Store is the registration persistence gateway. Finders return
// sentinel.ErrNotFound; creates that hit a unique constraint return
// sentinel.ErrAlreadyUsed. List methods never return deleted rows unless
// their doc says otherwise.
type Store interface {
	CreateResource(ctx context.Context, resource *models.Resource) error
	FindResource(ctx context.Context, resourceID id.ResourceID) (*models.Resource, error)
	UpdateResource(ctx context.Context, resource *models.Resource) error

	CreateLandRecord(ctx context.Context, record *models.LandRecord) error
	FindLandRecord(ctx context.Context, landRecordID id.LandRecordID) (*models.LandRecord, error)
	// FindLandRecordForUpdate locks the record until the transaction ends.
	FindLandRecordForUpdate(ctx context.Context, landRecordID id.LandRecordID) (*models.LandRecord, error)
	FindLandRecordByTransaction(ctx context.Context, transactionID id.TransactionID) (*models.LandRecord, error)
	UpdateLandRecord(ctx context.Context, record *models.LandRecord) error

	CreateRecordingAct(ctx context.Context, act *models.RecordingAct) error
	FindRecordingAct(ctx context.Context, actID id.RecordingActID) (*models.RecordingAct, error)
	// FindRecordingActForShare is taken on an antecedent by the amendment
	// referencing it; FindRecordingActForUpdate is taken by removal. The two
	// conflict so a removal cannot pass its dependents check while an
	// amendment of the same act is being written.
	FindRecordingActForShare(ctx context.Context, actID id.RecordingActID) (*models.RecordingAct, error)
	FindRecordingActForUpdate(ctx context.Context, actID id.RecordingActID) (*models.RecordingAct, error)
	UpdateRecordingAct(ctx context.Context, act *models.RecordingAct) error
	// ListActsByLandRecord returns active acts in index order.
	ListActsByLandRecord(ctx context.Context, landRecordID id.LandRecordID) ([]*models.RecordingAct, error)
	// ListActsByResource returns active acts where the resource is principal or related.
	ListActsByResource(ctx context.Context, resourceID id.ResourceID) ([]*models.RecordingAct, error)
	// ListAmendmentsOf returns active acts that declare actID as their antecedent.
	ListAmendmentsOf(ctx context.Context, actID id.RecordingActID) ([]*models.RecordingAct, error)

	CreateBook(ctx context.Context, book *models.RecordingBook) error
	FindBook(ctx context.Context, bookID id.BookID) (*models.RecordingBook, error)
	// LockBook serializes numbering for the book until the transaction ends.
	// Stores without transactional locks rely on the numbering.Locker instead.
	LockBook(ctx context.Context, bookID id.BookID) error
	// ListBookEntries returns every entry of the book, deleted ones included,
	// because the no-reuse policy never hands a deleted number out again.
	ListBookEntries(ctx context.Context, bookID id.BookID) ([]*models.BookEntry, error)
	CreateBookEntry(ctx context.Context, entry *models.BookEntry) error
	FindBookEntry(ctx context.Context, entryID id.BookEntryID) (*models.BookEntry, error)
	UpdateBookEntry(ctx context.Context, entry *models.BookEntry) error
	// ListEntriesByLandRecord returns active entries ordered by book and number.
	ListEntriesByLandRecord(ctx context.Context, landRecordID id.LandRecordID) ([]*models.BookEntry, error)
}

// StoreTx runs fn inside one store transaction. The ctx handed to fn carries
// the transaction so audit events appended with it commit together with the
// state change.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// TransactionReader resolves the workflow side of a land record.
type TransactionReader interface {
	GetTransactionInfo(ctx context.Context, transactionID id.TransactionID) (*models.TransactionInfo, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
