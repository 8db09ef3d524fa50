package service

import (
	"context"

	regmodels "landrec/internal/registration/models"
	"landrec/internal/workflow/models"
	id "landrec/pkg/domain"
	audit "landrec/pkg/platform/audit"
)

// Store is the workflow persistence gateway. Finders return
// sentinel.ErrNotFound; unique violations return sentinel.ErrAlreadyUsed.
type Store interface {
	CreateTransaction(ctx context.Context, transaction *models.Transaction) error
	FindTransaction(ctx context.Context, transactionID id.TransactionID) (*models.Transaction, error)
	FindTransactionByUID(ctx context.Context, uid string) (*models.Transaction, error)
	// FindTransactionForUpdate locks the transaction until the store transaction ends.
	FindTransactionForUpdate(ctx context.Context, transactionID id.TransactionID) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, transaction *models.Transaction) error

	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, task *models.Task) error
	// FindOpenTask returns the task that has not been checked out yet.
	FindOpenTask(ctx context.Context, transactionID id.TransactionID) (*models.Task, error)
	// ListTasks returns every task of the transaction, oldest first.
	ListTasks(ctx context.Context, transactionID id.TransactionID) ([]*models.Task, error)
}

// StoreTx runs fn atomically against the store.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// LandRecords is the registration side the workflow gates on and signs
// through.
type LandRecords interface {
	GetLandRecordByTransaction(ctx context.Context, transactionID id.TransactionID) (*regmodels.LandRecord, error)
	ValidateClosable(ctx context.Context, landRecordID id.LandRecordID) error
	Close(ctx context.Context, landRecordID id.LandRecordID, cmd regmodels.CloseCommand) (*regmodels.LandRecordState, error)
	RemoveSignature(ctx context.Context, landRecordID id.LandRecordID) (*regmodels.LandRecordState, error)
	Open(ctx context.Context, landRecordID id.LandRecordID) (*regmodels.LandRecordState, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
