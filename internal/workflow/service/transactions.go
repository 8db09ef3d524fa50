package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	regmodels "landrec/internal/registration/models"
	"landrec/internal/workflow/models"
	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
	audit "landrec/pkg/platform/audit"
	"landrec/pkg/platform/sentinel"
	"landrec/pkg/requestcontext"
)

// CreateTransaction files a new transaction waiting for payment and opens
// its first task.
func (s *Service) CreateTransaction(ctx context.Context, cmd models.CreateTransactionCommand) (*models.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.CreateTransaction")
	defer span.End()

	who, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	tr, err := models.NewTransaction(id.TransactionID(uuid.New()), cmd.Requester, cmd.RecorderOffice, cmd.Document, now)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(withLockKey(ctx, tr.ID.String()), func(ctx context.Context, store Store) error {
		if err := store.CreateTransaction(ctx, tr); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "transaction already exists")
			}
			return internal(err, "failed to create transaction")
		}
		task := models.NewTask(id.TaskID(uuid.New()), tr, models.CommandCreate, "", who.id, now)
		if err := store.CreateTask(ctx, task); err != nil {
			return internal(err, "failed to open task")
		}
		return s.emit(ctx, audit.Event{
			Action:        string(audit.EventTransactionCreated),
			AggregateType: "transaction",
			AggregateID:   tr.ID.String(),
			Subject:       tr.UID,
			Attributes: map[string]string{
				"requester":       tr.Requester,
				"recorder_office": tr.RecorderOffice,
				"document_kind":   tr.Document.Kind,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementCreated()
	s.logger.InfoContext(ctx, "transaction created",
		"transaction_id", tr.ID.String(),
		"uid", tr.UID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return tr, nil
}

func (s *Service) GetTransaction(ctx context.Context, transactionID id.TransactionID) (*models.Transaction, error) {
	tr, err := s.store.FindTransaction(ctx, transactionID)
	if err != nil {
		return nil, notFound(err, "transaction")
	}
	return tr, nil
}

// ResolveTransaction accepts either the internal UUID or the public UID.
func (s *Service) ResolveTransaction(ctx context.Context, ref string) (*models.Transaction, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "transaction reference is required")
	}
	if transactionID, err := id.ParseTransactionID(ref); err == nil {
		return s.GetTransaction(ctx, transactionID)
	}
	tr, err := s.store.FindTransactionByUID(ctx, strings.ToUpper(ref))
	if err != nil {
		return nil, notFound(err, "transaction")
	}
	return tr, nil
}

// ResolveTransactionID is ResolveTransaction for callers that only need the ID.
func (s *Service) ResolveTransactionID(ctx context.Context, ref string) (id.TransactionID, error) {
	tr, err := s.ResolveTransaction(ctx, ref)
	if err != nil {
		return id.TransactionID{}, err
	}
	return tr.ID, nil
}

// CurrentTask returns the open task of the transaction.
func (s *Service) CurrentTask(ctx context.Context, transactionID id.TransactionID) (*models.Task, error) {
	task, err := s.store.FindOpenTask(ctx, transactionID)
	if err != nil {
		return nil, notFound(err, "current task")
	}
	return task, nil
}

// History returns every task of the transaction, oldest first.
func (s *Service) History(ctx context.Context, transactionID id.TransactionID) ([]*models.Task, error) {
	if _, err := s.GetTransaction(ctx, transactionID); err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, transactionID)
	if err != nil {
		return nil, internal(err, "failed to load workflow history")
	}
	return tasks, nil
}

// NextStatuses lists the statuses the rules table allows from the
// transaction's current status.
func (s *Service) NextStatuses(ctx context.Context, transactionID id.TransactionID) ([]models.Status, error) {
	tr, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return s.rules.Next(tr.Status), nil
}

// TransactionReader gives the registration side a read-only view of
// transactions.
type TransactionReader struct {
	store Store
}

func NewTransactionReader(store Store) *TransactionReader {
	return &TransactionReader{store: store}
}

func (r *TransactionReader) GetTransactionInfo(ctx context.Context, transactionID id.TransactionID) (*regmodels.TransactionInfo, error) {
	tr, err := r.store.FindTransaction(ctx, transactionID)
	if err != nil {
		return nil, notFound(err, "transaction")
	}
	return &regmodels.TransactionInfo{
		ID:          tr.ID,
		UID:         tr.UID,
		Status:      string(tr.Status),
		Registrable: tr.Status.IsRegistrable(),
		Terminal:    tr.Status.IsTerminal(),
	}, nil
}
