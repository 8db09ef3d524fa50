package store

import (
	"context"
	"sync"

	"landrec/internal/workflow/models"
	id "landrec/pkg/domain"
	"landrec/pkg/platform/sentinel"
)

// InMemoryStore keeps transactions and tasks as values; reads return copies.
type InMemoryStore struct {
	mu           sync.RWMutex
	transactions map[id.TransactionID]models.Transaction
	tasks        map[id.TaskID]models.Task
	// taskOrder keeps creation order; tasks of one request share a timestamp.
	taskOrder []id.TaskID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		transactions: make(map[id.TransactionID]models.Transaction),
		tasks:        make(map[id.TaskID]models.Task),
	}
}

func (s *InMemoryStore) CreateTransaction(_ context.Context, transaction *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.transactions {
		if existing.ID == transaction.ID || existing.UID == transaction.UID {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.transactions[transaction.ID] = *transaction
	return nil
}

func (s *InMemoryStore) FindTransaction(_ context.Context, transactionID id.TransactionID) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[transactionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &t, nil
}

func (s *InMemoryStore) FindTransactionByUID(_ context.Context, uid string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.transactions {
		if t.UID == uid {
			return &t, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// FindTransactionForUpdate is a plain read; the sharded StoreTx holds the lock.
func (s *InMemoryStore) FindTransactionForUpdate(ctx context.Context, transactionID id.TransactionID) (*models.Transaction, error) {
	return s.FindTransaction(ctx, transactionID)
}

func (s *InMemoryStore) UpdateTransaction(_ context.Context, transaction *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[transaction.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.transactions[transaction.ID] = *transaction
	return nil
}

func (s *InMemoryStore) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.tasks[task.ID] = *task
	s.taskOrder = append(s.taskOrder, task.ID)
	return nil
}

func (s *InMemoryStore) UpdateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.tasks[task.ID] = *task
	return nil
}

func (s *InMemoryStore) FindOpenTask(_ context.Context, transactionID id.TransactionID) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.TransactionID == transactionID && t.IsOpen() {
			return &t, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListTasks(_ context.Context, transactionID id.TransactionID) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Task
	for _, taskID := range s.taskOrder {
		if t := s.tasks[taskID]; t.TransactionID == transactionID {
			out = append(out, &t)
		}
	}
	return out, nil
}
