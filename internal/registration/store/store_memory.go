package store

import (
	"context"
	"sort"
	"sync"

	"landrec/internal/registration/models"
	id "landrec/pkg/domain"
	"landrec/pkg/platform/sentinel"
)

// InMemoryStore keeps registration state in maps of values. Reads hand out
// copies so a failed operation cannot leave half-applied changes behind.
// Record-level serialization is the caller's StoreTx; this store only keeps
// its maps consistent.
type InMemoryStore struct {
	mu        sync.RWMutex
	resources map[id.ResourceID]models.Resource
	records   map[id.LandRecordID]models.LandRecord
	acts      map[id.RecordingActID]models.RecordingAct
	books     map[id.BookID]models.RecordingBook
	entries   map[id.BookEntryID]models.BookEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		resources: make(map[id.ResourceID]models.Resource),
		records:   make(map[id.LandRecordID]models.LandRecord),
		acts:      make(map[id.RecordingActID]models.RecordingAct),
		books:     make(map[id.BookID]models.RecordingBook),
		entries:   make(map[id.BookEntryID]models.BookEntry),
	}
}

func (s *InMemoryStore) CreateResource(_ context.Context, resource *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[resource.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.resources[resource.ID] = *resource
	return nil
}

func (s *InMemoryStore) FindResource(_ context.Context, resourceID id.ResourceID) (*models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[resourceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &r, nil
}

func (s *InMemoryStore) UpdateResource(_ context.Context, resource *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[resource.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.resources[resource.ID] = *resource
	return nil
}

func (s *InMemoryStore) CreateLandRecord(_ context.Context, record *models.LandRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.TransactionID == record.TransactionID || existing.ID == record.ID {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.records[record.ID] = *record
	return nil
}

func (s *InMemoryStore) FindLandRecord(_ context.Context, landRecordID id.LandRecordID) (*models.LandRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lr, ok := s.records[landRecordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &lr, nil
}

// FindLandRecordForUpdate is a plain read; the sharded StoreTx holds the lock.
func (s *InMemoryStore) FindLandRecordForUpdate(ctx context.Context, landRecordID id.LandRecordID) (*models.LandRecord, error) {
	return s.FindLandRecord(ctx, landRecordID)
}

func (s *InMemoryStore) FindLandRecordByTransaction(_ context.Context, transactionID id.TransactionID) (*models.LandRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, lr := range s.records {
		if lr.TransactionID == transactionID {
			return &lr, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) UpdateLandRecord(_ context.Context, record *models.LandRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[record.ID] = *record
	return nil
}

func (s *InMemoryStore) CreateRecordingAct(_ context.Context, act *models.RecordingAct) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.acts {
		if existing.LandRecordID == act.LandRecordID && existing.Index == act.Index {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.acts[act.ID] = *act
	return nil
}

func (s *InMemoryStore) FindRecordingAct(_ context.Context, actID id.RecordingActID) (*models.RecordingAct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.acts[actID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &a, nil
}

// FindRecordingActForShare is a plain read; the sharded StoreTx holds the
// antecedent's record lock.
func (s *InMemoryStore) FindRecordingActForShare(ctx context.Context, actID id.RecordingActID) (*models.RecordingAct, error) {
	return s.FindRecordingAct(ctx, actID)
}

func (s *InMemoryStore) FindRecordingActForUpdate(ctx context.Context, actID id.RecordingActID) (*models.RecordingAct, error) {
	return s.FindRecordingAct(ctx, actID)
}

func (s *InMemoryStore) UpdateRecordingAct(_ context.Context, act *models.RecordingAct) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.acts[act.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.acts[act.ID] = *act
	return nil
}

func (s *InMemoryStore) ListActsByLandRecord(_ context.Context, landRecordID id.LandRecordID) ([]*models.RecordingAct, error) {
	out := s.filterActs(func(a *models.RecordingAct) bool { return a.LandRecordID == landRecordID })
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (s *InMemoryStore) ListActsByResource(_ context.Context, resourceID id.ResourceID) ([]*models.RecordingAct, error) {
	return s.filterActs(func(a *models.RecordingAct) bool { return a.InvolvesResource(resourceID) }), nil
}

func (s *InMemoryStore) ListAmendmentsOf(_ context.Context, actID id.RecordingActID) ([]*models.RecordingAct, error) {
	return s.filterActs(func(a *models.RecordingAct) bool { return a.Amends(actID) }), nil
}

func (s *InMemoryStore) filterActs(keep func(a *models.RecordingAct) bool) []*models.RecordingAct {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.RecordingAct
	for _, a := range s.acts {
		if a.IsActive() && keep(&a) {
			out = append(out, &a)
		}
	}
	return out
}

func (s *InMemoryStore) CreateBook(_ context.Context, book *models.RecordingBook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.books {
		if existing.RecorderOffice == book.RecorderOffice && existing.BookNumber == book.BookNumber {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.books[book.ID] = *book
	return nil
}

func (s *InMemoryStore) FindBook(_ context.Context, bookID id.BookID) (*models.RecordingBook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[bookID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &b, nil
}

// LockBook is a no-op; the numbering.Locker serializes books in memory.
func (s *InMemoryStore) LockBook(context.Context, id.BookID) error {
	return nil
}

func (s *InMemoryStore) ListBookEntries(_ context.Context, bookID id.BookID) ([]*models.BookEntry, error) {
	out := s.filterEntries(func(e *models.BookEntry) bool { return e.BookID == bookID })
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// CreateBookEntry enforces the same rule as the partial unique index: one
// active entry per (book, number).
func (s *InMemoryStore) CreateBookEntry(_ context.Context, entry *models.BookEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.IsActive() {
		for _, existing := range s.entries {
			if existing.IsActive() && existing.BookID == entry.BookID && existing.Number == entry.Number {
				return sentinel.ErrAlreadyUsed
			}
		}
	}
	s.entries[entry.ID] = *entry
	return nil
}

func (s *InMemoryStore) FindBookEntry(_ context.Context, entryID id.BookEntryID) (*models.BookEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &e, nil
}

func (s *InMemoryStore) UpdateBookEntry(_ context.Context, entry *models.BookEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.entries[entry.ID] = *entry
	return nil
}

func (s *InMemoryStore) ListEntriesByLandRecord(_ context.Context, landRecordID id.LandRecordID) ([]*models.BookEntry, error) {
	out := s.filterEntries(func(e *models.BookEntry) bool {
		return e.IsActive() && e.LandRecordID == landRecordID
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].BookID != out[j].BookID {
			return out[i].BookID.String() < out[j].BookID.String()
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

func (s *InMemoryStore) filterEntries(keep func(e *models.BookEntry) bool) []*models.BookEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.BookEntry
	for _, e := range s.entries {
		if keep(&e) {
			out = append(out, &e)
		}
	}
	return out
}
