//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"landrec/internal/registration/models"
	"landrec/internal/registration/store"
	id "landrec/pkg/domain"
	"landrec/pkg/platform/sentinel"
	txcontext "landrec/pkg/platform/tx"
	"landrec/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	runner   *txcontext.Runner
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.runner = txcontext.NewRunner(s.postgres.DB, 10*time.Second)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), containers.RegistryTables...))
	// Postgres keeps microseconds.
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresStoreSuite) seedRecord(ctx context.Context) *models.LandRecord {
	lr, err := models.NewLandRecord(id.LandRecordID(uuid.New()), id.TransactionID(uuid.New()), id.NewUID(id.UIDPrefixTransaction), models.Instrument{Kind: "deed", Number: "77"}, s.now, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateLandRecord(ctx, lr))
	return lr
}

func (s *PostgresStoreSuite) seedResource(ctx context.Context) *models.Resource {
	r, err := models.NewResource(id.ResourceID(uuid.New()), models.ResourceKindRealEstate, "Lot 3", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateResource(ctx, r))
	return r
}

func (s *PostgresStoreSuite) seedBook(ctx context.Context, number string) *models.RecordingBook {
	from := s.now.Add(-time.Hour)
	book, err := models.NewRecordingBook(id.BookID(uuid.New()), "Central", number, models.NumberingPolicyReuse, true, 1, &from, nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateBook(ctx, book))
	return book
}

func (s *PostgresStoreSuite) TestLandRecordRoundTrip() {
	ctx := context.Background()
	lr := s.seedRecord(ctx)

	lr.LastActIndex = 4
	at := s.now.Add(time.Minute)
	lr.ApplyClose(models.SecurityData{Digest: "abc", Seal: "token", Mode: models.SealModeElectronic, SignerID: "office", SignedAt: &at}, at)
	s.Require().NoError(s.store.UpdateLandRecord(ctx, lr))

	got, err := s.store.FindLandRecord(ctx, lr.ID)
	s.Require().NoError(err)
	s.Equal(models.LandRecordStatusClosed, got.Status)
	s.Equal(4, got.LastActIndex)
	s.Equal("token", got.Security.Seal)
	s.True(at.Equal(*got.AuthorizationTime))
	s.Equal("77", got.Instrument.Number)

	byTx, err := s.store.FindLandRecordByTransaction(ctx, lr.TransactionID)
	s.Require().NoError(err)
	s.Equal(lr.ID, byTx.ID)

	_, err = s.store.FindLandRecord(ctx, id.LandRecordID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUniqueConstraintsMapToAlreadyUsed() {
	ctx := context.Background()
	lr := s.seedRecord(ctx)

	dup, err := models.NewLandRecord(id.LandRecordID(uuid.New()), lr.TransactionID, lr.TransactionUID, models.Instrument{}, s.now, s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.CreateLandRecord(ctx, dup), sentinel.ErrAlreadyUsed)

	book := s.seedBook(ctx, "9")
	entry, err := models.NewBookEntry(id.BookEntryID(uuid.New()), book, 1, lr, nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateBookEntry(ctx, entry))

	clash, err := models.NewBookEntry(id.BookEntryID(uuid.New()), book, 1, lr, nil, s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.CreateBookEntry(ctx, clash), sentinel.ErrAlreadyUsed)

	entry.ApplyDelete()
	s.Require().NoError(s.store.UpdateBookEntry(ctx, entry))
	s.NoError(s.store.CreateBookEntry(ctx, clash), "partial index ignores deleted entries")
}

func (s *PostgresStoreSuite) TestActQueries() {
	ctx := context.Background()
	lr := s.seedRecord(ctx)
	parent := s.seedResource(ctx)
	child := s.seedResource(ctx)

	newAct := func(actType string) *models.RecordingAct {
		act, err := models.NewRecordingAct(id.RecordingActID(uuid.New()), actType, lr, parent.ID, id.UserID(uuid.New()), "", s.now)
		s.Require().NoError(err)
		act.Index = lr.NextActIndex()
		return act
	}
	partition := newAct("partition")
	partition.RelatedResourceID = &child.ID
	s.Require().NoError(s.store.CreateRecordingAct(ctx, partition))

	mortgage := newAct("mortgage")
	s.Require().NoError(s.store.CreateRecordingAct(ctx, mortgage))
	cancellation := newAct("mortgage_cancellation")
	cancellation.AmendmentOf = &mortgage.ID
	s.Require().NoError(s.store.CreateRecordingAct(ctx, cancellation))

	acts, err := s.store.ListActsByLandRecord(ctx, lr.ID)
	s.Require().NoError(err)
	s.Require().Len(acts, 3)
	s.Equal([]int{1, 2, 3}, []int{acts[0].Index, acts[1].Index, acts[2].Index})

	related, err := s.store.ListActsByResource(ctx, child.ID)
	s.Require().NoError(err)
	s.Require().Len(related, 1)
	s.Equal(partition.ID, related[0].ID)

	amendments, err := s.store.ListAmendmentsOf(ctx, mortgage.ID)
	s.Require().NoError(err)
	s.Require().Len(amendments, 1)
	s.Equal(cancellation.ID, amendments[0].ID)

	cancellation.ApplyDelete(s.now)
	s.Require().NoError(s.store.UpdateRecordingAct(ctx, cancellation))
	amendments, err = s.store.ListAmendmentsOf(ctx, mortgage.ID)
	s.Require().NoError(err)
	s.Empty(amendments)
}

func (s *PostgresStoreSuite) TestLockBookSerializesTransactions() {
	ctx := context.Background()
	book := s.seedBook(ctx, "11")

	const workers = 8
	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
				if err := s.store.LockBook(ctx, book.ID); err != nil {
					return err
				}
				n := inside.Add(1)
				for {
					m := maxSeen.Load()
					if n <= m || maxSeen.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()
	s.Equal(int32(1), maxSeen.Load())
}

func (s *PostgresStoreSuite) TestActShareLockBlocksUpdateLock() {
	ctx := context.Background()
	lr := s.seedRecord(ctx)
	parcel := s.seedResource(ctx)
	mortgage, err := models.NewRecordingAct(id.RecordingActID(uuid.New()), "mortgage", lr, parcel.ID, id.UserID(uuid.New()), "", s.now)
	s.Require().NoError(err)
	mortgage.Index = lr.NextActIndex()
	s.Require().NoError(s.store.CreateRecordingAct(ctx, mortgage))

	shared := make(chan struct{})
	var sharerDone, removerLocked atomic.Int64
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
			// Two amendments may hold the share lock together.
			if _, err := s.store.FindRecordingActForShare(ctx, mortgage.ID); err != nil {
				return err
			}
			if _, err := s.store.FindRecordingActForShare(ctx, mortgage.ID); err != nil {
				return err
			}
			close(shared)
			time.Sleep(100 * time.Millisecond)
			sharerDone.Store(time.Now().UnixNano())
			return nil
		})
		s.NoError(err)
	}()
	go func() {
		defer wg.Done()
		<-shared
		err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
			if _, err := s.store.FindRecordingActForUpdate(ctx, mortgage.ID); err != nil {
				return err
			}
			removerLocked.Store(time.Now().UnixNano())
			return nil
		})
		s.NoError(err)
	}()
	wg.Wait()
	s.GreaterOrEqual(removerLocked.Load(), sharerDone.Load())
}

func (s *PostgresStoreSuite) TestRolledBackWritesAreInvisible() {
	ctx := context.Background()
	var created id.ResourceID
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		r := s.seedResource(ctx)
		created = r.ID
		return sentinel.ErrInvalidState
	})
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.FindResource(ctx, created)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
