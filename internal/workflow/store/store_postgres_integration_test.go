//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"landrec/internal/workflow/models"
	"landrec/internal/workflow/store"
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
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresStoreSuite) seedTransaction(ctx context.Context) *models.Transaction {
	tr, err := models.NewTransaction(id.TransactionID(uuid.New()), "Ana Morales", "Central",
		models.Document{Kind: "deed", Number: "12", Description: "sale"}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateTransaction(ctx, tr))
	return tr
}

func (s *PostgresStoreSuite) TestTransactionRoundTrip() {
	ctx := context.Background()
	tr := s.seedTransaction(ctx)

	assignee := id.UserID(uuid.New())
	at := s.now.Add(time.Minute)
	tr.ApplyStatus(models.StatusReceived, at)
	tr.ApplyAssignee(&assignee, at)
	s.Require().NoError(s.store.UpdateTransaction(ctx, tr))

	got, err := s.store.FindTransactionByUID(ctx, tr.UID)
	s.Require().NoError(err)
	s.Equal(models.StatusReceived, got.Status)
	s.Require().NotNil(got.AssigneeID)
	s.Equal(assignee, *got.AssigneeID)
	s.Require().NotNil(got.PresentationTime)
	s.True(at.Equal(*got.PresentationTime))
	s.Nil(got.ClosingTime)
	s.Equal("sale", got.Document.Description)

	dup := *tr
	dup.ID = id.TransactionID(uuid.New())
	s.True(errors.Is(s.store.CreateTransaction(ctx, &dup), sentinel.ErrAlreadyUsed))
}

func (s *PostgresStoreSuite) TestTaskTrail() {
	ctx := context.Background()
	tr := s.seedTransaction(ctx)
	creator := id.UserID(uuid.New())

	first := models.NewTask(id.TaskID(uuid.New()), tr, models.CommandCreate, "", creator, s.now)
	s.Require().NoError(s.store.CreateTask(ctx, first))

	second := models.NewTask(id.TaskID(uuid.New()), tr, models.CommandReceive, "", creator, s.now)
	s.True(errors.Is(s.store.CreateTask(ctx, second), sentinel.ErrAlreadyUsed), "one open task per transaction")

	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		first.ApplyCheckOut(models.StatusReceived, s.now)
		if err := s.store.UpdateTask(ctx, first); err != nil {
			return err
		}
		return s.store.CreateTask(ctx, second)
	})
	s.Require().NoError(err)

	open, err := s.store.FindOpenTask(ctx, tr.ID)
	s.Require().NoError(err)
	s.Equal(second.ID, open.ID)

	tasks, err := s.store.ListTasks(ctx, tr.ID)
	s.Require().NoError(err)
	s.Require().Len(tasks, 2)
	s.Equal(first.ID, tasks[0].ID)
	s.Equal(models.StatusReceived, tasks[0].NextStatus)
	s.Equal(creator, tasks[0].CreatedBy)
}

func (s *PostgresStoreSuite) TestRollback() {
	ctx := context.Background()
	tr := s.seedTransaction(ctx)

	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		locked, err := s.store.FindTransactionForUpdate(ctx, tr.ID)
		if err != nil {
			return err
		}
		locked.ApplyStatus(models.StatusDeleted, s.now)
		if err := s.store.UpdateTransaction(ctx, locked); err != nil {
			return err
		}
		return errors.New("abort")
	})
	s.Require().Error(err)

	got, err := s.store.FindTransaction(ctx, tr.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPayment, got.Status)
}
