package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"landrec/internal/registration/catalog"
	regmetrics "landrec/internal/registration/metrics"
	regmodels "landrec/internal/registration/models"
	"landrec/internal/registration/seal"
	regservice "landrec/internal/registration/service"
	regstore "landrec/internal/registration/store"
	"landrec/internal/workflow/metrics"
	"landrec/internal/workflow/models"
	"landrec/internal/workflow/rules"
	"landrec/internal/workflow/store"
	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
	audit "landrec/pkg/platform/audit"
	"landrec/pkg/platform/audit/publisher"
	auditmemory "landrec/pkg/platform/audit/store/memory"
	"landrec/pkg/requestcontext"
)

type user struct {
	id    id.UserID
	roles []string
}

func newUser(roles ...string) user {
	return user{id: id.UserID(uuid.New()), roles: roles}
}

type ServiceSuite struct {
	suite.Suite
	store        *store.InMemoryStore
	audit        *auditmemory.InMemoryStore
	registration *regservice.Service
	service      *Service
	base         time.Time

	clerk      user
	desk       user
	recorder   user
	recorder2  user
	legal      user
	signer     user
	supervisor user
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.audit = auditmemory.NewInMemoryStore()
	s.base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	auditor := publisher.NewPublisher(s.audit)

	types, err := catalog.Default()
	s.Require().NoError(err)
	signer, err := seal.NewJWTSigner("test-secret", "Test Office", "office-seal")
	s.Require().NoError(err)
	registry := regstore.NewInMemoryStore()
	s.registration, err = regservice.New(regservice.NewShardedTx(registry, 0), registry, types,
		regservice.WithSigner(signer),
		regservice.WithTransactionReader(NewTransactionReader(s.store)),
		regservice.WithAuditPublisher(auditor),
		regservice.WithMetrics(regmetrics.NewWithRegisterer(prometheus.NewRegistry())),
	)
	s.Require().NoError(err)

	table, err := rules.Default()
	s.Require().NoError(err)
	s.service, err = New(NewShardedTx(s.store, 0), s.store, table,
		WithLandRecords(s.registration),
		WithAuditPublisher(auditor),
		WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
		WithPreflightConcurrency(2),
	)
	s.Require().NoError(err)

	s.clerk = newUser(rules.RoleClerk)
	s.desk = newUser(rules.RoleControlDesk)
	s.recorder = newUser(rules.RoleRecorder)
	s.recorder2 = newUser(rules.RoleRecorder)
	s.legal = newUser(rules.RoleLegal)
	s.signer = newUser(rules.RoleSigner)
	s.supervisor = newUser(rules.RoleSupervisor)
}

func (s *ServiceSuite) as(u user) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.base)
	return requestcontext.WithUser(ctx, u.id, u.roles)
}

func (s *ServiceSuite) newTransaction() *models.Transaction {
	tr, err := s.service.CreateTransaction(s.as(s.clerk), models.CreateTransactionCommand{
		Requester:      "Ana Morales",
		RecorderOffice: "Central",
		Document:       models.Document{Kind: "deed", Number: "1234"},
	})
	s.Require().NoError(err)
	return tr
}

func (s *ServiceSuite) exec(u user, tr *models.Transaction, cmd models.Command) (*models.Task, error) {
	return s.service.ExecuteCommand(s.as(u), tr.ID, cmd)
}

func (s *ServiceSuite) moveTo(u user, tr *models.Transaction, to models.Status, assignee *id.UserID) {
	_, err := s.exec(u, tr, models.Command{Type: models.CommandSetNextStatus, NextStatus: to, AssigneeID: assignee})
	s.Require().NoError(err)
}

func (s *ServiceSuite) status(tr *models.Transaction) models.Status {
	got, err := s.service.GetTransaction(context.Background(), tr.ID)
	s.Require().NoError(err)
	return got.Status
}

// inRecording brings a fresh transaction to Recording, held by s.recorder.
func (s *ServiceSuite) inRecording() *models.Transaction {
	tr := s.newTransaction()
	_, err := s.exec(s.clerk, tr, models.Command{Type: models.CommandReceive})
	s.Require().NoError(err)
	s.moveTo(s.clerk, tr, models.StatusRecording, &s.recorder.id)
	return tr
}

// withRegisteredAct gives tr a land record holding one pending act.
func (s *ServiceSuite) withRegisteredAct(tr *models.Transaction) *regmodels.LandRecord {
	state, err := s.registration.CreateLandRecord(s.as(s.recorder), regmodels.CreateLandRecordCommand{
		TransactionID: tr.ID,
		Instrument:    regmodels.Instrument{Kind: "deed", Number: "1234"},
	})
	s.Require().NoError(err)
	_, err = s.registration.Execute(s.as(s.recorder), state.LandRecord.ID, &regmodels.RegistrationCommand{
		Type:        "domain_transfer",
		NewResource: &regmodels.NewResourceSpec{Kind: regmodels.ResourceKindRealEstate, Description: "Lot 7"},
	})
	s.Require().NoError(err)
	return state.LandRecord
}

func (s *ServiceSuite) TestCreateTransaction() {
	s.Run("starts waiting for payment with an open task", func() {
		tr := s.newTransaction()
		s.Equal(models.StatusPayment, tr.Status)
		s.Contains(tr.UID, "TR-")

		task, err := s.service.CurrentTask(context.Background(), tr.ID)
		s.Require().NoError(err)
		s.Equal(models.CommandCreate, task.Command)
		s.Equal(models.StatusPayment, task.Status)
		s.Equal(s.clerk.id, task.CreatedBy)

		events, err := s.audit.ListByAggregate(context.Background(), "transaction", tr.ID.String())
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventTransactionCreated), events[0].Action)
		s.Equal(audit.CategoryWorkflow, events[0].Category)
	})

	s.Run("requester is required", func() {
		_, err := s.service.CreateTransaction(s.as(s.clerk), models.CreateTransactionCommand{RecorderOffice: "Central"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("acting user is required", func() {
		_, err := s.service.CreateTransaction(context.Background(), models.CreateTransactionCommand{
			Requester: "Ana Morales", RecorderOffice: "Central",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("resolves by uid or uuid", func() {
		tr := s.newTransaction()
		byUID, err := s.service.ResolveTransaction(context.Background(), tr.UID)
		s.Require().NoError(err)
		s.Equal(tr.ID, byUID.ID)

		byID, err := s.service.ResolveTransaction(context.Background(), tr.ID.String())
		s.Require().NoError(err)
		s.Equal(tr.UID, byID.UID)

		_, err = s.service.ResolveTransaction(context.Background(), "TR-000000000000")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestStatusMoves() {
	s.Run("receive stamps presentation and checks out the task", func() {
		tr := s.newTransaction()
		task, err := s.exec(s.clerk, tr, models.Command{Type: models.CommandReceive})
		s.Require().NoError(err)
		s.Equal(models.StatusReceived, task.Status)
		s.True(task.IsOpen())

		got, err := s.service.GetTransaction(context.Background(), tr.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusReceived, got.Status)
		s.Require().NotNil(got.PresentationTime)
		s.Equal(s.base, *got.PresentationTime)

		history, err := s.service.History(context.Background(), tr.ID)
		s.Require().NoError(err)
		s.Require().Len(history, 2)
		s.False(history[0].IsOpen())
		s.Equal(models.StatusReceived, history[0].NextStatus)
		s.True(history[1].IsOpen())
	})

	s.Run("unreachable status is rejected and nothing changes", func() {
		tr := s.newTransaction()
		_, err := s.exec(s.supervisor, tr, models.Command{Type: models.CommandSetNextStatus, NextStatus: models.StatusControl})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeIllegalTransition))
		s.ElementsMatch([]string{"Received", "Deleted"}, dErrors.Details(err)["allowed"])
		s.Equal(models.StatusPayment, s.status(tr))

		history, err := s.service.History(context.Background(), tr.ID)
		s.Require().NoError(err)
		s.Len(history, 1)
	})

	s.Run("next status is required", func() {
		tr := s.newTransaction()
		_, err := s.exec(s.clerk, tr, models.Command{Type: models.CommandSetNextStatus})
		s.True(dErrors.HasCode(err, dErrors.CodeUndefinedNextStatus))
	})

	s.Run("roles outside the rule are rejected", func() {
		tr := s.newTransaction()
		_, err := s.exec(s.recorder, tr, models.Command{Type: models.CommandReceive})
		s.True(dErrors.HasCode(err, dErrors.CodeNotAssignedToUser))
		s.Equal(models.StatusPayment, s.status(tr))
	})

	s.Run("held transactions only move for the holder or a supervisor", func() {
		tr := s.inRecording()
		_, err := s.exec(s.recorder2, tr, models.Command{Type: models.CommandSetNextStatus, NextStatus: models.StatusControl})
		s.True(dErrors.HasCode(err, dErrors.CodeNotAssignedToUser))

		s.moveTo(s.supervisor, tr, models.StatusControl, nil)
		s.Equal(models.StatusControl, s.status(tr))
	})

	s.Run("same status is not a move", func() {
		tr := s.newTransaction()
		_, err := s.exec(s.clerk, tr, models.Command{Type: models.CommandSetNextStatus, NextStatus: models.StatusPayment})
		s.True(dErrors.HasCode(err, dErrors.CodeIllegalTransition))
	})

	s.Run("returns and reentries are stamped", func() {
		tr := s.newTransaction()
		_, err := s.exec(s.clerk, tr, models.Command{Type: models.CommandReceive})
		s.Require().NoError(err)
		s.moveTo(s.clerk, tr, models.StatusToReturn, nil)
		s.moveTo(s.clerk, tr, models.StatusReturned, nil)
		_, err = s.exec(s.clerk, tr, models.Command{Type: models.CommandReentry})
		s.Require().NoError(err)

		got, err := s.service.GetTransaction(context.Background(), tr.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusReentry, got.Status)
		s.Equal(1, got.ReentryCount)
		s.NotNil(got.ReturnTime)
		s.NotNil(got.LastReentryTime)
		s.Nil(got.ClosingTime)
	})

	s.Run("deleted transactions are closed and frozen", func() {
		tr := s.newTransaction()
		s.moveTo(s.clerk, tr, models.StatusDeleted, nil)

		got, err := s.service.GetTransaction(context.Background(), tr.ID)
		s.Require().NoError(err)
		s.NotNil(got.ClosingTime)

		_, err = s.exec(s.supervisor, tr, models.Command{Type: models.CommandAssignTo, AssigneeID: &s.clerk.id})
		s.True(dErrors.HasCode(err, dErrors.CodeIllegalTransition))
		_, err = s.exec(s.supervisor, tr, models.Command{Type: models.CommandReceive})
		s.True(dErrors.HasCode(err, dErrors.CodeIllegalTransition))
	})
}

func (s *ServiceSuite) TestAssignment() {
	s.Run("control desk reassigns without moving", func() {
		tr := s.inRecording()
		task, err := s.exec(s.desk, tr, models.Command{Type: models.CommandAssignTo, AssigneeID: &s.recorder2.id})
		s.Require().NoError(err)
		s.Equal(models.StatusRecording, task.Status)
		s.Require().NotNil(task.AssigneeID)
		s.Equal(s.recorder2.id, *task.AssigneeID)

		events, err := s.audit.ListByAggregate(context.Background(), "transaction", tr.ID.String())
		s.Require().NoError(err)
		s.Equal(string(audit.EventWorkflowAssigned), events[len(events)-1].Action)
	})

	s.Run("others cannot reassign", func() {
		tr := s.inRecording()
		_, err := s.exec(s.recorder2, tr, models.Command{Type: models.CommandAssignTo, AssigneeID: &s.recorder2.id})
		s.True(dErrors.HasCode(err, dErrors.CodeNotAssignedToUser))
	})

	s.Run("pull to control desk", func() {
		tr := s.inRecording()
		_, err := s.exec(s.recorder, tr, models.Command{Type: models.CommandPullToControlDesk})
		s.True(dErrors.HasCode(err, dErrors.CodeNotAssignedToUser))

		_, err = s.exec(s.desk, tr, models.Command{Type: models.CommandPullToControlDesk})
		s.Require().NoError(err)
		got, err := s.service.GetTransaction(context.Background(), tr.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusControl, got.Status)
		s.True(got.IsAssignedTo(s.desk.id))
	})

	s.Run("return to me restores the previous holder's status", func() {
		tr := s.inRecording()
		s.moveTo(s.recorder, tr, models.StatusControl, nil)

		_, err := s.exec(s.recorder2, tr, models.Command{Type: models.CommandReturnToMe})
		s.True(dErrors.HasCode(err, dErrors.CodeNotAssignedToUser))

		_, err = s.exec(s.recorder, tr, models.Command{Type: models.CommandReturnToMe})
		s.Require().NoError(err)
		got, err := s.service.GetTransaction(context.Background(), tr.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusRecording, got.Status)
		s.True(got.IsAssignedTo(s.recorder.id))
	})
}

func (s *ServiceSuite) TestLandRecordGates() {
	s.Run("on sign requires a closable record", func() {
		tr := s.inRecording()
		_, err := s.registration.CreateLandRecord(s.as(s.recorder), regmodels.CreateLandRecordCommand{
			TransactionID: tr.ID,
			Instrument:    regmodels.Instrument{Kind: "deed", Number: "1"},
		})
		s.Require().NoError(err)
		s.moveTo(s.recorder, tr, models.StatusRevision, &s.legal.id)

		_, err = s.exec(s.legal, tr, models.Command{Type: models.CommandSetNextStatus, NextStatus: models.StatusOnSign})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(models.StatusRevision, s.status(tr))
	})

	s.Run("sign seals the record and unsign reopens it", func() {
		tr := s.inRecording()
		lr := s.withRegisteredAct(tr)
		s.moveTo(s.recorder, tr, models.StatusRevision, &s.legal.id)
		s.moveTo(s.legal, tr, models.StatusOnSign, nil)

		_, err := s.exec(s.signer, tr, models.Command{Type: models.CommandSetNextStatus, NextStatus: models.StatusToDeliver})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation), "record is not sealed yet")

		_, err = s.exec(s.clerk, tr, models.Command{Type: models.CommandSign})
		s.True(dErrors.HasCode(err, dErrors.CodeNotAssignedToUser))

		s.Require().NoError(s.service.AssertExecution(s.as(s.signer), tr.ID, models.Command{Type: models.CommandSign}))
		s.Equal(models.StatusOnSign, s.status(tr), "assertion does not write")

		_, err = s.exec(s.signer, tr, models.Command{Type: models.CommandSign})
		s.Require().NoError(err)
		s.Equal(models.StatusToDeliver, s.status(tr))
		sealed, err := s.registration.GetLandRecord(context.Background(), lr.ID)
		s.Require().NoError(err)
		s.True(sealed.LandRecord.IsSealed())
		s.True(sealed.LandRecord.Security.IsSigned())

		_, err = s.exec(s.signer, tr, models.Command{Type: models.CommandUnsign})
		s.Require().NoError(err)
		s.Equal(models.StatusRevision, s.status(tr))
		reopened, err := s.registration.GetLandRecord(context.Background(), lr.ID)
		s.Require().NoError(err)
		s.True(reopened.LandRecord.IsOpen())
	})

	s.Run("sign needs a land record", func() {
		tr := s.newTransaction()
		_, err := s.exec(s.clerk, tr, models.Command{Type: models.CommandReceive})
		s.Require().NoError(err)
		s.moveTo(s.desk, tr, models.StatusControl, nil)
		s.moveTo(s.desk, tr, models.StatusOnSign, nil)

		_, err = s.exec(s.signer, tr, models.Command{Type: models.CommandSign})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("transactions without a record pass the gates", func() {
		tr := s.newTransaction()
		_, err := s.exec(s.clerk, tr, models.Command{Type: models.CommandReceive})
		s.Require().NoError(err)
		s.moveTo(s.clerk, tr, models.StatusDigitalization, nil)
		s.moveTo(s.clerk, tr, models.StatusToDeliver, nil)
		s.moveTo(s.clerk, tr, models.StatusDelivered, nil)

		got, err := s.service.GetTransaction(context.Background(), tr.ID)
		s.Require().NoError(err)
		s.NotNil(got.DeliveryTime)
		s.NotNil(got.ClosingTime)
	})
}

func (s *ServiceSuite) TestExecuteWorkflowCommand() {
	s.Run("applies to every transaction once", func() {
		a, b := s.newTransaction(), s.newTransaction()
		tasks, err := s.service.ExecuteWorkflowCommand(s.as(s.clerk), []string{a.UID, b.ID.String(), a.ID.String()},
			models.Command{Type: models.CommandReceive})
		s.Require().NoError(err)
		s.Len(tasks, 2)
		s.Equal(models.StatusReceived, s.status(a))
		s.Equal(models.StatusReceived, s.status(b))
	})

	s.Run("one failing preflight applies nothing", func() {
		a, b := s.newTransaction(), s.newTransaction()
		_, err := s.exec(s.clerk, b, models.Command{Type: models.CommandReceive})
		s.Require().NoError(err)

		_, err = s.service.ExecuteWorkflowCommand(s.as(s.clerk), []string{a.UID, b.UID},
			models.Command{Type: models.CommandReceive})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeIllegalTransition))
		s.Equal(b.UID, dErrors.Details(err)["transaction"])
		s.Equal(models.StatusPayment, s.status(a))
	})

	s.Run("unknown references fail before preflight", func() {
		a := s.newTransaction()
		_, err := s.service.ExecuteWorkflowCommand(s.as(s.clerk), []string{a.UID, "TR-FFFFFFFFFFFF"},
			models.Command{Type: models.CommandReceive})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal(models.StatusPayment, s.status(a))
	})

	s.Run("empty batch is rejected", func() {
		_, err := s.service.ExecuteWorkflowCommand(s.as(s.clerk), nil, models.Command{Type: models.CommandReceive})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestTransactionReader() {
	reader := NewTransactionReader(s.store)
	tr := s.newTransaction()

	info, err := reader.GetTransactionInfo(context.Background(), tr.ID)
	s.Require().NoError(err)
	s.False(info.Registrable)
	s.False(info.Terminal)

	_, err = s.exec(s.clerk, tr, models.Command{Type: models.CommandReceive})
	s.Require().NoError(err)
	info, err = reader.GetTransactionInfo(context.Background(), tr.ID)
	s.Require().NoError(err)
	s.True(info.Registrable)
	s.Equal(tr.UID, info.UID)

	_, err = reader.GetTransactionInfo(context.Background(), id.TransactionID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
