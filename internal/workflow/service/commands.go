package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	regmodels "landrec/internal/registration/models"
	"landrec/internal/workflow/models"
	"landrec/internal/workflow/rules"
	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
	audit "landrec/pkg/platform/audit"
	"landrec/pkg/platform/sentinel"
	"landrec/pkg/requestcontext"
)

type recordAction int

const (
	recordNone recordAction = iota
	recordSign
	recordUnsign
)

// plan is what a command resolves to against the current transaction.
type plan struct {
	command  models.CommandType
	from     models.Status
	to       models.Status
	assignee *id.UserID
	record   recordAction
}

func (p *plan) movesStatus() bool {
	return p.from != p.to
}

type actor struct {
	id    id.UserID
	roles []string
}

func (a actor) has(role string) bool {
	return slices.Contains(a.roles, role)
}

func actorFrom(ctx context.Context) (actor, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return actor{}, dErrors.New(dErrors.CodeUnauthorized, "acting user is required")
	}
	return actor{id: userID, roles: requestcontext.UserRoles(ctx)}, nil
}

// ExecuteCommand applies cmd to one transaction: the open task is checked
// out, the transaction moves and a new task is opened. On any failure the
// transaction is left untouched.
func (s *Service) ExecuteCommand(ctx context.Context, transactionID id.TransactionID, cmd models.Command) (*models.Task, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.ExecuteCommand")
	defer span.End()
	span.SetAttributes(
		attribute.String("command", string(cmd.Type)),
		attribute.String("transaction_id", transactionID.String()),
	)

	task, err := s.executeCommand(ctx, transactionID, cmd)
	if err != nil {
		s.metrics.IncrementRejected(string(cmd.Type), string(dErrors.CodeOf(err)))
		s.logger.InfoContext(ctx, "workflow command rejected",
			"transaction_id", transactionID.String(),
			"command", string(cmd.Type),
			"code", string(dErrors.CodeOf(err)),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}
	return task, nil
}

func (s *Service) executeCommand(ctx context.Context, transactionID id.TransactionID, cmd models.Command) (*models.Task, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	who, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var task *models.Task
	err = s.tx.RunInTx(withLockKey(ctx, transactionID.String()), func(ctx context.Context, store Store) error {
		tr, err := store.FindTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return notFound(err, "transaction")
		}
		p, err := s.compile(ctx, store, tr, cmd, who)
		if err != nil {
			return err
		}
		if err := s.authorize(p, tr, who); err != nil {
			return err
		}
		record, err := s.checkGates(ctx, p, tr, false)
		if err != nil {
			return err
		}
		if err := s.applyRecordAction(ctx, p, record, cmd); err != nil {
			return err
		}
		task, err = s.apply(ctx, store, tr, p, cmd, who, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// AssertExecution runs every check ExecuteCommand runs, without writing.
func (s *Service) AssertExecution(ctx context.Context, transactionID id.TransactionID, cmd models.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	who, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	tr, err := s.store.FindTransaction(ctx, transactionID)
	if err != nil {
		return notFound(err, "transaction")
	}
	p, err := s.compile(ctx, s.store, tr, cmd, who)
	if err != nil {
		return err
	}
	if err := s.authorize(p, tr, who); err != nil {
		return err
	}
	_, err = s.checkGates(ctx, p, tr, true)
	return err
}

// ExecuteWorkflowCommand applies one command to many transactions. Every
// transaction is checked first and nothing is applied unless all pass; the
// moves themselves commit one transaction at a time.
func (s *Service) ExecuteWorkflowCommand(ctx context.Context, refs []string, cmd models.Command) ([]*models.Task, error) {
	if len(refs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one transaction is required")
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var targets []*models.Transaction
	seen := make(map[id.TransactionID]bool, len(refs))
	for _, ref := range refs {
		tr, err := s.ResolveTransaction(ctx, ref)
		if err != nil {
			return nil, err
		}
		if !seen[tr.ID] {
			seen[tr.ID] = true
			targets = append(targets, tr)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.preflight)
	for _, tr := range targets {
		g.Go(func() error {
			if err := s.AssertExecution(gctx, tr.ID, cmd); err != nil {
				return dErrors.Wrap(err, dErrors.CodeOf(err), "transaction "+tr.UID+" cannot take the command").
					WithDetail("transaction", tr.UID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.IncrementRejected(string(cmd.Type), string(dErrors.CodeOf(err)))
		return nil, err
	}

	tasks := make([]*models.Task, 0, len(targets))
	for _, tr := range targets {
		task, err := s.ExecuteCommand(ctx, tr.ID, cmd)
		if err != nil {
			return tasks, dErrors.Wrap(err, dErrors.CodeOf(err), "transaction "+tr.UID+" failed after preflight").
				WithDetail("transaction", tr.UID).
				WithDetail("applied", len(tasks))
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// compile resolves the target status, assignee and land record action.
func (s *Service) compile(ctx context.Context, store Store, tr *models.Transaction, cmd models.Command, who actor) (*plan, error) {
	p := &plan{command: cmd.Type, from: tr.Status, to: tr.Status, assignee: cmd.AssigneeID}

	switch cmd.Type {
	case models.CommandSetNextStatus:
		p.to = cmd.NextStatus
	case models.CommandReceive:
		p.to = models.StatusReceived
	case models.CommandReentry:
		p.to = models.StatusReentry
	case models.CommandAssignTo:
		if tr.Status.IsTerminal() {
			return nil, dErrors.New(dErrors.CodeIllegalTransition, "finished transactions cannot be reassigned").
				WithDetail("status", string(tr.Status))
		}
	case models.CommandPullToControlDesk:
		p.to = models.StatusControl
		p.assignee = &who.id
	case models.CommandReturnToMe:
		previous, err := previousTask(ctx, store, tr)
		if err != nil {
			return nil, err
		}
		if previous.AssigneeID == nil || *previous.AssigneeID != who.id {
			return nil, dErrors.New(dErrors.CodeNotAssignedToUser, "only the previous holder can take the transaction back").
				WithDetail("transaction", tr.UID)
		}
		if tr.AssigneeID != nil && !tr.IsAssignedTo(who.id) {
			return nil, dErrors.New(dErrors.CodeNotAssignedToUser, "transaction was already taken by another user").
				WithDetail("transaction", tr.UID)
		}
		p.to = previous.Status
		p.assignee = &who.id
	case models.CommandSign:
		p.to = models.StatusToDeliver
		if cmd.NextStatus != "" {
			p.to = cmd.NextStatus
		}
		p.record = recordSign
	case models.CommandUnsign:
		p.to = models.StatusRevision
		if cmd.NextStatus != "" {
			p.to = cmd.NextStatus
		}
		p.record = recordUnsign
	}

	if cmd.Type != models.CommandAssignTo && !p.movesStatus() {
		return nil, dErrors.New(dErrors.CodeIllegalTransition, "transaction is already in the target status").
			WithDetail("status", string(tr.Status))
	}
	return p, nil
}

// previousTask is the latest checked-out task held in a status other than
// the current one.
func previousTask(ctx context.Context, store Store, tr *models.Transaction) (*models.Task, error) {
	tasks, err := store.ListTasks(ctx, tr.ID)
	if err != nil {
		return nil, internal(err, "failed to load workflow history")
	}
	for i := len(tasks) - 1; i >= 0; i-- {
		if !tasks[i].IsOpen() && tasks[i].Status != tr.Status {
			return tasks[i], nil
		}
	}
	return nil, dErrors.New(dErrors.CodeIllegalTransition, "transaction has no previous status to return to")
}

func (s *Service) authorize(p *plan, tr *models.Transaction, who actor) error {
	supervisor := who.has(rules.RoleSupervisor)

	if !p.movesStatus() {
		if supervisor || who.has(rules.RoleControlDesk) || tr.IsAssignedTo(who.id) {
			return nil
		}
		return dErrors.New(dErrors.CodeNotAssignedToUser, "only the holder, the control desk or a supervisor can reassign").
			WithDetail("transaction", tr.UID)
	}

	move, ok := s.rules.Lookup(p.from, p.to)
	if !ok {
		allowed := make([]string, 0)
		for _, st := range s.rules.Next(p.from) {
			allowed = append(allowed, string(st))
		}
		return dErrors.New(dErrors.CodeIllegalTransition, "status is not reachable from the current status").
			WithDetail("from", string(p.from)).
			WithDetail("to", string(p.to)).
			WithDetail("allowed", allowed)
	}

	switch p.command {
	case models.CommandPullToControlDesk:
		if !supervisor && !who.has(rules.RoleControlDesk) {
			return notAssigned(tr, []string{rules.RoleControlDesk})
		}
		return nil
	case models.CommandReturnToMe:
		return nil
	case models.CommandSign, models.CommandUnsign:
		if !supervisor && !who.has(rules.RoleSigner) {
			return notAssigned(tr, []string{rules.RoleSigner})
		}
	default:
		if !move.Permits(who.roles) {
			return notAssigned(tr, move.Roles)
		}
	}

	if move.RequiresAssignee && tr.AssigneeID != nil && !tr.IsAssignedTo(who.id) && !supervisor {
		return dErrors.New(dErrors.CodeNotAssignedToUser, "transaction is assigned to another user").
			WithDetail("transaction", tr.UID).
			WithDetail("assignee", tr.AssigneeID.String())
	}
	return nil
}

func notAssigned(tr *models.Transaction, roles []string) error {
	return dErrors.New(dErrors.CodeNotAssignedToUser, "user lacks a role allowed to take this move").
		WithDetail("transaction", tr.UID).
		WithDetail("roles", roles)
}

// checkGates loads the transaction's land record and checks it against the
// target status. dryRun checks a Sign by validation instead of sealing.
func (s *Service) checkGates(ctx context.Context, p *plan, tr *models.Transaction, dryRun bool) (*regmodels.LandRecord, error) {
	if s.landRecords == nil {
		if p.record != recordNone {
			return nil, dErrors.New(dErrors.CodeInternal, "land record service is not configured")
		}
		return nil, nil
	}

	lr, err := s.landRecords.GetLandRecordByTransaction(ctx, tr.ID)
	switch {
	case err == nil:
	case dErrors.HasCode(err, dErrors.CodeNotFound), errors.Is(err, sentinel.ErrNotFound):
		lr = nil
	default:
		return nil, internal(err, "failed to load land record")
	}

	if p.record != recordNone && lr == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "transaction has no land record to sign").
			WithDetail("transaction", tr.UID)
	}
	switch p.record {
	case recordSign:
		if !lr.IsOpen() {
			return nil, dErrors.New(dErrors.CodeValidation, "land record is already sealed").
				WithDetail("land_record", lr.UID)
		}
		if dryRun {
			if err := s.landRecords.ValidateClosable(ctx, lr.ID); err != nil {
				return nil, err
			}
		}
		// Sealing happens on apply; the sealed gate below is satisfied by it.
		return lr, nil
	case recordUnsign:
		if !lr.IsSealed() {
			return nil, dErrors.New(dErrors.CodeValidation, "land record is not sealed").
				WithDetail("land_record", lr.UID)
		}
		return lr, nil
	}

	if lr == nil {
		return nil, nil
	}
	if p.to.RequiresClosableRecord() && lr.IsOpen() {
		if err := s.landRecords.ValidateClosable(ctx, lr.ID); err != nil {
			return nil, err
		}
	}
	if p.to.RequiresSealedRecord() && !lr.IsSealed() {
		return nil, dErrors.New(dErrors.CodeValidation, "land record must be sealed first").
			WithDetail("land_record", lr.UID).
			WithDetail("status", string(p.to))
	}
	return lr, nil
}

func (s *Service) applyRecordAction(ctx context.Context, p *plan, lr *regmodels.LandRecord, cmd models.Command) error {
	switch p.record {
	case recordSign:
		closeCmd := regmodels.CloseCommand{}
		if cmd.ManualHash != "" || cmd.ManualSignature != "" {
			closeCmd.Manual = &regmodels.ManualSeal{Hash: cmd.ManualHash, Signature: cmd.ManualSignature}
		}
		_, err := s.landRecords.Close(ctx, lr.ID, closeCmd)
		return err
	case recordUnsign:
		if lr.Security.IsSigned() {
			if _, err := s.landRecords.RemoveSignature(ctx, lr.ID); err != nil {
				return err
			}
		}
		_, err := s.landRecords.Open(ctx, lr.ID)
		return err
	}
	return nil
}

func (s *Service) apply(ctx context.Context, store Store, tr *models.Transaction, p *plan, cmd models.Command, who actor, now time.Time) (*models.Task, error) {
	current, err := store.FindOpenTask(ctx, tr.ID)
	switch {
	case err == nil:
		current.ApplyCheckOut(p.to, now)
		if err := store.UpdateTask(ctx, current); err != nil {
			return nil, internal(err, "failed to check out task")
		}
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return nil, internal(err, "failed to load current task")
	}

	if p.movesStatus() {
		tr.ApplyStatus(p.to, now)
	}
	tr.ApplyAssignee(p.assignee, now)
	if err := store.UpdateTransaction(ctx, tr); err != nil {
		return nil, internal(err, "failed to update transaction")
	}

	task := models.NewTask(id.TaskID(uuid.New()), tr, cmd.Type, cmd.Notes, who.id, now)
	if err := store.CreateTask(ctx, task); err != nil {
		return nil, internal(err, "failed to open task")
	}

	action := audit.EventWorkflowTransition
	if !p.movesStatus() {
		action = audit.EventWorkflowAssigned
	}
	attrs := map[string]string{
		"command": string(cmd.Type),
		"from":    string(p.from),
		"to":      string(p.to),
	}
	if tr.AssigneeID != nil {
		attrs["assignee"] = tr.AssigneeID.String()
	}
	if err := s.emit(ctx, audit.Event{
		Action:        string(action),
		AggregateType: "transaction",
		AggregateID:   tr.ID.String(),
		Subject:       tr.UID,
		Reason:        cmd.Notes,
		Attributes:    attrs,
	}); err != nil {
		return nil, err
	}

	if p.movesStatus() {
		s.metrics.IncrementTransition(string(p.from), string(p.to))
	}
	s.logger.InfoContext(ctx, "workflow command applied",
		"transaction_id", tr.ID.String(),
		"command", string(cmd.Type),
		"from", string(p.from),
		"to", string(p.to),
		"request_id", requestcontext.RequestID(ctx),
	)
	return task, nil
}
