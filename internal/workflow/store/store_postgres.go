package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"landrec/internal/platform/postgres"
	"landrec/internal/workflow/models"
	id "landrec/pkg/domain"
	"landrec/pkg/platform/sentinel"
	txcontext "landrec/pkg/platform/tx"
)

// PostgresStore persists transactions and their task trail. Methods use
// the SQL transaction bound to ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) txcontext.Executor {
	return txcontext.Pick(ctx, s.db)
}

type scanner interface {
	Scan(dest ...any) error
}

func nullUser(v *id.UserID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}

func fromNullUser(n uuid.NullUUID) *id.UserID {
	if !n.Valid {
		return nil
	}
	v := id.UserID(n.UUID)
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func mapWriteErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", what, sentinel.ErrAlreadyUsed)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func mapReadErr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("%s: %w", what, err)
}

func requireRow(res sql.Result, err error, what string) error {
	if err != nil {
		return mapWriteErr(err, what)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Transactions

const transactionColumns = `id, uid, requester, recorder_office, document_kind, document_number,
	document_description, status, assignee_id, presentation_time, closing_time, delivery_time,
	return_time, reentry_count, last_reentry_time, created_at, updated_at`

func scanTransaction(row scanner) (*models.Transaction, error) {
	var (
		t                                    models.Transaction
		assignee                             uuid.NullUUID
		presentation, closing, delivery, ret sql.NullTime
		lastReentry                          sql.NullTime
	)
	if err := row.Scan((*uuid.UUID)(&t.ID), &t.UID, &t.Requester, &t.RecorderOffice,
		&t.Document.Kind, &t.Document.Number, &t.Document.Description, &t.Status, &assignee,
		&presentation, &closing, &delivery, &ret, &t.ReentryCount, &lastReentry,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.AssigneeID = fromNullUser(assignee)
	t.PresentationTime = fromNullTime(presentation)
	t.ClosingTime = fromNullTime(closing)
	t.DeliveryTime = fromNullTime(delivery)
	t.ReturnTime = fromNullTime(ret)
	t.LastReentryTime = fromNullTime(lastReentry)
	return &t, nil
}

func (s *PostgresStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		uuid.UUID(t.ID), t.UID, t.Requester, t.RecorderOffice,
		t.Document.Kind, t.Document.Number, t.Document.Description, string(t.Status), nullUser(t.AssigneeID),
		nullTime(t.PresentationTime), nullTime(t.ClosingTime), nullTime(t.DeliveryTime),
		nullTime(t.ReturnTime), t.ReentryCount, nullTime(t.LastReentryTime), t.CreatedAt, t.UpdatedAt)
	return mapWriteErr(err, "insert transaction")
}

func (s *PostgresStore) findTransaction(ctx context.Context, where string, arg any) (*models.Transaction, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE `+where, arg)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, mapReadErr(err, "find transaction")
	}
	return t, nil
}

func (s *PostgresStore) FindTransaction(ctx context.Context, transactionID id.TransactionID) (*models.Transaction, error) {
	return s.findTransaction(ctx, `id = $1`, uuid.UUID(transactionID))
}

func (s *PostgresStore) FindTransactionByUID(ctx context.Context, uid string) (*models.Transaction, error) {
	return s.findTransaction(ctx, `uid = $1`, uid)
}

func (s *PostgresStore) FindTransactionForUpdate(ctx context.Context, transactionID id.TransactionID) (*models.Transaction, error) {
	return s.findTransaction(ctx, `id = $1 FOR UPDATE`, uuid.UUID(transactionID))
}

func (s *PostgresStore) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE transactions
		SET status = $2, assignee_id = $3, presentation_time = $4, closing_time = $5,
			delivery_time = $6, return_time = $7, reentry_count = $8, last_reentry_time = $9,
			updated_at = $10
		WHERE id = $1`,
		uuid.UUID(t.ID), string(t.Status), nullUser(t.AssigneeID), nullTime(t.PresentationTime),
		nullTime(t.ClosingTime), nullTime(t.DeliveryTime), nullTime(t.ReturnTime), t.ReentryCount,
		nullTime(t.LastReentryTime), t.UpdatedAt)
	return requireRow(res, err, "update transaction")
}

// Tasks

const taskColumns = `id, transaction_id, status, next_status, assignee_id, command, notes, created_by,
	check_in, check_out`

func scanTask(row scanner) (*models.Task, error) {
	var (
		t                   models.Task
		assignee, createdBy uuid.NullUUID
		checkOut            sql.NullTime
	)
	if err := row.Scan((*uuid.UUID)(&t.ID), (*uuid.UUID)(&t.TransactionID), &t.Status, &t.NextStatus,
		&assignee, &t.Command, &t.Notes, &createdBy, &t.CheckIn, &checkOut); err != nil {
		return nil, err
	}
	t.AssigneeID = fromNullUser(assignee)
	if createdBy.Valid {
		t.CreatedBy = id.UserID(createdBy.UUID)
	}
	t.CheckOut = fromNullTime(checkOut)
	return &t, nil
}

func (s *PostgresStore) CreateTask(ctx context.Context, t *models.Task) error {
	createdBy := uuid.NullUUID{UUID: uuid.UUID(t.CreatedBy), Valid: !t.CreatedBy.IsNil()}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO workflow_tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(t.ID), uuid.UUID(t.TransactionID), string(t.Status), string(t.NextStatus),
		nullUser(t.AssigneeID), string(t.Command), t.Notes, createdBy, t.CheckIn, nullTime(t.CheckOut))
	return mapWriteErr(err, "insert workflow task")
}

func (s *PostgresStore) UpdateTask(ctx context.Context, t *models.Task) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE workflow_tasks
		SET next_status = $2, assignee_id = $3, notes = $4, check_out = $5
		WHERE id = $1`,
		uuid.UUID(t.ID), string(t.NextStatus), nullUser(t.AssigneeID), t.Notes, nullTime(t.CheckOut))
	return requireRow(res, err, "update workflow task")
}

func (s *PostgresStore) FindOpenTask(ctx context.Context, transactionID id.TransactionID) (*models.Task, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM workflow_tasks
		WHERE transaction_id = $1 AND check_out IS NULL`, uuid.UUID(transactionID))
	t, err := scanTask(row)
	if err != nil {
		return nil, mapReadErr(err, "find open task")
	}
	return t, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, transactionID id.TransactionID) ([]*models.Task, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+taskColumns+` FROM workflow_tasks
		WHERE transaction_id = $1
		ORDER BY seq ASC`, uuid.UUID(transactionID))
	if err != nil {
		return nil, fmt.Errorf("query workflow tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workflow task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workflow tasks: %w", err)
	}
	return tasks, nil
}
