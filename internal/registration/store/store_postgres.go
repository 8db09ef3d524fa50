package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"landrec/internal/platform/postgres"
	"landrec/internal/registration/models"
	id "landrec/pkg/domain"
	"landrec/pkg/platform/sentinel"
	txcontext "landrec/pkg/platform/tx"
)

// PostgresStore persists registration state. Every method runs on the SQL
// transaction bound to ctx when there is one.
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

func nullUUID[T ~[16]byte](v *T) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}

func fromNullUUID[T ~[16]byte](n uuid.NullUUID) *T {
	if !n.Valid {
		return nil
	}
	v := T(n.UUID)
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

// Resources

const resourceColumns = `id, uid, kind, status, description, partition_of, merged_into, created_at, updated_at`

func scanResource(row scanner) (*models.Resource, error) {
	var (
		r                       models.Resource
		partitionOf, mergedInto uuid.NullUUID
	)
	if err := row.Scan((*uuid.UUID)(&r.ID), &r.UID, &r.Kind, &r.Status, &r.Description,
		&partitionOf, &mergedInto, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.PartitionOf = fromNullUUID[id.ResourceID](partitionOf)
	r.MergedInto = fromNullUUID[id.ResourceID](mergedInto)
	return &r, nil
}

func (s *PostgresStore) CreateResource(ctx context.Context, r *models.Resource) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO resources (`+resourceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(r.ID), r.UID, string(r.Kind), string(r.Status), r.Description,
		nullUUID(r.PartitionOf), nullUUID(r.MergedInto), r.CreatedAt, r.UpdatedAt)
	return mapWriteErr(err, "insert resource")
}

func (s *PostgresStore) FindResource(ctx context.Context, resourceID id.ResourceID) (*models.Resource, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = $1`, uuid.UUID(resourceID))
	r, err := scanResource(row)
	if err != nil {
		return nil, mapReadErr(err, "find resource")
	}
	return r, nil
}

func (s *PostgresStore) UpdateResource(ctx context.Context, r *models.Resource) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE resources
		SET status = $2, description = $3, partition_of = $4, merged_into = $5, updated_at = $6
		WHERE id = $1`,
		uuid.UUID(r.ID), string(r.Status), r.Description, nullUUID(r.PartitionOf), nullUUID(r.MergedInto), r.UpdatedAt)
	return requireRow(res, err, "update resource")
}

// Land records

const landRecordColumns = `id, uid, transaction_id, transaction_uid, instrument_kind, instrument_number,
	instrument_issuer, status, presentation_time, authorization_time, last_act_index, digest, seal,
	seal_mode, signer_id, signed_at, manual_hash, manual_signature, created_at, updated_at`

func scanLandRecord(row scanner) (*models.LandRecord, error) {
	var (
		lr                      models.LandRecord
		authorization, signedAt sql.NullTime
	)
	if err := row.Scan((*uuid.UUID)(&lr.ID), &lr.UID, (*uuid.UUID)(&lr.TransactionID), &lr.TransactionUID,
		&lr.Instrument.Kind, &lr.Instrument.Number, &lr.Instrument.Issuer, &lr.Status, &lr.PresentationTime,
		&authorization, &lr.LastActIndex, &lr.Security.Digest, &lr.Security.Seal, &lr.Security.Mode,
		&lr.Security.SignerID, &signedAt, &lr.Security.ManualHash, &lr.Security.ManualSignature,
		&lr.CreatedAt, &lr.UpdatedAt); err != nil {
		return nil, err
	}
	lr.AuthorizationTime = fromNullTime(authorization)
	lr.Security.SignedAt = fromNullTime(signedAt)
	return &lr, nil
}

func (s *PostgresStore) CreateLandRecord(ctx context.Context, lr *models.LandRecord) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO land_records (`+landRecordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		uuid.UUID(lr.ID), lr.UID, uuid.UUID(lr.TransactionID), lr.TransactionUID,
		lr.Instrument.Kind, lr.Instrument.Number, lr.Instrument.Issuer, string(lr.Status), lr.PresentationTime,
		nullTime(lr.AuthorizationTime), lr.LastActIndex, lr.Security.Digest, lr.Security.Seal,
		string(lr.Security.Mode), lr.Security.SignerID, nullTime(lr.Security.SignedAt),
		lr.Security.ManualHash, lr.Security.ManualSignature, lr.CreatedAt, lr.UpdatedAt)
	return mapWriteErr(err, "insert land record")
}

func (s *PostgresStore) findLandRecord(ctx context.Context, where string, arg any) (*models.LandRecord, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+landRecordColumns+` FROM land_records WHERE `+where, arg)
	lr, err := scanLandRecord(row)
	if err != nil {
		return nil, mapReadErr(err, "find land record")
	}
	return lr, nil
}

func (s *PostgresStore) FindLandRecord(ctx context.Context, landRecordID id.LandRecordID) (*models.LandRecord, error) {
	return s.findLandRecord(ctx, `id = $1`, uuid.UUID(landRecordID))
}

func (s *PostgresStore) FindLandRecordForUpdate(ctx context.Context, landRecordID id.LandRecordID) (*models.LandRecord, error) {
	return s.findLandRecord(ctx, `id = $1 FOR UPDATE`, uuid.UUID(landRecordID))
}

func (s *PostgresStore) FindLandRecordByTransaction(ctx context.Context, transactionID id.TransactionID) (*models.LandRecord, error) {
	return s.findLandRecord(ctx, `transaction_id = $1`, uuid.UUID(transactionID))
}

func (s *PostgresStore) UpdateLandRecord(ctx context.Context, lr *models.LandRecord) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE land_records
		SET status = $2, authorization_time = $3, last_act_index = $4, digest = $5, seal = $6,
			seal_mode = $7, signer_id = $8, signed_at = $9, manual_hash = $10, manual_signature = $11,
			updated_at = $12
		WHERE id = $1`,
		uuid.UUID(lr.ID), string(lr.Status), nullTime(lr.AuthorizationTime), lr.LastActIndex,
		lr.Security.Digest, lr.Security.Seal, string(lr.Security.Mode), lr.Security.SignerID,
		nullTime(lr.Security.SignedAt), lr.Security.ManualHash, lr.Security.ManualSignature, lr.UpdatedAt)
	return requireRow(res, err, "update land record")
}

// Recording acts

const actColumns = `id, uid, act_type, act_index, status, land_record_id, resource_id, related_resource_id,
	amendment_of, book_entry_id, notes, created_by, created_at, updated_at`

func scanAct(row scanner) (*models.RecordingAct, error) {
	var (
		a                                  models.RecordingAct
		related, amendment, entry, creator uuid.NullUUID
	)
	if err := row.Scan((*uuid.UUID)(&a.ID), &a.UID, &a.Type, &a.Index, &a.Status,
		(*uuid.UUID)(&a.LandRecordID), (*uuid.UUID)(&a.ResourceID), &related, &amendment, &entry,
		&a.Notes, &creator, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.RelatedResourceID = fromNullUUID[id.ResourceID](related)
	a.AmendmentOf = fromNullUUID[id.RecordingActID](amendment)
	a.BookEntryID = fromNullUUID[id.BookEntryID](entry)
	if creator.Valid {
		a.CreatedBy = id.UserID(creator.UUID)
	}
	return &a, nil
}

func (s *PostgresStore) queryActs(ctx context.Context, query string, args ...any) ([]*models.RecordingAct, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recording acts: %w", err)
	}
	defer rows.Close()

	var acts []*models.RecordingAct
	for rows.Next() {
		a, err := scanAct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recording act: %w", err)
		}
		acts = append(acts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recording acts: %w", err)
	}
	return acts, nil
}

func (s *PostgresStore) CreateRecordingAct(ctx context.Context, a *models.RecordingAct) error {
	var creator uuid.NullUUID
	if !a.CreatedBy.IsNil() {
		creator = uuid.NullUUID{UUID: uuid.UUID(a.CreatedBy), Valid: true}
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO recording_acts (`+actColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		uuid.UUID(a.ID), a.UID, a.Type, a.Index, string(a.Status), uuid.UUID(a.LandRecordID),
		uuid.UUID(a.ResourceID), nullUUID(a.RelatedResourceID), nullUUID(a.AmendmentOf),
		nullUUID(a.BookEntryID), a.Notes, creator, a.CreatedAt, a.UpdatedAt)
	return mapWriteErr(err, "insert recording act")
}

func (s *PostgresStore) findAct(ctx context.Context, where string, actID id.RecordingActID) (*models.RecordingAct, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+actColumns+` FROM recording_acts WHERE `+where, uuid.UUID(actID))
	a, err := scanAct(row)
	if err != nil {
		return nil, mapReadErr(err, "find recording act")
	}
	return a, nil
}

func (s *PostgresStore) FindRecordingAct(ctx context.Context, actID id.RecordingActID) (*models.RecordingAct, error) {
	return s.findAct(ctx, `id = $1`, actID)
}

// FindRecordingActForShare blocks removal of the act until the transaction
// ends while letting other amendments reference it concurrently.
func (s *PostgresStore) FindRecordingActForShare(ctx context.Context, actID id.RecordingActID) (*models.RecordingAct, error) {
	return s.findAct(ctx, `id = $1 FOR SHARE`, actID)
}

func (s *PostgresStore) FindRecordingActForUpdate(ctx context.Context, actID id.RecordingActID) (*models.RecordingAct, error) {
	return s.findAct(ctx, `id = $1 FOR UPDATE`, actID)
}

func (s *PostgresStore) UpdateRecordingAct(ctx context.Context, a *models.RecordingAct) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE recording_acts
		SET act_type = $2, status = $3, related_resource_id = $4, amendment_of = $5, book_entry_id = $6,
			notes = $7, updated_at = $8
		WHERE id = $1`,
		uuid.UUID(a.ID), a.Type, string(a.Status), nullUUID(a.RelatedResourceID), nullUUID(a.AmendmentOf),
		nullUUID(a.BookEntryID), a.Notes, a.UpdatedAt)
	return requireRow(res, err, "update recording act")
}

func (s *PostgresStore) ListActsByLandRecord(ctx context.Context, landRecordID id.LandRecordID) ([]*models.RecordingAct, error) {
	return s.queryActs(ctx, `
		SELECT `+actColumns+` FROM recording_acts
		WHERE land_record_id = $1 AND status <> 'deleted'
		ORDER BY act_index`, uuid.UUID(landRecordID))
}

func (s *PostgresStore) ListActsByResource(ctx context.Context, resourceID id.ResourceID) ([]*models.RecordingAct, error) {
	return s.queryActs(ctx, `
		SELECT `+actColumns+` FROM recording_acts
		WHERE (resource_id = $1 OR related_resource_id = $1) AND status <> 'deleted'`, uuid.UUID(resourceID))
}

func (s *PostgresStore) ListAmendmentsOf(ctx context.Context, actID id.RecordingActID) ([]*models.RecordingAct, error) {
	return s.queryActs(ctx, `
		SELECT `+actColumns+` FROM recording_acts
		WHERE amendment_of = $1 AND status <> 'deleted'`, uuid.UUID(actID))
}

// Books

const bookColumns = `id, uid, recorder_office, book_number, policy, perpetual, start_index, control_from, control_to, created_at`

func (s *PostgresStore) CreateBook(ctx context.Context, b *models.RecordingBook) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO recording_books (`+bookColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(b.ID), b.UID, b.RecorderOffice, b.BookNumber, string(b.Policy), b.Perpetual, b.StartIndex,
		nullTime(b.ControlFrom), nullTime(b.ControlTo), b.CreatedAt)
	return mapWriteErr(err, "insert recording book")
}

func (s *PostgresStore) FindBook(ctx context.Context, bookID id.BookID) (*models.RecordingBook, error) {
	var (
		b        models.RecordingBook
		from, to sql.NullTime
	)
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT `+bookColumns+` FROM recording_books WHERE id = $1`, uuid.UUID(bookID)).
		Scan((*uuid.UUID)(&b.ID), &b.UID, &b.RecorderOffice, &b.BookNumber, &b.Policy, &b.Perpetual,
			&b.StartIndex, &from, &to, &b.CreatedAt)
	if err != nil {
		return nil, mapReadErr(err, "find recording book")
	}
	b.ControlFrom = fromNullTime(from)
	b.ControlTo = fromNullTime(to)
	return &b, nil
}

// LockBook takes a transaction-scoped advisory lock keyed by the book. It is
// released on commit or rollback.
func (s *PostgresStore) LockBook(ctx context.Context, bookID id.BookID) error {
	if _, err := s.execer(ctx).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "book:"+bookID.String()); err != nil {
		return fmt.Errorf("lock recording book: %w", err)
	}
	return nil
}

const entryColumns = `id, uid, book_id, number, land_record_id, status, presentation_time, authorization_time, created_at`

func scanEntry(row scanner) (*models.BookEntry, error) {
	var (
		e             models.BookEntry
		authorization sql.NullTime
	)
	if err := row.Scan((*uuid.UUID)(&e.ID), &e.UID, (*uuid.UUID)(&e.BookID), &e.Number,
		(*uuid.UUID)(&e.LandRecordID), &e.Status, &e.PresentationTime, &authorization, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.AuthorizationTime = fromNullTime(authorization)
	return &e, nil
}

func (s *PostgresStore) queryEntries(ctx context.Context, query string, args ...any) ([]*models.BookEntry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query book entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.BookEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) ListBookEntries(ctx context.Context, bookID id.BookID) ([]*models.BookEntry, error) {
	return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM book_entries WHERE book_id = $1 ORDER BY number`, uuid.UUID(bookID))
}

func (s *PostgresStore) CreateBookEntry(ctx context.Context, e *models.BookEntry) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO book_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(e.ID), e.UID, uuid.UUID(e.BookID), e.Number, uuid.UUID(e.LandRecordID), string(e.Status),
		e.PresentationTime, nullTime(e.AuthorizationTime), e.CreatedAt)
	return mapWriteErr(err, "insert book entry")
}

func (s *PostgresStore) FindBookEntry(ctx context.Context, entryID id.BookEntryID) (*models.BookEntry, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `SELECT `+entryColumns+` FROM book_entries WHERE id = $1`, uuid.UUID(entryID))
	e, err := scanEntry(row)
	if err != nil {
		return nil, mapReadErr(err, "find book entry")
	}
	return e, nil
}

func (s *PostgresStore) UpdateBookEntry(ctx context.Context, e *models.BookEntry) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE book_entries SET status = $2, authorization_time = $3 WHERE id = $1`,
		uuid.UUID(e.ID), string(e.Status), nullTime(e.AuthorizationTime))
	return requireRow(res, err, "update book entry")
}

func (s *PostgresStore) ListEntriesByLandRecord(ctx context.Context, landRecordID id.LandRecordID) ([]*models.BookEntry, error) {
	return s.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM book_entries
		WHERE land_record_id = $1 AND status = 'active'
		ORDER BY book_id, number`, uuid.UUID(landRecordID))
}
