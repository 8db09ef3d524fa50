package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "landrec/pkg/domain"
	audit "landrec/pkg/platform/audit"
	txcontext "landrec/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table in the caller's transaction and
// published to Kafka by the outbox relay.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) execer(ctx context.Context) txcontext.Executor {
	return txcontext.Pick(ctx, s.db)
}

// outboxPayload is the JSON structure published to Kafka.
type outboxPayload struct {
	ID            string            `json:"id"`
	Category      string            `json:"category"`
	Timestamp     string            `json:"timestamp"`
	UserID        string            `json:"user_id,omitempty"`
	AggregateType string            `json:"aggregate_type"`
	AggregateID   string            `json:"aggregate_id"`
	Subject       string            `json:"subject,omitempty"`
	Action        string            `json:"action"`
	Reason        string            `json:"reason,omitempty"`
	RequestID     string            `json:"request_id,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// OutboxEntry is an unpublished outbox row handed to the relay.
type OutboxEntry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// Append writes an audit event to the outbox table for Kafka publishing.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	payload := outboxPayload{
		ID:            event.ID,
		Category:      string(category),
		Timestamp:     event.Timestamp.UTC().Format(time.RFC3339Nano),
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Subject:       event.Subject,
		Action:        event.Action,
		Reason:        event.Reason,
		RequestID:     event.RequestID,
		Attributes:    event.Attributes,
	}
	if !event.UserID.IsNil() {
		payload.UserID = event.UserID.String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		event.AggregateType,
		event.AggregateID,
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListByAggregate returns the events recorded for one aggregate, oldest first.
func (s *Store) ListByAggregate(ctx context.Context, aggregateType, aggregateID string) ([]audit.Event, error) {
	query := `
		SELECT payload
		FROM outbox
		WHERE aggregate_type = $1 AND aggregate_id = $2
		ORDER BY created_at ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, aggregateType, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan outbox payload: %w", err)
		}
		event, err := DecodeEvent(raw)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return events, nil
}

// FetchUnpublished locks up to limit unpublished entries for the caller's
// transaction. Concurrent relays skip rows another relay holds.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error) {
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unpublished outbox: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// ArchiveRegistryEvent keeps a registry event for long-term retention.
// Redelivered events are ignored.
func (s *Store) ArchiveRegistryEvent(ctx context.Context, event audit.Event) error {
	eventID, err := uuid.Parse(event.ID)
	if err != nil {
		return fmt.Errorf("parse event id %q: %w", event.ID, err)
	}
	attributes := event.Attributes
	if attributes == nil {
		attributes = map[string]string{}
	}
	rawAttributes, err := json.Marshal(attributes)
	if err != nil {
		return fmt.Errorf("marshal event attributes: %w", err)
	}
	var userID any
	if !event.UserID.IsNil() {
		userID = event.UserID.String()
	}

	query := `
		INSERT INTO audit_registry (event_id, aggregate_type, aggregate_id, subject, action, user_id, request_id, attributes, occurred_at, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (event_id) DO NOTHING
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		eventID,
		event.AggregateType,
		event.AggregateID,
		event.Subject,
		event.Action,
		userID,
		event.RequestID,
		rawAttributes,
		event.Timestamp,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert registry archive entry: %w", err)
	}
	return nil
}

// MarkPublished stamps the given entries as relayed.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, u := range ids {
		raw[i] = u.String()
	}
	query := `UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`
	if _, err := s.execer(ctx).ExecContext(ctx, query, at, pq.Array(raw)); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// DecodeEvent parses an outbox payload as relayed to the audit topic.
func DecodeEvent(raw []byte) (audit.Event, error) {
	var p outboxPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return audit.Event{}, fmt.Errorf("decode outbox payload: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return audit.Event{}, fmt.Errorf("parse outbox timestamp: %w", err)
	}
	event := audit.Event{
		ID:            p.ID,
		Category:      audit.EventCategory(p.Category),
		Timestamp:     ts,
		AggregateType: p.AggregateType,
		AggregateID:   p.AggregateID,
		Subject:       p.Subject,
		Action:        p.Action,
		Reason:        p.Reason,
		RequestID:     p.RequestID,
		Attributes:    p.Attributes,
	}
	if p.UserID != "" {
		if u, err := uuid.Parse(p.UserID); err == nil {
			event.UserID = id.UserID(u)
		}
	}
	return event, nil
}
