package publisher

import (
	"context"
	"log/slog"
	"maps"

	"github.com/google/uuid"

	audit "landrec/pkg/platform/audit"
	"landrec/pkg/requestcontext"
)

// Publisher enriches audit events with request-scoped values and appends them
// to the store. It holds no buffer: an event is written in the caller's
// transaction or not at all.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

const attrClientIP = "client_ip"

// Emit stamps ID, time, category, actor, request ID and client IP when
// missing and appends the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.UserID.IsNil() {
		event.UserID = requestcontext.UserID(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		if _, ok := event.Attributes[attrClientIP]; !ok {
			attrs := make(map[string]string, len(event.Attributes)+1)
			maps.Copy(attrs, event.Attributes)
			attrs[attrClientIP] = ip
			event.Attributes = attrs
		}
	}
	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "failed to append audit event",
				"action", event.Action,
				"aggregate_id", event.AggregateID,
				"request_id", event.RequestID,
				"error", err,
			)
		}
		return err
	}
	return nil
}

// List returns the events recorded for one aggregate.
func (p *Publisher) List(ctx context.Context, aggregateType, aggregateID string) ([]audit.Event, error) {
	return p.store.ListByAggregate(ctx, aggregateType, aggregateID)
}
