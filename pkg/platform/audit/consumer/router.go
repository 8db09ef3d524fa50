// Package consumer routes relayed audit events by category.
package consumer

import (
	"context"
	"log/slog"

	"landrec/internal/platform/kafka"
	audit "landrec/pkg/platform/audit"
	auditpg "landrec/pkg/platform/audit/store/postgres"
)

// EventHandler handles decoded events of one category.
type EventHandler interface {
	Handle(ctx context.Context, event audit.Event) error
}

// Router decodes audit topic messages and dispatches them to the handler
// registered for the event's category.
type Router struct {
	handlers map[audit.EventCategory]EventHandler
	fallback EventHandler
	logger   *slog.Logger
}

// NewRouter creates a category router with an optional fallback handler.
func NewRouter(logger *slog.Logger, fallback EventHandler) *Router {
	return &Router{
		handlers: make(map[audit.EventCategory]EventHandler),
		fallback: fallback,
		logger:   logger,
	}
}

func (r *Router) Register(category audit.EventCategory, handler EventHandler) {
	r.handlers[category] = handler
}

// Handle implements kafka.Handler. Undecodable messages are logged and
// skipped so they cannot block the partition.
func (r *Router) Handle(ctx context.Context, msg *kafka.Message) error {
	event, err := auditpg.DecodeEvent(msg.Value)
	if err != nil {
		r.logger.ErrorContext(ctx, "undecodable audit message, skipping",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	handler, ok := r.handlers[event.Category]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, event)
		}
		r.logger.WarnContext(ctx, "no handler for audit category, skipping",
			"category", event.Category,
			"action", event.Action,
		)
		return nil
	}
	return handler.Handle(ctx, event)
}
