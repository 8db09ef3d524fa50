package consumer

import (
	"context"
	"log/slog"

	audit "landrec/pkg/platform/audit"
)

// LogHandler writes workflow and operational events to the structured log.
// These categories have short retention and are best-effort.
type LogHandler struct {
	logger *slog.Logger
	level  slog.Level
}

func NewLogHandler(logger *slog.Logger, level slog.Level) *LogHandler {
	return &LogHandler{logger: logger, level: level}
}

func (h *LogHandler) Handle(ctx context.Context, event audit.Event) error {
	attrs := []any{
		"event_id", event.ID,
		"category", event.Category,
		"action", event.Action,
		"aggregate_type", event.AggregateType,
		"subject", event.Subject,
		"request_id", event.RequestID,
	}
	if !event.UserID.IsNil() {
		attrs = append(attrs, "user_id", event.UserID.String())
	}
	for k, v := range event.Attributes {
		attrs = append(attrs, "attr."+k, v)
	}
	h.logger.Log(ctx, h.level, "audit event", attrs...)
	return nil
}
