package consumer

import (
	"context"
	"fmt"
	"log/slog"

	audit "landrec/pkg/platform/audit"
)

// RegistryArchive keeps registry events for long-term retention.
type RegistryArchive interface {
	ArchiveRegistryEvent(ctx context.Context, event audit.Event) error
}

// RegistryHandler archives events with legal significance: seals, reopenings,
// act removals and merges.
type RegistryHandler struct {
	archive RegistryArchive
	logger  *slog.Logger
}

func NewRegistryHandler(archive RegistryArchive, logger *slog.Logger) *RegistryHandler {
	return &RegistryHandler{archive: archive, logger: logger}
}

// Handle archives the event. Events missing their identity are logged and
// dropped; archive failures are returned so the record is redelivered.
func (h *RegistryHandler) Handle(ctx context.Context, event audit.Event) error {
	if event.ID == "" || event.AggregateID == "" {
		h.logger.ErrorContext(ctx, "CRITICAL: registry event without identity",
			"event_id", event.ID,
			"action", event.Action,
			"aggregate_type", event.AggregateType,
		)
		return nil
	}
	if err := h.archive.ArchiveRegistryEvent(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "failed to archive registry event",
			"event_id", event.ID,
			"action", event.Action,
			"error", err,
		)
		return fmt.Errorf("archive registry event: %w", err)
	}
	h.logger.DebugContext(ctx, "archived registry event",
		"event_id", event.ID,
		"action", event.Action,
		"subject", event.Subject,
	)
	return nil
}
