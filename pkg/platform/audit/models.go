package audit

import (
	"context"
	"time"

	id "landrec/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing downstream.
type EventCategory string

const (
	// CategoryRegistry covers events with legal significance for the public
	// registry: seals, reopenings, act removals. Long retention.
	CategoryRegistry EventCategory = "registry"

	// CategoryWorkflow covers transaction routing: status moves, assignments.
	CategoryWorkflow EventCategory = "workflow"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Category  EventCategory
	Timestamp time.Time
	// UserID is the acting office user.
	UserID id.UserID
	// AggregateType and AggregateID name the record the event is about
	// ("land_record", "transaction", "book"). The outbox partitions on them.
	AggregateType string
	AggregateID   string
	// Subject is the public UID shown to operators (LR-..., TR-...).
	Subject   string
	Action    string
	Reason    string
	RequestID string
	// Attributes carries event-specific context (from/to status, digest, act type).
	Attributes map[string]string
}

type AuditEvent string

const (
	// Registration events
	EventRecordingActCreated     AuditEvent = "recording_act_created"
	EventRecordingActRemoved     AuditEvent = "recording_act_removed"
	EventRecordingActTypeChanged AuditEvent = "recording_act_type_changed"
	EventBookEntryAllocated      AuditEvent = "book_entry_allocated"
	EventResourceMerged          AuditEvent = "resource_merged"

	// Land record lifecycle events
	EventLandRecordCreated          AuditEvent = "land_record_created"
	EventLandRecordClosed           AuditEvent = "land_record_closed"
	EventLandRecordManuallyClosed   AuditEvent = "land_record_manually_closed"
	EventLandRecordOpened           AuditEvent = "land_record_opened"
	EventLandRecordSignatureRemoved AuditEvent = "land_record_signature_removed"

	// Book events
	EventRecordingBookCreated AuditEvent = "recording_book_created"

	// Workflow events
	EventTransactionCreated AuditEvent = "transaction_created"
	EventWorkflowTransition AuditEvent = "workflow_transition"
	EventWorkflowAssigned   AuditEvent = "workflow_assigned"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRecordingActRemoved:        CategoryRegistry,
	EventRecordingActTypeChanged:    CategoryRegistry,
	EventLandRecordClosed:           CategoryRegistry,
	EventLandRecordManuallyClosed:   CategoryRegistry,
	EventLandRecordOpened:           CategoryRegistry,
	EventLandRecordSignatureRemoved: CategoryRegistry,
	EventResourceMerged:             CategoryRegistry,

	EventTransactionCreated: CategoryWorkflow,
	EventWorkflowTransition: CategoryWorkflow,
	EventWorkflowAssigned:   CategoryWorkflow,

	EventRecordingActCreated:  CategoryOperations,
	EventBookEntryAllocated:   CategoryOperations,
	EventLandRecordCreated:    CategoryOperations,
	EventRecordingBookCreated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Implementations must honour a SQL transaction
// bound to ctx so events commit with the state change they describe.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAggregate(ctx context.Context, aggregateType, aggregateID string) ([]Event, error)
}
