package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "landrec/pkg/domain"
	audit "landrec/pkg/platform/audit"
	"landrec/pkg/platform/audit/store/memory"
	"landrec/pkg/requestcontext"
)

func TestPublisher_EnrichesFromContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	actor := id.UserID(uuid.New())
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithUser(ctx, actor, []string{"recorder"})
	ctx = requestcontext.WithRequestID(ctx, "req-42")

	err := pub.Emit(ctx, audit.Event{
		AggregateType: "land_record",
		AggregateID:   "lr-1",
		Action:        string(audit.EventLandRecordClosed),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "land_record", "lr-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	got := events[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, now, got.Timestamp)
	assert.Equal(t, actor, got.UserID)
	assert.Equal(t, "req-42", got.RequestID)
	assert.Equal(t, audit.CategoryRegistry, got.Category)
}

func TestPublisher_KeepsExplicitValues(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	err := pub.Emit(context.Background(), audit.Event{
		ID:            "fixed",
		Timestamp:     stamp,
		Category:      audit.CategoryOperations,
		AggregateType: "transaction",
		AggregateID:   "tr-1",
		Action:        string(audit.EventWorkflowTransition),
	})
	require.NoError(t, err)

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "fixed", events[0].ID)
	assert.Equal(t, stamp, events[0].Timestamp)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
}

func TestPublisher_AddsClientIP(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	ctx := requestcontext.WithClientIP(context.Background(), "10.0.0.7")

	attrs := map[string]string{"from": "Received"}
	require.NoError(t, pub.Emit(ctx, audit.Event{
		AggregateType: "transaction",
		AggregateID:   "tr-1",
		Action:        string(audit.EventWorkflowTransition),
		Attributes:    attrs,
	}))
	require.NoError(t, pub.Emit(ctx, audit.Event{
		AggregateType: "transaction",
		AggregateID:   "tr-1",
		Action:        string(audit.EventWorkflowAssigned),
		Attributes:    map[string]string{"client_ip": "kiosk-3"},
	}))

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "10.0.0.7", events[0].Attributes["client_ip"])
	assert.Equal(t, "Received", events[0].Attributes["from"])
	assert.NotContains(t, attrs, "client_ip", "caller's map must not be modified")
	assert.Equal(t, "kiosk-3", events[1].Attributes["client_ip"])
}

func TestAuditEventCategory(t *testing.T) {
	assert.Equal(t, audit.CategoryWorkflow, audit.EventWorkflowTransition.Category())
	assert.Equal(t, audit.CategoryRegistry, audit.EventLandRecordOpened.Category())
	assert.Equal(t, audit.CategoryOperations, audit.AuditEvent("unknown").Category())
}
