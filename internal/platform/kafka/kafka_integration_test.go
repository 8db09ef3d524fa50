//go:build integration

package kafka_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landrec/internal/platform/config"
	"landrec/internal/platform/kafka"
	"landrec/pkg/platform/audit/store/postgres"
	"landrec/pkg/testutil/containers"
)

type collector struct {
	mu     sync.Mutex
	msgs   []*kafka.Message
	want   int
	cancel context.CancelFunc
}

func (c *collector) Handle(_ context.Context, msg *kafka.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	if len(c.msgs) == c.want {
		c.cancel()
	}
	return nil
}

func TestProducerConsumerRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.GetManager().GetRedpanda(t)
	cfg := config.KafkaConfig{
		Brokers:       broker.Brokers,
		AuditTopic:    "landrec.audit." + uuid.NewString()[:8],
		ConsumerGroup: "landrec-test-" + uuid.NewString()[:8],
	}
	logger := slog.Default()

	producer, err := kafka.NewProducer(cfg, logger)
	require.NoError(t, err)
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	require.NoError(t, producer.EnsureTopic(ctx, 1, 1))
	require.NoError(t, producer.EnsureTopic(ctx, 1, 1), "creating an existing topic is not an error")
	require.NoError(t, producer.Health(ctx))

	entries := []postgres.OutboxEntry{
		{ID: uuid.New(), AggregateType: "land_record", AggregateID: "lr-1", EventType: "land_record_closed", Payload: []byte(`{"n":1}`)},
		{ID: uuid.New(), AggregateType: "land_record", AggregateID: "lr-1", EventType: "land_record_opened", Payload: []byte(`{"n":2}`)},
	}
	require.NoError(t, producer.Publish(ctx, entries))

	consumer, err := kafka.NewConsumer(cfg, logger)
	require.NoError(t, err)
	defer consumer.Close()

	runCtx, stop := context.WithCancel(ctx)
	got := &collector{want: len(entries), cancel: stop}
	err = consumer.Run(runCtx, got)
	require.ErrorIs(t, err, context.Canceled)
	require.NoError(t, ctx.Err(), "timed out before all records arrived")

	require.Len(t, got.msgs, 2)
	for i, msg := range got.msgs {
		assert.Equal(t, "land_record:lr-1", string(msg.Key))
		assert.Equal(t, entries[i].EventType, msg.Headers["event_type"])
		assert.Equal(t, entries[i].ID.String(), msg.Headers["outbox_id"])
		assert.JSONEq(t, string(entries[i].Payload), string(msg.Value))
	}
}
