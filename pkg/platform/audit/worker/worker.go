package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"landrec/pkg/platform/audit/store/postgres"
)

// Outbox is the claim/ack side of the audit outbox.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]postgres.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// TxRunner scopes one relay batch to a store transaction so claimed rows stay
// locked until they are marked.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Producer ships outbox entries to the broker. It must return only after the
// broker acknowledged every entry.
type Producer interface {
	Publish(ctx context.Context, entries []postgres.OutboxEntry) error
}

// Worker relays committed outbox rows to the broker on a fixed interval.
// Delivery is at-least-once: a crash between publish and commit republishes
// the batch, and consumers deduplicate on the payload id.
type Worker struct {
	outbox    Outbox
	tx        TxRunner
	producer  Producer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithInterval(d time.Duration) Option {
	return func(w *Worker) { w.interval = d }
}

func WithBatchSize(n int) Option {
	return func(w *Worker) { w.batchSize = n }
}

func NewWorker(outbox Outbox, tx TxRunner, producer Producer, opts ...Option) *Worker {
	w := &Worker{
		outbox:    outbox,
		tx:        tx,
		producer:  producer,
		logger:    slog.Default(),
		interval:  time.Second,
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run relays batches until ctx is cancelled. Relay errors are logged and
// retried on the next tick.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				n, err := w.RelayOnce(ctx)
				if err != nil {
					w.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
					break
				}
				if n < w.batchSize {
					break
				}
			}
		}
	}
}

// RelayOnce publishes at most one batch and returns how many entries it relayed.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	relayed := 0
	err := w.tx.RunInTx(ctx, func(ctx context.Context) error {
		entries, err := w.outbox.FetchUnpublished(ctx, w.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		if err := w.producer.Publish(ctx, entries); err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if err := w.outbox.MarkPublished(ctx, ids, time.Now()); err != nil {
			return err
		}
		relayed = len(entries)
		return nil
	})
	return relayed, err
}
