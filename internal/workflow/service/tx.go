package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	dErrors "landrec/pkg/domain-errors"
)

const (
	numTransactionShards = 64
	defaultTxTimeout     = 5 * time.Second
)

// shardedTx serializes in-memory commands per transaction. Commands on
// different transactions proceed in parallel unless their keys collide.
type shardedTx struct {
	shards  [numTransactionShards]sync.Mutex
	store   Store
	timeout time.Duration
}

// NewShardedTx wraps an in-memory store.
func NewShardedTx(store Store, timeout time.Duration) StoreTx {
	return &shardedTx{store: store, timeout: timeout}
}

func (t *shardedTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := t.selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx, t.store)
}

func (t *shardedTx) selectShard(ctx context.Context) uint32 {
	key, ok := ctx.Value(txLockKeyCtx).(string)
	if !ok || key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % numTransactionShards
}

type txLockKey struct{}

var txLockKeyCtx = txLockKey{}

func withLockKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, txLockKeyCtx, key)
}
