package service

import (
	"context"
	"hash/fnv"
	"slices"
	"sync"
	"time"

	dErrors "landrec/pkg/domain-errors"
)

// numRecordShards spreads land records over independent mutexes so unrelated
// records do not serialize on each other.
const numRecordShards = 128

const defaultTxTimeout = 5 * time.Second

// shardedTx is the in-memory StoreTx. A land record's operations serialize on
// the shards picked from the lock keys in ctx; the store itself is safe for
// concurrent use, so these locks are what make index assignment single-writer.
// There is no rollback: fn must validate before its first write.
type shardedTx struct {
	shards  [numRecordShards]sync.Mutex
	store   Store
	timeout time.Duration
}

// NewShardedTx wraps an in-memory store. Writes made by fn before it fails
// stay applied, so callers spanning two stores (a workflow command that signs
// a land record) are not atomic in memory mode.
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

	// Ascending shard order keeps multi-record transactions deadlock free.
	shards := t.selectShards(ctx)
	for _, shard := range shards {
		t.shards[shard].Lock()
	}
	defer func() {
		for i := len(shards) - 1; i >= 0; i-- {
			t.shards[shards[i]].Unlock()
		}
	}()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx, t.store)
}

func (t *shardedTx) selectShards(ctx context.Context) []uint32 {
	keys, _ := ctx.Value(txLockKeyCtx).([]string)
	if len(keys) == 0 {
		return []uint32{0}
	}
	shards := make([]uint32, 0, len(keys))
	for _, key := range keys {
		h := fnv.New32a()
		_, _ = h.Write([]byte(key))
		shards = append(shards, h.Sum32()%numRecordShards)
	}
	slices.Sort(shards)
	return slices.Compact(shards)
}

type txLockKey struct{}

var txLockKeyCtx = txLockKey{}

// withLockKey names the records an in-memory transaction serializes on.
func withLockKey(ctx context.Context, keys ...string) context.Context {
	return context.WithValue(ctx, txLockKeyCtx, keys)
}
