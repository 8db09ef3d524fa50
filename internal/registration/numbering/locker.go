package numbering

import (
	"context"
	"hash/fnv"
	"sync"

	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
)

// Locker serializes allocation per book across everything that shares it.
// The returned release must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, bookID id.BookID) (release func(), err error)
}

const numBookShards = 128

// MemoryLocker serializes books within one process using sharded mutexes.
// Two books may share a shard; that only costs contention.
type MemoryLocker struct {
	shards [numBookShards]chan struct{}
}

func NewMemoryLocker() *MemoryLocker {
	l := &MemoryLocker{}
	for i := range l.shards {
		l.shards[i] = make(chan struct{}, 1)
	}
	return l
}

// Acquire blocks until the book's shard is free or ctx is done.
func (l *MemoryLocker) Acquire(ctx context.Context, bookID id.BookID) (func(), error) {
	shard := l.shards[shardFor(bookID)]
	select {
	case shard <- struct{}{}:
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "timed out waiting for book lock")
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-shard })
	}, nil
}

func shardFor(bookID id.BookID) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(bookID.String()))
	return h.Sum32() % numBookShards
}

// NoopLocker is used when the store serializes books itself inside the
// transaction (Postgres advisory transaction locks).
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, id.BookID) (func(), error) {
	return func() {}, nil
}
