package main

import (
	"context"

	txcontext "landrec/pkg/platform/tx"
)

// postgresTx adapts the shared SQL runner to a service's StoreTx. The store
// reads the transaction from ctx, so nested calls from another service join
// the outer transaction instead of opening their own.
type postgresTx[S any] struct {
	runner *txcontext.Runner
	store  S
}

func newPostgresTx[S any](runner *txcontext.Runner, store S) *postgresTx[S] {
	return &postgresTx[S]{runner: runner, store: store}
}

func (t *postgresTx[S]) RunInTx(ctx context.Context, fn func(ctx context.Context, store S) error) error {
	return t.runner.RunInTx(ctx, func(ctx context.Context) error {
		return fn(ctx, t.store)
	})
}
