package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/recordcache"
)

// WithTx executes fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
// If fn panics, the transaction is rolled back and the panic is re-raised.
// If fn succeeds, the transaction is committed.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

// Transact runs fn in a transaction while disabling cache reads on the
// layer for its duration. Cached data must not leak into a transaction
// whose isolation level may see different rows, so the layer serves every
// read inside fn from the database.
func (s *Store) Transact(ctx context.Context, layer *recordcache.Layer, fn func(tx pgx.Tx) error) error {
	layer.TxBegan(ctx)
	defer layer.TxFinished(ctx)

	return WithTx(ctx, s.pool, fn)
}
