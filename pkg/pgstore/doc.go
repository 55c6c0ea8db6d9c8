// Package pgstore provides the PostgreSQL fallback store for the caching
// layer, built on [github.com/jackc/pgx/v5/pgxpool].
//
// # Features
//
//   - Connection pooling with configurable limits and timeouts
//   - Automatic retry logic with exponential backoff during startup
//   - Health check function compatible with standard health check interfaces
//   - Generic row queries returning column-name-keyed maps
//   - Primary-key refill queries for the caching layer's multi-key reads
//   - Transaction helper that disables cache reads for the transaction's duration
//
// # Configuration
//
// All settings are loaded from environment variables:
//
//	DATABASE_CONN_URL           - PostgreSQL connection URL (required)
//	DATABASE_MAX_OPEN_CONNS     - Maximum open connections (default: 10)
//	DATABASE_MIN_CONNS          - Minimum idle connections (default: 5)
//	DATABASE_HEALTHCHECK_PERIOD - Health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - Maximum connection idle time (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - Maximum connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - Connection retry attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - Base retry interval (default: 5s)
//
// # Usage
//
// Connect a pool and hand the store to the caching layer:
//
//	pool, err := pgstore.Connect(ctx, pgstore.DefaultConfig(os.Getenv("DATABASE_CONN_URL")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	store := pgstore.NewStore(pool)
//	layer, err := recordcache.New(backend, recordcache.WithStore(store))
//
// Reads go through the layer with the store's Query as the fallback:
//
//	rows, err := layer.Select(ctx, posts, plan, func(ctx context.Context) ([]recordcache.Row, error) {
//	    return store.Query(ctx, "SELECT * FROM posts WHERE id = $1", id)
//	})
//
// # Transactions
//
// The [Store.Transact] helper wraps [WithTx] and keeps the caching layer
// out of the transaction: cache reads are disabled until the transaction
// finishes, so fn always sees the database's view of the data:
//
//	err := store.Transact(ctx, layer, func(tx pgx.Tx) error {
//	    _, err := tx.Exec(ctx, "UPDATE posts SET title = $1 WHERE id = $2", title, id)
//	    return err
//	})
//
// # Error Handling
//
// The package defines sentinel errors for common failure modes:
//
//   - [ErrFailedToParseConfig] - Invalid connection string format
//   - [ErrFailedToOpenConnection] - Connection failed after all retries
//   - [ErrHealthcheckFailed] - Database ping failed
//   - [ErrQueryFailed] - Query execution or row collection failed
//
// Errors are wrapped using [errors.Join] to preserve the original error context.
package pgstore
