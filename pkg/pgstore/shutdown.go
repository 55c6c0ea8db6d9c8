package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Shutdown returns a function that gracefully closes the database
// connection pool. Register it with whatever shutdown orchestration the
// application uses:
//
//	cleanup := pgstore.Shutdown(pool)
//	defer cleanup(context.Background())
func Shutdown(pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		pool.Close()
		return nil
	}
}
