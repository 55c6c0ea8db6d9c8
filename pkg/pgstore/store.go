package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/recordcache"
)

// Store executes queries against a PostgreSQL pool and returns rows as
// column-name-keyed maps. It implements the caching layer's fallback store
// contract, so missing cache entries can be refilled by primary key.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an existing connection pool. The pool lifecycle stays with
// the caller (see Shutdown).
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool exposes the underlying pool for queries the store does not cover.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Query runs an arbitrary SQL statement and collects the result set into
// generic rows. Use it as the body of a read fallback:
//
//	rows, err := layer.Select(ctx, schema, plan, func(ctx context.Context) ([]recordcache.Row, error) {
//	    return store.Query(ctx, "SELECT * FROM posts WHERE blog_id = $1", blogID)
//	})
func (s *Store) Query(ctx context.Context, sql string, args ...any) ([]recordcache.Row, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	return collectRows(rows)
}

// SelectByIDs fetches the rows of the given schema whose primary key is in
// ids. Ids that match no row are simply absent from the result.
func (s *Store) SelectByIDs(ctx context.Context, schema *recordcache.Schema, ids []any) ([]recordcache.Row, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Query(ctx, selectByIDsSQL(schema.Table(), schema.PrimaryKey()), ids)
}

// selectByIDsSQL builds the primary-key refill statement. Identifiers come
// from registered schemas, not user input, but are quoted anyway.
func selectByIDsSQL(table, primaryKey string) string {
	return "SELECT * FROM " + pgx.Identifier{table}.Sanitize() +
		" WHERE " + pgx.Identifier{primaryKey}.Sanitize() + " = ANY($1)"
}

// collectRows drains a pgx result set into column-name-keyed maps.
func collectRows(rows pgx.Rows) ([]recordcache.Row, error) {
	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	var out []recordcache.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		row := make(recordcache.Row, len(names))
		for i, name := range names {
			row[name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	return out, nil
}

var _ recordcache.Store = (*Store)(nil)
