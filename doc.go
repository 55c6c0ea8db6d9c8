// Package recordcache is a write-through/read-through caching layer that
// sits in front of a relational data-access path. It transparently caches
// single-record and indexed-lookup query results and invalidates them
// precisely on writes.
//
// The heart of the package is the query-to-cache-key translation: a
// normalized select plan (see [SelectPlan]) is inspected by [Recognize],
// which decides whether the query is cacheable, derives the index it uses,
// and resolves the canonical cache key(s). Most real-world queries are not
// cacheable — anything with joins, grouping, offsets, partial projections,
// OR conditions, or non-trivial ordering falls through to the store
// untouched, which is the expected path, not an error.
//
// # Schemas and indices
//
// Each cacheable entity type is described by a [Schema]: table, typed
// columns, primary key, and the attribute sets it may be looked up by:
//
//	post := recordcache.NewSchema("Post", "posts", []recordcache.Column{
//	    {Name: "id", Type: recordcache.ColumnInt},
//	    {Name: "blog_id", Type: recordcache.ColumnInt},
//	    {Name: "title", Type: recordcache.ColumnString},
//	}).Index("title").Index("blog_id", "id")
//
// The primary-key index is registered automatically. Every key carries a
// prefix fingerprinting the column list, so a schema change strands old
// entries instead of mis-hydrating them.
//
// # Reading
//
// [Layer.Select] decorates the data-access path: the caller supplies the
// original query as a fallback closure and the layer decides whether cache
// can answer first:
//
//	rows, err := layer.Select(ctx, post, plan, func(ctx context.Context) ([]recordcache.Row, error) {
//	    return store.Query(ctx, "SELECT * FROM posts WHERE id = $1", id)
//	})
//
// # Writing
//
// The ORM or repository layer drives invalidation through lifecycle hooks:
// [Layer.AfterSave] and [Layer.AfterDestroy] before commit,
// [Layer.AfterCommit] and [Layer.AfterRollback] at transaction end,
// [Layer.Invalidate] for reloads and direct column updates, and
// [Layer.TxBegan]/[Layer.TxFinished] around transactions so in-transaction
// reads bypass the cache entirely.
//
// Per-request state (the pending-write overlay, read disablement, the key
// blacklist) lives in a context session created by [WithSession]; attach one
// per unit of work and never share it across concurrent units.
//
// Cache backends are pluggable via pkg/cache (in-memory and Redis ship with
// the module); the fallback store interface is implemented for PostgreSQL in
// pkg/pgstore.
package recordcache
