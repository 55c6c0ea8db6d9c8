package recordcache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/recordcache/pkg/cache"
)

// Store is the fallback store collaborator used to fetch records by primary
// key when a multi-key read finds some entries missing. The returned rows
// are column-name-keyed; ids absent from the store are simply absent from
// the result, never an error.
type Store interface {
	SelectByIDs(ctx context.Context, schema *Schema, ids []any) ([]Row, error)
}

// Fallback executes the original query against the underlying store.
// It is supplied per read by the caller, which keeps the layer a decorator
// over the data-access path instead of a rewrite of it.
type Fallback func(ctx context.Context) ([]Row, error)

// Layer is the caching layer: it recognizes cacheable queries, serves them
// from the cache backend with fallback to the store, and invalidates
// precisely on writes via the lifecycle hooks in write.go.
//
// A Layer is safe for concurrent use. Per-request state (pending writes,
// read disablement, the blacklist) lives in the context session, not in the
// Layer; see WithSession.
type Layer struct {
	facade *facade
	store  Store
	log    *slog.Logger
	events EventFunc

	writeThrough      bool
	maxCollectionSize int
	defaultTTL        time.Duration

	// flight deduplicates concurrent fallback fills for the same key so a
	// hot key miss does not stampede the store.
	flight singleflight.Group
}

// New creates a caching layer over the given cache backend.
func New(backend cache.Cache[Value], opts ...Option) (*Layer, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	l := &Layer{
		store:             o.store,
		log:               o.log,
		events:            o.events,
		writeThrough:      o.writeThrough,
		maxCollectionSize: o.maxCollectionSize,
		defaultTTL:        o.defaultTTL,
	}
	l.facade = &facade{backend: backend, log: o.log}
	return l, nil
}

// ttlFor resolves the entry TTL: the schema override when set, otherwise the
// layer default. Zero is passed through and resolves to the backend's own
// default TTL.
func (l *Layer) ttlFor(s *Schema) time.Duration {
	if s.ttl != 0 {
		return s.ttl
	}
	return l.defaultTTL
}
