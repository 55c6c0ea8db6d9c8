package recordcache

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/recordcache/pkg/logger"
)

// defaultMaxCollectionSize caps how many rows a collection lookup may return
// and still be cached. Larger result sets are served but never stored.
const defaultMaxCollectionSize = 100

type options struct {
	store             Store
	log               *slog.Logger
	events            EventFunc
	writeThrough      bool
	maxCollectionSize int
	defaultTTL        time.Duration
}

// Option configures a Layer at construction time.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		log:               logger.NewNope(),
		maxCollectionSize: defaultMaxCollectionSize,
	}
}

// WithStore sets the fallback store used to fetch records by primary key on
// partial multi-key misses. Without it, primary-key IN queries and cached
// collections degrade to the per-call fallback when entries are missing.
func WithStore(store Store) Option {
	return func(o *options) { o.store = store }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithEvents installs the instrumentation callback.
func WithEvents(fn EventFunc) Option {
	return func(o *options) { o.events = fn }
}

// WithWriteThrough makes commits re-store the fresh record at its direct key
// instead of only deleting it, so the next read does not pay a miss.
func WithWriteThrough() Option {
	return func(o *options) { o.writeThrough = true }
}

// WithMaxCollectionSize overrides the collection caching cap (default 100).
func WithMaxCollectionSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxCollectionSize = n
		}
	}
}

// WithDefaultTTL sets the default time-to-live for cached entries, used when
// a schema has no TTL override. Zero falls through to the backend's default;
// a negative value means entries never expire.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) { o.defaultTTL = ttl }
}
