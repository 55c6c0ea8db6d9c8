package recordcache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/recordcache/pkg/cache"
)

// facade wraps the raw cache backend with session awareness: keys on the
// session blacklist are invisible for the duration of the unit of work, and
// backend read failures degrade to misses instead of surfacing.
type facade struct {
	backend cache.Cache[Value]
	log     *slog.Logger
}

// read returns the value at key and whether it was found. Blacklisted keys
// and backend read errors both report a miss; read errors are logged since
// the operation still succeeds via the fallback store.
func (f *facade) read(ctx context.Context, key string) (Value, bool) {
	if sessionFrom(ctx).blacklisted(key) {
		return Value{}, false
	}

	v, err := f.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			f.log.WarnContext(ctx, "cache read failed, treating as miss",
				slog.String("key", key), slog.Any("error", err))
		}
		return Value{}, false
	}
	return v, true
}

// readMulti returns the present subset of keys. Blacklisted keys are
// excluded up front; a backend error degrades to an empty result.
func (f *facade) readMulti(ctx context.Context, keys []string) map[string]Value {
	sess := sessionFrom(ctx)
	allowed := keys
	if sess != nil {
		allowed = make([]string, 0, len(keys))
		for _, k := range keys {
			if !sess.blacklisted(k) {
				allowed = append(allowed, k)
			}
		}
	}
	if len(allowed) == 0 {
		return nil
	}

	found, err := f.backend.GetMulti(ctx, allowed)
	if err != nil {
		f.log.WarnContext(ctx, "cache multi-read failed, treating as full miss",
			slog.Int("keys", len(allowed)), slog.Any("error", err))
		return nil
	}
	return found
}

// write stores a value. Blacklisted keys are silently skipped; a failed
// write is returned to the caller since continuing would risk stale data
// never being refreshed.
func (f *facade) write(ctx context.Context, key string, v Value, ttl time.Duration) error {
	if sessionFrom(ctx).blacklisted(key) {
		return nil
	}
	return f.backend.Set(ctx, key, v, ttl)
}

// delete evicts a key. Blacklisted keys are skipped. A failed delete
// propagates: an invalidation that did not happen means readers may be
// served stale data, which is worse than failing the write operation.
func (f *facade) delete(ctx context.Context, key string) error {
	if sessionFrom(ctx).blacklisted(key) {
		return nil
	}
	return f.backend.Delete(ctx, key)
}

// clear drops every entry in the backend.
func (f *facade) clear(ctx context.Context) error {
	return f.backend.Clear(ctx)
}
