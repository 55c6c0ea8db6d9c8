package recordcache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Select serves a query from the cache when possible, falling back to the
// store otherwise. The fallback executes the exact original query; it is
// called when the query is unrecognized, when its index is not registered,
// when reads are disabled for the current session, and on cache misses.
//
// Rows returned from cache are clones; callers may mutate them freely.
func (l *Layer) Select(ctx context.Context, s *Schema, plan *SelectPlan, fallback Fallback) ([]Row, error) {
	if fallback == nil {
		return nil, ErrNilFallback
	}
	if sessionFrom(ctx).readsDisabled() {
		return fallback(ctx)
	}

	q, ok := Recognize(s, plan)
	if !ok || !s.HasIndex(q.Index) {
		return fallback(ctx)
	}

	if len(q.Keys) > 0 {
		rows, err := l.selectByKeys(ctx, s, q.Keys, q.IDs)
		if errors.Is(err, ErrNoStore) {
			return fallback(ctx)
		}
		return rows, err
	}

	v, found := l.facade.read(ctx, q.Key)
	if !found {
		l.emit(EventMiss, s)
		return l.fillOnMiss(ctx, s, q.Key, fallback)
	}

	switch {
	case v.poisoned():
		// A present key with a shape the layer never writes means the
		// backend is misbehaving; the entry is not authoritative.
		l.log.WarnContext(ctx, "poisoned cache entry, bypassing cache",
			slog.String("schema", s.String()), slog.String("key", q.Key))
		return fallback(ctx)

	case v.isRefs():
		rows, err := l.selectByKeys(ctx, s, v.Refs, nil)
		if errors.Is(err, ErrNoStore) {
			return fallback(ctx)
		}
		if err != nil {
			return nil, err
		}
		l.notifyHit(ctx, s, len(rows))
		return rows, nil

	default:
		rows := l.filterPending(ctx, s, []Row{v.Row.Clone()})
		l.notifyHit(ctx, s, len(rows))
		return rows, nil
	}
}

// fillOnMiss runs the fallback and stores the result. Concurrent misses for
// the same key share a single fallback execution.
func (l *Layer) fillOnMiss(ctx context.Context, s *Schema, key string, fallback Fallback) ([]Row, error) {
	res, err, shared := l.flight.Do(key, func() (any, error) {
		rows, err := fallback(ctx)
		if err != nil {
			return nil, err
		}
		if err := l.storeOnMiss(ctx, s, key, rows); err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	rows := res.([]Row)
	if shared {
		// Followers share the leader's slice; hand out copies.
		cloned := make([]Row, len(rows))
		for i, row := range rows {
			cloned[i] = row.Clone()
		}
		rows = cloned
	}
	return rows, nil
}

// storeOnMiss applies the store-on-miss policy to a fallback result:
// nothing for empty results, the row itself for single-row results, and for
// small fully-cacheable collections each row at its own direct key plus the
// key list at the query key.
func (l *Layer) storeOnMiss(ctx context.Context, s *Schema, key string, rows []Row) error {
	switch {
	case len(rows) == 0:
		l.log.DebugContext(ctx, "skipping empty result set",
			slog.String("schema", s.String()), slog.String("key", key))
		return nil

	case len(rows) == 1:
		if !s.rowCacheable(rows[0]) {
			return nil
		}
		if err := l.facade.write(ctx, key, Value{Row: rows[0].Clone()}, l.ttlFor(s)); err != nil {
			return err
		}

	case len(rows) <= l.maxCollectionSize:
		for _, row := range rows {
			if !s.rowCacheable(row) {
				l.log.DebugContext(ctx, "skipping collection with non-cacheable row",
					slog.String("schema", s.String()), slog.String("key", key))
				return nil
			}
		}
		refs := make([]string, len(rows))
		for i, row := range rows {
			refs[i] = s.KeyForID(row[s.primaryKey])
			if err := l.facade.write(ctx, refs[i], Value{Row: row.Clone()}, l.ttlFor(s)); err != nil {
				return err
			}
		}
		if err := l.facade.write(ctx, key, Value{Refs: refs}, l.ttlFor(s)); err != nil {
			return err
		}

	default:
		l.log.DebugContext(ctx, "skipping oversized collection",
			slog.String("schema", s.String()), slog.Int("rows", len(rows)),
			slog.Int("max", l.maxCollectionSize))
		return nil
	}

	l.emit(EventStore, s)
	return nil
}

// selectByKeys resolves a set of direct keys: present entries hydrate from
// cache, missing ones are fetched from the fallback store by id and stored
// individually. ids, when supplied, carries the typed primary-key value
// behind each key, parallel to keys; for keys without one (reference
// entries) the id is recovered from the key text. The combined result is
// reconciled against the pending-write overlay. Row order follows the key
// order with fetched rows appended; no further ordering is guaranteed.
func (l *Layer) selectByKeys(ctx context.Context, s *Schema, keys []string, ids []any) ([]Row, error) {
	found := l.facade.readMulti(ctx, keys)

	rows := make([]Row, 0, len(keys))
	var missing []any
	for i, key := range keys {
		// Anything but a well-formed row entry counts as missing and is
		// refetched; a partial backend response is not an error.
		if v, ok := found[key]; ok && v.isRow() {
			rows = append(rows, v.Row.Clone())
			continue
		}
		if ids != nil {
			missing = append(missing, ids[i])
		} else if id, ok := idFromKey(s, key); ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		if l.store == nil {
			return nil, ErrNoStore
		}
		fetched, err := l.store.SelectByIDs(ctx, s, missing)
		if err != nil {
			return nil, err
		}
		for _, row := range fetched {
			if s.rowCacheable(row) {
				key := s.KeyForID(row[s.primaryKey])
				if err := l.facade.write(ctx, key, Value{Row: row.Clone()}, l.ttlFor(s)); err != nil {
					return nil, err
				}
			}
			rows = append(rows, row)
		}
	}

	return l.filterPending(ctx, s, rows), nil
}

// filterPending reconciles rows with the session's pending-write overlay:
// a row with an uncommitted save is replaced by the pending version, a row
// with an uncommitted destroy is dropped.
func (l *Layer) filterPending(ctx context.Context, s *Schema, rows []Row) []Row {
	sess := sessionFrom(ctx)
	if !sess.hasPending() {
		return rows
	}

	out := rows[:0]
	for _, row := range rows {
		p, ok := sess.lookupPending(s.identity(row))
		switch {
		case !ok:
			out = append(out, row)
		case p.deleted:
			// tombstone: drop
		default:
			out = append(out, p.row.Clone())
		}
	}
	return out
}

// notifyHit reports a successful cache fill for external instrumentation.
func (l *Layer) notifyHit(ctx context.Context, s *Schema, count int) {
	l.emit(EventHit, s)
	l.log.DebugContext(ctx, "served from cache",
		slog.String("schema", s.String()), slog.Int("rows", count))
}

// idFromKey recovers the primary-key value from a direct key's trailing
// "<pk>=<token>" segment. String ids have their quotes stripped; on an
// integer primary key the token is parsed back to an integer so the
// fallback store sees the column's type, not key text.
func idFromKey(s *Schema, key string) (any, bool) {
	i := strings.LastIndexByte(key, '=')
	if i < 0 {
		return nil, false
	}
	token := strings.Trim(key[i+1:], "'")
	if s.columnType(s.primaryKey) == ColumnInt {
		if n, err := strconv.ParseInt(token, 10, 64); err == nil {
			return n, true
		}
	}
	return token, true
}
