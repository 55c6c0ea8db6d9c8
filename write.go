package recordcache

import (
	"context"
	"log/slog"
	"slices"
)

// Changes maps attribute names to their previous (pre-save) values. The ORM
// layer supplies it from its dirty-tracking; nil means no tracked changes
// (freshly inserted or freshly destroyed records).
type Changes map[string]any

// AfterSave records a saved-but-uncommitted record in the session's pending
// overlay so reads inside the same transaction observe the new state, and
// blacklists the record's keys so the cache is not touched until commit.
// Call it after every insert or update, before commit.
func (l *Layer) AfterSave(ctx context.Context, s *Schema, row Row) {
	sess := sessionFrom(ctx)
	sess.addPending(s.identity(row), row.Clone(), false)
	sess.addToBlacklist(l.invalidationKeys(s, row, nil))
}

// AfterDestroy records a tombstone for a destroyed-but-uncommitted record.
// Reads inside the same transaction will drop the record from results.
func (l *Layer) AfterDestroy(ctx context.Context, s *Schema, row Row) {
	sess := sessionFrom(ctx)
	sess.addPending(s.identity(row), nil, true)
	sess.addToBlacklist(l.invalidationKeys(s, row, nil))
}

// AfterCommit clears the session overlay and evicts every key the record
// touches: all registered indices, over both the committed attributes and
// the pre-change attributes. In write-through mode a still-persisted record
// is first re-stored at its direct key, which is then spared from eviction.
//
// Call it once per record in the committed unit of work, only for records
// that are persisted or were destroyed.
func (l *Layer) AfterCommit(ctx context.Context, s *Schema, row Row, changes Changes, destroyed bool) error {
	sessionFrom(ctx).clear()

	keys := l.invalidationKeys(s, row, changes)

	if l.writeThrough && !destroyed && s.rowCacheable(row) {
		direct := s.KeyForID(row[s.primaryKey])
		if err := l.facade.write(ctx, direct, Value{Row: row.Clone()}, l.ttlFor(s)); err != nil {
			return err
		}
		keys = slices.DeleteFunc(keys, func(k string) bool { return k == direct })
	}

	if err := l.deleteKeys(ctx, s, keys); err != nil {
		return err
	}
	l.emit(EventInvalidate, s)
	return nil
}

// AfterRollback clears the session's pending overlay and blacklist. The
// cache itself needs no correction: nothing was written during the
// transaction.
func (l *Layer) AfterRollback(ctx context.Context) {
	sessionFrom(ctx).clear()
}

// Invalidate synchronously evicts every key the record touches. Use it when
// record state changes outside the normal save/commit path: reloads and
// direct column updates that bypass dirty tracking.
func (l *Layer) Invalidate(ctx context.Context, s *Schema, row Row, changes Changes) error {
	if err := l.deleteKeys(ctx, s, l.invalidationKeys(s, row, changes)); err != nil {
		return err
	}
	l.emit(EventInvalidate, s)
	return nil
}

// InvalidateIDs evicts the direct keys of the given ids. Counter-style bulk
// updates call this before applying the update, since they change rows
// without loading them.
func (l *Layer) InvalidateIDs(ctx context.Context, s *Schema, ids ...any) error {
	if err := l.deleteKeys(ctx, s, s.KeyForIDs(ids)); err != nil {
		return err
	}
	l.emit(EventInvalidate, s)
	return nil
}

// TxBegan disables cache reads for the session. Code running inside an
// uncommitted transaction must not be served cache entries that predate it.
// Disablement nests: each TxBegan needs a matching TxFinished.
func (l *Layer) TxBegan(ctx context.Context) {
	sessionFrom(ctx).disable()
}

// TxFinished restores the read-disablement state saved by the matching
// TxBegan.
func (l *Layer) TxFinished(ctx context.Context) {
	sessionFrom(ctx).enable()
}

// WithoutCache runs fn with cache reads disabled, restoring the previous
// state afterwards. Safe to nest.
func (l *Layer) WithoutCache(ctx context.Context, fn func(ctx context.Context) error) error {
	l.TxBegan(ctx)
	defer l.TxFinished(ctx)
	return fn(ctx)
}

// Clear drops every entry from the cache backend.
func (l *Layer) Clear(ctx context.Context) error {
	return l.facade.clear(ctx)
}

// invalidationKeys enumerates every key a record touches: the cross product
// of the schema's registered indices and the record's attribute snapshots
// (committed state, and pre-change state when changes are supplied). Non-id
// indices contribute their "/first" variant as well. The result is
// deduplicated.
func (l *Layer) invalidationKeys(s *Schema, row Row, changes Changes) []string {
	snapshots := []Row{row}
	if len(changes) > 0 {
		prev := row.Clone()
		for attr, old := range changes {
			prev[attr] = old
		}
		snapshots = append(snapshots, prev)
	}

	seen := make(map[string]struct{})
	var keys []string
	add := func(key string) {
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}

	for _, index := range s.Indices() {
		for _, snap := range snapshots {
			pairs := make([]Pair, len(index))
			for i, attr := range index {
				pairs[i] = Pair{Attr: attr, Value: snap[attr]}
			}
			key := s.KeyFor(pairs)
			add(key)
			if !slices.Contains(index, s.primaryKey) {
				add(key + firstSuffix)
			}
		}
	}
	return keys
}

// deleteKeys evicts keys through the facade, stopping at the first failure:
// a missed invalidation must surface rather than silently leave stale data.
func (l *Layer) deleteKeys(ctx context.Context, s *Schema, keys []string) error {
	for _, key := range keys {
		if err := l.facade.delete(ctx, key); err != nil {
			l.log.ErrorContext(ctx, "cache invalidation failed",
				slog.String("schema", s.String()), slog.String("key", key),
				slog.Any("error", err))
			return err
		}
	}
	return nil
}
