package recordcache_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/recordcache"
	"github.com/dmitrymomot/recordcache/pkg/cache"
)

// fakeBackend is an in-memory cache backend with injectable failures,
// recording every write and eviction for assertions.
type fakeBackend struct {
	mu      sync.Mutex
	entries map[string]recordcache.Value

	getErr   error
	multiErr error
	setErr   error
	delErr   error

	sets    []string
	deleted []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{entries: make(map[string]recordcache.Value)}
}

func (f *fakeBackend) Get(_ context.Context, key string) (recordcache.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return recordcache.Value{}, f.getErr
	}
	v, ok := f.entries[key]
	if !ok {
		return recordcache.Value{}, cache.ErrNotFound
	}
	return v, nil
}

func (f *fakeBackend) GetMulti(_ context.Context, keys []string) (map[string]recordcache.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.multiErr != nil {
		return nil, f.multiErr
	}
	found := make(map[string]recordcache.Value, len(keys))
	for _, key := range keys {
		if v, ok := f.entries[key]; ok {
			found[key] = v
		}
	}
	return found, nil
}

func (f *fakeBackend) Set(_ context.Context, key string, value recordcache.Value, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = value
	f.sets = append(f.sets, key)
	return nil
}

func (f *fakeBackend) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.entries, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBackend) Has(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok, nil
}

func (f *fakeBackend) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[string]recordcache.Value)
	return nil
}

func (f *fakeBackend) Close() error { return nil }

func (f *fakeBackend) seed(key string, v recordcache.Value) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = v
}

func (f *fakeBackend) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok
}

func (f *fakeBackend) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.deleted)
}

var _ cache.Cache[recordcache.Value] = (*fakeBackend)(nil)

// fakeStore serves rows by stringified primary key (lookup is deliberately
// loose) and records the requested ids verbatim, so tests can assert on the
// exact values and types the layer hands to the store.
type fakeStore struct {
	mu        sync.Mutex
	rows      map[string]recordcache.Row
	requested [][]any
	err       error
}

func newFakeStore(pk string, rows ...recordcache.Row) *fakeStore {
	s := &fakeStore{rows: make(map[string]recordcache.Row, len(rows))}
	for _, row := range rows {
		s.rows[fmt.Sprint(row[pk])] = row
	}
	return s
}

func (f *fakeStore) SelectByIDs(_ context.Context, schema *recordcache.Schema, ids []any) ([]recordcache.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.requested = append(f.requested, ids)
	var out []recordcache.Row
	for _, id := range ids {
		if row, ok := f.rows[fmt.Sprint(id)]; ok {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

var _ recordcache.Store = (*fakeStore)(nil)

// postsSchema returns the schema used across the layer tests: a posts table
// with a primary-key index, a title index, and a composite blog index.
func postsSchema() *recordcache.Schema {
	return recordcache.NewSchema("post", "posts", []recordcache.Column{
		{Name: "id", Type: recordcache.ColumnInt},
		{Name: "blog_id", Type: recordcache.ColumnInt},
		{Name: "title", Type: recordcache.ColumnString},
	}).
		Index("title").
		Index("blog_id", "id")
}

// planByID is a cacheable single-record lookup by primary key.
func planByID(id any) *recordcache.SelectPlan {
	return &recordcache.SelectPlan{
		Table: "posts",
		Where: []recordcache.Predicate{
			{Column: "id", Op: recordcache.OpEq, Value: id},
		},
		Limit: 1,
	}
}
