package recordcache

import (
	"fmt"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
)

// protocolVersion is embedded in every key prefix. Bump it whenever the key
// or entry format changes in a way that must not read entries written by
// older releases; old entries become unreachable and age out on their own.
const protocolVersion = 1

// ColumnType describes how a column's values are rendered into cache keys.
type ColumnType int

const (
	// ColumnRaw stringifies values verbatim. Used for columns whose type
	// is unknown to the schema.
	ColumnRaw ColumnType = iota
	ColumnString
	ColumnInt
	ColumnFloat
	ColumnBool
	ColumnTime
)

// Column is a single named, typed column of an entity's table.
type Column struct {
	Name string
	Type ColumnType
}

// Schema describes one cacheable entity type: its table, columns, primary
// key, and the attribute sets (indices) it may be looked up by.
//
// Schemas are built and indexed at startup and are read-only afterwards;
// concurrent reads need no locking (see Index).
type Schema struct {
	name       string
	table      string
	columns    []Column
	types      map[string]ColumnType
	primaryKey string
	parent     *Schema
	ttl        time.Duration
	cacheable  func(Row) bool
	indices    [][]string
	prefix     string
}

// SchemaOption configures a Schema at construction time.
type SchemaOption func(*Schema)

// WithPrimaryKey overrides the primary key column (default "id").
func WithPrimaryKey(column string) SchemaOption {
	return func(s *Schema) { s.primaryKey = column }
}

// WithParent sets a parent schema whose indices this schema inherits.
// Index resolution walks the parent chain and deduplicates.
func WithParent(parent *Schema) SchemaOption {
	return func(s *Schema) { s.parent = parent }
}

// WithTTL sets a per-entity time-to-live for cached entries, overriding the
// layer's default TTL.
func WithTTL(ttl time.Duration) SchemaOption {
	return func(s *Schema) { s.ttl = ttl }
}

// WithCacheableFunc installs a per-row cacheability check. Collections are
// only cached when every row passes; a nil function means always cacheable.
func WithCacheableFunc(fn func(Row) bool) SchemaOption {
	return func(s *Schema) { s.cacheable = fn }
}

// NewSchema creates a schema for the given entity name, table, and column
// list. The column order matters: it is part of the schema fingerprint, so
// reordering columns orphans previously cached entries by design.
func NewSchema(name, table string, columns []Column, opts ...SchemaOption) *Schema {
	s := &Schema{
		name:       name,
		table:      table,
		columns:    slices.Clone(columns),
		types:      make(map[string]ColumnType, len(columns)),
		primaryKey: "id",
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, c := range s.columns {
		s.types[c.Name] = c.Type
	}
	s.prefix = s.buildPrefix()
	return s
}

// Name returns the entity name.
func (s *Schema) Name() string { return s.name }

// Table returns the table name the schema caches queries against.
func (s *Schema) Table() string { return s.table }

// PrimaryKey returns the primary key column name.
func (s *Schema) PrimaryKey() string { return s.primaryKey }

// TTL returns the per-entity TTL override, zero when unset.
func (s *Schema) TTL() time.Duration { return s.ttl }

// KeyPrefix returns the stable prefix every key of this schema starts with.
func (s *Schema) KeyPrefix() string { return s.prefix }

// columnType returns the declared type of a column. Unknown columns render
// verbatim (ColumnRaw).
func (s *Schema) columnType(name string) ColumnType {
	return s.types[name]
}

// rowCacheable applies the per-row cacheability hook.
func (s *Schema) rowCacheable(row Row) bool {
	if s.cacheable == nil {
		return true
	}
	return s.cacheable(row)
}

// buildPrefix derives the key prefix from the table name and a fingerprint
// of the full column list. Any schema change (column added, removed, renamed,
// retyped, or reordered) yields a new prefix, which makes stale entries from
// the previous schema unreachable instead of mis-hydrated.
func (s *Schema) buildPrefix() string {
	h := xxhash.New()
	for _, c := range s.columns {
		_, _ = h.WriteString(c.Name)
		_, _ = fmt.Fprintf(h, ":%d,", c.Type)
	}
	return fmt.Sprintf("recordcache-%d/%s/v=%016x/", protocolVersion, s.table, h.Sum64())
}

// Index registers an attribute set this entity may be looked up by.
// Attribute names are sorted for canonical ordering and deduplicated.
// Registering any index other than the primary key auto-registers the
// primary-key index first. Returns the schema for chaining.
//
// Index is not safe for concurrent use; register all indices during startup,
// before the schema is shared.
func (s *Schema) Index(attrs ...string) *Schema {
	sorted := make([]string, len(attrs))
	copy(sorted, attrs)
	slices.Sort(sorted)

	pkOnly := []string{s.primaryKey}
	if !slices.Equal(sorted, pkOnly) && !s.HasIndex(pkOnly) {
		s.Index(s.primaryKey)
	}

	for _, idx := range s.indices {
		if slices.Equal(idx, sorted) {
			return s
		}
	}
	s.indices = append(s.indices, sorted)
	return s
}

// Indices returns every registered index, including those inherited from
// parent schemas, deduplicated.
func (s *Schema) Indices() [][]string {
	var out [][]string
	for cur := s; cur != nil; cur = cur.parent {
		for _, idx := range cur.indices {
			if !containsIndex(out, idx) {
				out = append(out, idx)
			}
		}
	}
	return out
}

// HasIndex reports whether the given sorted attribute set is registered on
// this schema or any of its parents.
func (s *Schema) HasIndex(attrs []string) bool {
	sorted := slices.Clone(attrs)
	slices.Sort(sorted)
	return containsIndex(s.Indices(), sorted)
}

func containsIndex(list [][]string, idx []string) bool {
	for _, have := range list {
		if slices.Equal(have, idx) {
			return true
		}
	}
	return false
}

// identity returns the pending-write identity of a row of this schema.
func (s *Schema) identity(row Row) string {
	return s.name + "/" + fmt.Sprint(row[s.primaryKey])
}

// String implements fmt.Stringer for log output.
func (s *Schema) String() string {
	return s.name + "(" + s.table + ")"
}
