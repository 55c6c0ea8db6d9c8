package recordcache

// Row is a flat, column-name-keyed snapshot of a single record, exactly as
// returned by the fallback store. Values keep whatever representation the
// store produced; the layer never casts them.
type Row map[string]any

// Clone returns a shallow copy of the row. Cached rows are cloned before they
// are handed to callers so that mutations never leak back into the cache.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Value is the unit stored in the cache backend. Exactly one of the two
// fields is set: Row holds a single serialized record, Refs holds the
// primary-key keys of a cached collection (a secondary index entry pointing
// at the individual row entries).
type Value struct {
	Row  Row      `json:"row,omitempty" msgpack:"row,omitempty"`
	Refs []string `json:"refs,omitempty" msgpack:"refs,omitempty"`
}

// isRow reports whether the value carries a single record.
func (v Value) isRow() bool {
	return v.Row != nil && v.Refs == nil
}

// isRefs reports whether the value is an index entry pointing at row keys.
func (v Value) isRefs() bool {
	return v.Refs != nil && v.Row == nil
}

// poisoned reports whether the value has a shape the layer never writes.
// Misbehaving backends have been observed returning degenerate values for
// present keys; such entries are bypassed rather than trusted.
func (v Value) poisoned() bool {
	return !v.isRow() && !v.isRefs()
}
