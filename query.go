package recordcache

import (
	"slices"
	"sort"
)

// Query is a recognized, cacheable query: the canonical attribute/value
// pairs, the index they form, and the resolved cache key(s).
//
// Exactly one of Key and Keys is set. Keys is only produced for primary-key
// IN queries, which fan out to one direct key per id; IDs then carries the
// typed id value behind each key, parallel to Keys, so store refills see
// the primary-key column's type rather than key-text tokens.
type Query struct {
	Schema *Schema
	Pairs  []Pair
	Index  []string
	Limit  int
	Key    string
	Keys   []string
	IDs    []any
}

// Recognize inspects a select plan and decides whether its result can be
// served from cache. It returns the canonical query descriptor and true on
// success; false means the query is uncacheable, which is the expected
// outcome for most real-world queries and not an error.
func Recognize(s *Schema, plan *SelectPlan) (*Query, bool) {
	if s == nil || plan == nil {
		return nil, false
	}
	if plan.Table != s.table {
		return nil, false
	}
	if plan.Or || plan.Joins || plan.GroupBy || plan.Having ||
		plan.Offset || plan.Lock || plan.Distinct || plan.Compound {
		return nil, false
	}
	if plan.Limit < 0 || plan.Limit > 1 {
		return nil, false
	}
	if !orderedByPrimaryKeyAsc(s, plan.OrderBy) {
		return nil, false
	}
	if !coversAllColumns(s, plan.Columns) {
		return nil, false
	}
	if len(plan.Where) == 0 {
		return nil, false
	}

	pairs, ok := extractPairs(s, plan)
	if !ok {
		return nil, false
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Attr < pairs[j].Attr })

	// With more than one condition, an id list can only stand in for a
	// scalar: single-element lists collapse, anything longer is rejected.
	if len(pairs) > 1 {
		for i := range pairs {
			if pairs[i].Values == nil {
				continue
			}
			if len(pairs[i].Values) != 1 {
				return nil, false
			}
			pairs[i].Value = pairs[i].Values[0]
			pairs[i].Values = nil
		}
	}

	index := make([]string, len(pairs))
	for i, p := range pairs {
		index[i] = p.Attr
	}

	q := &Query{Schema: s, Pairs: pairs, Index: index, Limit: plan.Limit}

	if len(pairs) == 1 && pairs[0].Attr == s.primaryKey && pairs[0].Values != nil {
		q.Keys = s.KeyForIDs(pairs[0].Values)
		q.IDs = pairs[0].Values
		return q, true
	}

	q.Key = s.KeyFor(pairs)
	if plan.Limit == 1 && !slices.Contains(index, s.primaryKey) {
		q.Key += firstSuffix
	}
	return q, true
}

// extractPairs converts predicates into attribute/value pairs, resolving
// bind placeholders positionally. IN is only supported on the primary key.
func extractPairs(s *Schema, plan *SelectPlan) ([]Pair, bool) {
	binds := slices.Clone(plan.Binds)
	resolve := func(v any) (any, bool) {
		if _, ok := v.(Placeholder); !ok {
			return v, true
		}
		if len(binds) == 0 {
			return nil, false
		}
		v = binds[0]
		binds = binds[1:]
		return v, true
	}

	pairs := make([]Pair, 0, len(plan.Where))
	for _, pred := range plan.Where {
		switch pred.Op {
		case OpEq:
			v, ok := resolve(pred.Value)
			if !ok {
				return nil, false
			}
			pairs = append(pairs, Pair{Attr: pred.Column, Value: v})
		case OpIn:
			if pred.Column != s.primaryKey {
				return nil, false
			}
			values := make([]any, len(pred.Values))
			for i, raw := range pred.Values {
				v, ok := resolve(raw)
				if !ok {
					return nil, false
				}
				values[i] = v
			}
			pairs = append(pairs, Pair{Attr: pred.Column, Values: values})
		default:
			return nil, false
		}
	}
	return pairs, true
}

// orderedByPrimaryKeyAsc allows no ordering, or ordering that is exactly
// "primary key ascending": the storage order of the rows the cache would
// serve anyway.
func orderedByPrimaryKeyAsc(s *Schema, orders []Order) bool {
	for _, o := range orders {
		if o.Desc || o.Column != s.primaryKey {
			return false
		}
	}
	return true
}

// coversAllColumns accepts the "*" projection or an explicit list covering
// the full column set, order-independent, ignoring duplicates. Partial
// projections produce rows the cache could not faithfully re-serve.
func coversAllColumns(s *Schema, projection []string) bool {
	if len(projection) == 0 {
		return true
	}
	if len(projection) == 1 && projection[0] == "*" {
		return true
	}

	seen := make(map[string]struct{}, len(projection))
	for _, name := range projection {
		seen[name] = struct{}{}
	}
	if len(seen) != len(s.columns) {
		return false
	}
	for _, c := range s.columns {
		if _, ok := seen[c.Name]; !ok {
			return false
		}
	}
	return true
}
