package recordcache

// Op is a predicate operator. Only equality and IN can be recognized;
// any other operator makes the query uncacheable.
type Op int

const (
	OpEq Op = iota
	OpIn
)

// Placeholder marks a bind-parameter position inside a predicate. It is
// resolved positionally against SelectPlan.Binds during recognition.
type Placeholder struct{}

// Order is one ORDER BY term of a select plan.
type Order struct {
	Column string
	Desc   bool
}

// Predicate is a single WHERE condition. Value carries the operand of an
// equality; Values carries the operand list of an IN.
type Predicate struct {
	Column string
	Op     Op
	Value  any
	Values []any
}

// SelectPlan is the normalized shape of a select query, produced by an
// external front-end (an ORM query builder or SQL parser). The layer never
// parses query text itself; it only pattern-matches this closed form.
//
// All predicates are implicitly AND-combined. A front-end that encounters a
// construct this struct cannot express (OR, subquery, HAVING, window
// functions, ...) sets the corresponding flag — or, for constructs with no
// flag, simply declines to build a plan — and the query falls through to
// the store uncached.
type SelectPlan struct {
	// Table the query selects from. Must match the schema's table.
	Table string

	// Columns is the projection list. Empty or a single "*" means all
	// columns; anything else must cover the full column set exactly
	// (order-independent, duplicates ignored).
	Columns []string

	Where   []Predicate
	OrderBy []Order

	// Limit of 0 means no limit. Only 0 and 1 are cacheable.
	Limit int

	// Binds carries positional literal values for Placeholder operands.
	Binds []any

	// Structural flags; any one of them makes the plan uncacheable.
	Or       bool // a non-AND predicate combinator anywhere in the tree
	Joins    bool
	GroupBy  bool
	Having   bool
	Offset   bool
	Lock     bool
	Distinct bool
	Compound bool // more than one query core (UNION and friends)
}
