package core

// InputFunc converts caller-supplied arguments into a query's seed context.
type InputFunc func(args ...any) (Record, error)

// IDFunc derives the primary record's identifier from a resolved context.
// The creation flow uses it to re-fetch the canonical document after insert.
type IDFunc func(rs *ResolvedSet) (any, error)

// ParamFunc computes the match for one population step. It may only read
// sources resolved by strictly earlier steps.
type ParamFunc func(rs *ResolvedSet) (Match, error)

// RowsFunc regroups a fully resolved multi-query context into an ordered
// sequence of per-row contexts, each the input to the mapping function.
type RowsFunc func(rs *ResolvedSet) ([]*ResolvedSet, error)

// MapFunc is the pure projection from resolved sources to the public
// document view.
type MapFunc func(rs *ResolvedSet) (map[string]any, error)

type populateStep struct {
	source string
	params ParamFunc
}

// Query is an ordered population pipeline. Steps execute strictly in
// declaration order; each step computes a match for its target source from
// the sources resolved so far. All configuration methods return the query
// for chaining.
type Query struct {
	multiple  bool
	input     InputFunc
	extractID IDFunc
	steps     []populateStep
	rows      RowsFunc
}

// NewQuery creates a query that yields exactly one document.
func NewQuery() *Query {
	return &Query{}
}

// NewMultiQuery creates a query that yields zero or more documents.
func NewMultiQuery() *Query {
	return &Query{multiple: true}
}

// Input sets the function converting caller arguments into the seed context.
func (q *Query) Input(fn InputFunc) *Query {
	q.input = fn
	return q
}

// ExtractID sets the function deriving the canonical identifier from a
// resolved context. Only the creation flow uses it.
func (q *Query) ExtractID(fn IDFunc) *Query {
	q.extractID = fn
	return q
}

// Populate appends a population step targeting the named source.
func (q *Query) Populate(source string, fn ParamFunc) *Query {
	q.steps = append(q.steps, populateStep{source: source, params: fn})
	return q
}

// MapRows sets the regrouping function for multi queries. Without it, a
// multi query splits rows on its first Many-multiplicity source.
func (q *Query) MapRows(fn RowsFunc) *Query {
	q.rows = fn
	return q
}

// Multiple reports whether the query yields zero or more documents.
func (q *Query) Multiple() bool {
	return q.multiple
}
