package core

// ResolvedSet is the context a query builds up while populating: an ordered
// mapping from source name to its resolved value, plus the seed record the
// query's input function produced. Population callbacks read earlier sources
// from it; the mapping function projects it into the public view.
type ResolvedSet struct {
	input  Record
	order  []string
	values map[string]Value
}

// NewResolvedSet creates an empty context with the given input seed. Row
// regrouping functions use it to assemble per-row contexts.
func NewResolvedSet(input Record) *ResolvedSet {
	if input == nil {
		input = Record{}
	}
	return &ResolvedSet{input: input, values: make(map[string]Value)}
}

// Input returns the seed record produced by the query's input function.
func (rs *ResolvedSet) Input() Record {
	return rs.input
}

// Names returns the source names in resolution order.
func (rs *ResolvedSet) Names() []string {
	out := make([]string, len(rs.order))
	copy(out, rs.order)
	return out
}

// Has reports whether the named source has been resolved.
func (rs *ResolvedSet) Has(name string) bool {
	_, ok := rs.values[name]
	return ok
}

// Value returns the tagged resolved value for a source.
func (rs *ResolvedSet) Value(name string) (Value, bool) {
	v, ok := rs.values[name]
	return v, ok
}

// One returns the single record resolved for a source, or nil.
func (rs *ResolvedSet) One(name string) Record {
	return rs.values[name].one
}

// Many returns the record sequence resolved for a source, or nil.
func (rs *ResolvedSet) Many(name string) []Record {
	return rs.values[name].many
}

// Groups returns the nested fan-out groups resolved for a source, or nil.
func (rs *ResolvedSet) Groups(name string) [][]Record {
	return rs.values[name].grouped
}

// SetOne stores a single record under name. Returns the set for chaining.
func (rs *ResolvedSet) SetOne(name string, rec Record) *ResolvedSet {
	rs.put(name, oneValue(rec))
	return rs
}

// SetMany stores an ordered record sequence under name.
func (rs *ResolvedSet) SetMany(name string, recs []Record) *ResolvedSet {
	rs.put(name, manyValue(recs))
	return rs
}

// SetGroups stores nested fan-out groups under name.
func (rs *ResolvedSet) SetGroups(name string, groups [][]Record) *ResolvedSet {
	rs.put(name, groupedValue(groups))
	return rs
}

func (rs *ResolvedSet) put(name string, v Value) {
	if _, ok := rs.values[name]; !ok {
		rs.order = append(rs.order, name)
	}
	rs.values[name] = v
}
