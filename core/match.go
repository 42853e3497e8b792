package core

// Multiplicity declares whether a source resolves to a single record or an
// ordered sequence of records.
type Multiplicity int

const (
	One Multiplicity = iota
	Many
)

// String returns a string representation of the multiplicity
func (m Multiplicity) String() string {
	if m == Many {
		return "many"
	}
	return "one"
}

type matchKind int

const (
	matchSingle matchKind = iota
	matchEach
	matchGrouped
)

// Match tells the resolver how to fetch one population step's target source.
// The three shapes are an explicit sum rather than being inferred from the
// return value: a single spec, an ordered fan-out, or a nested fan-out with
// one inner sequence per element of an earlier Many source.
type Match struct {
	kind   matchKind
	single MatchSpec
	each   []MatchSpec
	groups [][]MatchSpec
}

// MatchOne resolves the target with a single match spec. Against a Many
// source this fetches the whole matching collection.
func MatchOne(spec MatchSpec) Match {
	return Match{kind: matchSingle, single: spec}
}

// MatchEach fans out: each spec is resolved independently, in the order
// given, and the results are collected into one sequence preserving that
// order.
func MatchEach(specs ...MatchSpec) Match {
	return Match{kind: matchEach, each: specs}
}

// MatchGroups is the nested form of MatchEach: one inner sequence of specs
// per outer element, resolving to a sequence of sequences of records with
// both orderings preserved.
func MatchGroups(groups ...[]MatchSpec) Match {
	return Match{kind: matchGrouped, groups: groups}
}

type valueKind int

const (
	valueOne valueKind = iota
	valueMany
	valueGrouped
)

// Value is a resolved source: one record, an ordered sequence of records, or
// grouped sequences produced by nested fan-out.
type Value struct {
	kind    valueKind
	one     Record
	many    []Record
	grouped [][]Record
}

func oneValue(r Record) Value {
	return Value{kind: valueOne, one: r}
}

func manyValue(rs []Record) Value {
	return Value{kind: valueMany, many: rs}
}

func groupedValue(gs [][]Record) Value {
	return Value{kind: valueGrouped, grouped: gs}
}

// IsMany reports whether the value is an ordered sequence of records.
func (v Value) IsMany() bool {
	return v.kind == valueMany
}

// IsGrouped reports whether the value holds nested fan-out groups.
func (v Value) IsGrouped() bool {
	return v.kind == valueGrouped
}

// Record returns the single resolved record, or nil for sequence values.
func (v Value) Record() Record {
	return v.one
}

// Records returns the resolved sequence, or nil for single or grouped values.
func (v Value) Records() []Record {
	return v.many
}

// Groups returns the nested fan-out groups, or nil otherwise.
func (v Value) Groups() [][]Record {
	return v.grouped
}

// flatten returns every resolved record as one sequence, preserving order.
func (v Value) flatten() []Record {
	switch v.kind {
	case valueMany:
		return v.many
	case valueGrouped:
		var out []Record
		for _, group := range v.grouped {
			out = append(out, group...)
		}
		return out
	default:
		if v.one == nil {
			return nil
		}
		return []Record{v.one}
	}
}
