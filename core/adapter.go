package core

import (
	"context"
	"reflect"
)

// Record is a single stored record: a flat mapping of field names to values.
type Record map[string]any

// MatchSpec is a partial-field-equality predicate over records, e.g.
// {"id": 1} or {"author": 1}. It may match zero, one, or many records.
type MatchSpec map[string]any

// Adapter defines the interface for data source adapters. Every collection
// backing a composite model is reached exclusively through this contract.
type Adapter interface {
	// Fetch returns all records matching the spec, in the store's natural
	// order. An empty slice (never an error) means nothing matched.
	Fetch(ctx context.Context, match MatchSpec) ([]Record, error)

	// Create inserts a record and returns it as stored. The adapter assigns
	// an identifier when the payload carries none.
	Create(ctx context.Context, data Record) (Record, error)

	// Update merges the patch field-by-field into every matching record and
	// returns the records after the patch was applied.
	Update(ctx context.Context, match MatchSpec, patch Record) ([]Record, error)

	// Delete removes every matching record and returns exactly the records
	// that were removed.
	Delete(ctx context.Context, match MatchSpec) ([]Record, error)
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Apply merges patch fields into the record, overwriting existing values.
func (r Record) Apply(patch Record) {
	for k, v := range patch {
		r[k] = v
	}
}

// Matches reports whether every field in the spec equals the corresponding
// record field.
func (m MatchSpec) Matches(r Record) bool {
	for k, want := range m {
		got, ok := r[k]
		if !ok || !looseEqual(got, want) {
			return false
		}
	}
	return true
}

// looseEqual compares values with numeric widening, so an int seeded as a
// literal matches the int64 a database driver reads back.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
