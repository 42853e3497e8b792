// Package memory provides an insertion-ordered in-memory source adapter,
// used as the default backing store in tests and examples.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/docstitch/stitch/core"
)

// Adapter implements core.Adapter over an in-memory record slice. Records
// keep insertion order; all returned records are copies, so callers never
// alias the store.
type Adapter struct {
	mu      sync.Mutex
	idField string
	records []core.Record
}

// New creates an empty adapter identifying records by their "id" field.
func New() *Adapter {
	return &Adapter{idField: "id"}
}

// NewWithIDField creates an adapter assigning generated identifiers to the
// given field instead of "id".
func NewWithIDField(field string) *Adapter {
	return &Adapter{idField: field}
}

// Seed inserts records as given, without assigning identifiers. Returns the
// adapter for chaining.
func (a *Adapter) Seed(records ...core.Record) *Adapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range records {
		a.records = append(a.records, r.Clone())
	}
	return a
}

// Len returns the number of stored records.
func (a *Adapter) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Fetch returns copies of all matching records in insertion order.
func (a *Adapter) Fetch(ctx context.Context, match core.MatchSpec) ([]core.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]core.Record, 0)
	for _, r := range a.records {
		if match.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// Create stores a copy of data, assigning a uuid identifier when the payload
// carries none, and returns the stored record.
func (a *Adapter) Create(ctx context.Context, data core.Record) (core.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := data.Clone()
	if rec == nil {
		rec = core.Record{}
	}
	if _, ok := rec[a.idField]; !ok {
		rec[a.idField] = uuid.NewString()
	}
	a.records = append(a.records, rec)
	return rec.Clone(), nil
}

// Update merges the patch into every matching record and returns copies of
// the patched records.
func (a *Adapter) Update(ctx context.Context, match core.MatchSpec, patch core.Record) ([]core.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]core.Record, 0)
	for _, r := range a.records {
		if match.Matches(r) {
			r.Apply(patch)
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// Delete removes every matching record and returns copies of exactly the
// removed records.
func (a *Adapter) Delete(ctx context.Context, match core.MatchSpec) ([]core.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := make([]core.Record, 0, len(a.records))
	removed := make([]core.Record, 0)
	for _, r := range a.records {
		if match.Matches(r) {
			removed = append(removed, r.Clone())
		} else {
			kept = append(kept, r)
		}
	}
	a.records = kept
	return removed, nil
}
