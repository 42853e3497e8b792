package core

import (
	"context"
	"fmt"
	"sync"
)

// fakeAdapter is a minimal in-package store for exercising the engine
// without pulling in a real adapter. It keeps insertion order, assigns
// sequential integer ids on create, and can be told to fail an operation.
type fakeAdapter struct {
	mu      sync.Mutex
	records []Record
	nextID  int
	failOp  string // "fetch", "create", "update" or "delete"
	calls   []string
}

func newFakeAdapter(records ...Record) *fakeAdapter {
	a := &fakeAdapter{nextID: 1000}
	for _, r := range records {
		a.records = append(a.records, r.Clone())
	}
	return a
}

func (a *fakeAdapter) failOn(op string) *fakeAdapter {
	a.failOp = op
	return a
}

func (a *fakeAdapter) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

func (a *fakeAdapter) record(op string, match MatchSpec) error {
	a.calls = append(a.calls, fmt.Sprintf("%s %v", op, match))
	if a.failOp == op {
		return fmt.Errorf("injected %s failure", op)
	}
	return nil
}

func (a *fakeAdapter) Fetch(ctx context.Context, match MatchSpec) ([]Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record("fetch", match); err != nil {
		return nil, err
	}
	out := make([]Record, 0)
	for _, r := range a.records {
		if match.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (a *fakeAdapter) Create(ctx context.Context, data Record) (Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record("create", nil); err != nil {
		return nil, err
	}
	rec := data.Clone()
	if rec == nil {
		rec = Record{}
	}
	if _, ok := rec["id"]; !ok {
		rec["id"] = a.nextID
		a.nextID++
	}
	a.records = append(a.records, rec)
	return rec.Clone(), nil
}

func (a *fakeAdapter) Update(ctx context.Context, match MatchSpec, patch Record) ([]Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record("update", match); err != nil {
		return nil, err
	}
	out := make([]Record, 0)
	for _, r := range a.records {
		if match.Matches(r) {
			r.Apply(patch)
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (a *fakeAdapter) Delete(ctx context.Context, match MatchSpec) ([]Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.record("delete", match); err != nil {
		return nil, err
	}
	kept := make([]Record, 0, len(a.records))
	removed := make([]Record, 0)
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
