package core

import (
	"context"
	"fmt"
)

// WriteOp selects what a write instruction does to its source.
type WriteOp int

const (
	// OpUpdate merges the instruction's data into the records the document
	// was resolved from.
	OpUpdate WriteOp = iota
	// OpCreate inserts the instruction's data as a new record.
	OpCreate
	// OpDelete removes the records matching the instruction's data used as
	// a match spec.
	OpDelete
)

// String returns a string representation of the write operation
func (op WriteOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpDelete:
		return "delete"
	default:
		return "update"
	}
}

// WriteInstruction is one per-source write produced by a mutation function.
// Instructions apply sequentially in the order the function returned them.
type WriteInstruction struct {
	Source string
	Op     WriteOp
	Data   Record
}

// DeletionReport records what deleting a document removed from one owned
// source.
type DeletionReport struct {
	Source  string
	Deleted []Record
}

// Document is an immutable materialized query result: the mapped view, the
// raw per-source records it was built from, and enough context to mutate or
// delete it. Mutation never changes the receiver; it yields a new Document.
type Document struct {
	model   *Model
	query   *Query
	args    []any
	data    map[string]any
	sources *ResolvedSet
}

// Data returns the mapped view object. Callers must treat it as read-only.
func (d *Document) Data() map[string]any {
	return d.data
}

// Sources returns the resolved raw records the view was mapped from. They
// are internal state, never the public document shape.
func (d *Document) Sources() *ResolvedSet {
	return d.sources
}

// Mutate looks up the named mutation, applies the write instructions it
// produces in order, then re-runs the owning query and returns the fresh
// document. Writes stop at the first failure; earlier writes are not rolled
// back.
func (d *Document) Mutate(ctx context.Context, name string, args ...any) (*Document, error) {
	fn, ok := d.model.mutations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMutation, name)
	}

	instructions, err := fn(d.sources, args...)
	if err != nil {
		return nil, fmt.Errorf("mutation %q: %w", name, err)
	}
	for _, ins := range instructions {
		if err := d.apply(ctx, ins); err != nil {
			return nil, err
		}
	}
	return d.refresh(ctx)
}

func (d *Document) apply(ctx context.Context, ins WriteInstruction) error {
	src, ok := d.model.sourceByName(ins.Source)
	if !ok {
		return fmt.Errorf("write targets unknown source %q", ins.Source)
	}

	switch ins.Op {
	case OpCreate:
		if _, err := src.adapter.Create(ctx, ins.Data); err != nil {
			return &AdapterError{Source: src.name, Op: "create", Err: err}
		}
	case OpDelete:
		if _, err := src.adapter.Delete(ctx, MatchSpec(ins.Data)); err != nil {
			return &AdapterError{Source: src.name, Op: "delete", Err: err}
		}
	default:
		val, ok := d.sources.Value(src.name)
		if !ok {
			return fmt.Errorf("update targets source %q, which this document did not resolve", src.name)
		}
		for _, rec := range val.flatten() {
			spec, err := d.model.identifySpec(src.name, rec)
			if err != nil {
				return err
			}
			if _, err := src.adapter.Update(ctx, spec, ins.Data); err != nil {
				return &AdapterError{Source: src.name, Op: "update", Err: err}
			}
		}
	}
	return nil
}

// refresh re-runs the owning query against the sources and maps a new
// document; the receiver stays the pre-write snapshot. For multi queries the
// row carrying this document's primary record is selected.
func (d *Document) refresh(ctx context.Context) (*Document, error) {
	if !d.query.multiple {
		return d.model.runSingle(ctx, d.query, d.args...)
	}

	rowsSrc, err := d.model.rowsSource(d.query)
	if err != nil {
		return nil, err
	}
	cur := d.sources.One(rowsSrc)
	if cur == nil {
		return nil, fmt.Errorf("source %q: %w", rowsSrc, ErrNotFound)
	}
	spec, err := d.model.identifySpec(rowsSrc, cur)
	if err != nil {
		return nil, err
	}

	rs, err := d.model.resolve(ctx, d.query, d.args...)
	if err != nil {
		return nil, err
	}
	rows, err := d.model.splitRows(d.query, rs)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if rec := row.One(rowsSrc); rec != nil && spec.Matches(rec) {
			data, err := d.model.mapFn(row)
			if err != nil {
				return nil, fmt.Errorf("map: %w", err)
			}
			return &Document{model: d.model, query: d.query, args: d.args, data: data, sources: row}, nil
		}
	}
	return nil, fmt.Errorf("source %q: %w", rowsSrc, ErrNotFound)
}

// Delete removes the document's owned sources' records, in binding order,
// and returns one report per owned source. Unowned sources are never
// touched.
func (d *Document) Delete(ctx context.Context) ([]DeletionReport, error) {
	reports := make([]DeletionReport, 0, len(d.model.bindOrder))
	for _, name := range d.model.bindOrder {
		src, ok := d.model.sourceByName(name)
		if !ok {
			return nil, fmt.Errorf("bound source %q is not registered", name)
		}
		val, ok := d.sources.Value(name)
		if !ok {
			// Owned but not resolved by this document's query: nothing
			// identifiable to delete.
			continue
		}

		deleted := make([]Record, 0)
		for _, rec := range val.flatten() {
			spec, err := d.model.identifySpec(name, rec)
			if err != nil {
				return nil, err
			}
			removed, err := src.adapter.Delete(ctx, spec)
			if err != nil {
				return nil, &AdapterError{Source: name, Op: "delete", Err: err}
			}
			deleted = append(deleted, removed...)
		}
		reports = append(reports, DeletionReport{Source: name, Deleted: deleted})
	}
	return reports, nil
}
