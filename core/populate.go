package core

import (
	"context"
	"fmt"
)

// resolve runs a query's population pipeline: seed the context from the
// input function, then execute every step in declaration order. A step only
// starts once the previous one completed, because its ParamFunc may read any
// earlier source.
func (m *Model) resolve(ctx context.Context, q *Query, args ...any) (*ResolvedSet, error) {
	seed := Record{}
	if q.input != nil {
		var err error
		seed, err = q.input(args...)
		if err != nil {
			return nil, fmt.Errorf("query input: %w", err)
		}
	}

	rs := NewResolvedSet(seed)
	for i, step := range q.steps {
		src, ok := m.sourceByName(step.source)
		if !ok {
			return nil, fmt.Errorf("step %d: unknown source %q", i, step.source)
		}

		match, err := step.params(rs)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.source, err)
		}

		val, err := m.resolveMatch(ctx, src, match)
		if err != nil {
			return nil, err
		}
		rs.put(src.name, val)
	}
	return rs, nil
}

// resolveMatch fetches one source according to its multiplicity and the
// match shape the step produced.
func (m *Model) resolveMatch(ctx context.Context, src sourceSpec, match Match) (Value, error) {
	if src.multiplicity == One {
		if match.kind != matchSingle {
			return Value{}, fmt.Errorf("source %q resolves to a single record; population must produce a single match spec", src.name)
		}
		recs, err := src.adapter.Fetch(ctx, match.single)
		if err != nil {
			return Value{}, &AdapterError{Source: src.name, Op: "fetch", Err: err}
		}
		if len(recs) == 0 {
			return Value{}, fmt.Errorf("source %q: %w", src.name, ErrNotFound)
		}
		return oneValue(recs[0]), nil
	}

	switch match.kind {
	case matchEach:
		// Fan-out: one fetch per spec, results collected in spec order.
		out := make([]Record, 0, len(match.each))
		for _, spec := range match.each {
			recs, err := src.adapter.Fetch(ctx, spec)
			if err != nil {
				return Value{}, &AdapterError{Source: src.name, Op: "fetch", Err: err}
			}
			out = append(out, recs...)
		}
		return manyValue(out), nil
	case matchGrouped:
		groups := make([][]Record, 0, len(match.groups))
		for _, group := range match.groups {
			inner := make([]Record, 0, len(group))
			for _, spec := range group {
				recs, err := src.adapter.Fetch(ctx, spec)
				if err != nil {
					return Value{}, &AdapterError{Source: src.name, Op: "fetch", Err: err}
				}
				inner = append(inner, recs...)
			}
			groups = append(groups, inner)
		}
		return groupedValue(groups), nil
	default:
		recs, err := src.adapter.Fetch(ctx, match.single)
		if err != nil {
			return Value{}, &AdapterError{Source: src.name, Op: "fetch", Err: err}
		}
		return manyValue(recs), nil
	}
}

// splitRows turns a resolved multi-query context into per-row contexts.
// With no MapRows function, rows come from the query's first Many source:
// each of its records becomes one row, grouped sources resolved later are
// sliced index-aligned into the row, everything else is copied as-is.
func (m *Model) splitRows(q *Query, rs *ResolvedSet) ([]*ResolvedSet, error) {
	if q.rows != nil {
		return q.rows(rs)
	}

	rowsSrc, err := m.rowsSource(q)
	if err != nil {
		return nil, err
	}

	recs := rs.Many(rowsSrc)
	rows := make([]*ResolvedSet, 0, len(recs))
	for i, rec := range recs {
		row := NewResolvedSet(rs.input)
		for _, name := range rs.order {
			v := rs.values[name]
			switch {
			case name == rowsSrc:
				row.put(name, oneValue(rec))
			case v.kind == valueGrouped && len(v.grouped) == len(recs):
				row.put(name, manyValue(v.grouped[i]))
			default:
				row.put(name, v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// rowsSource is the source a multi query splits rows on: the first populated
// source with Many multiplicity.
func (m *Model) rowsSource(q *Query) (string, error) {
	for _, step := range q.steps {
		if src, ok := m.sourceByName(step.source); ok && src.multiplicity == Many {
			return src.name, nil
		}
	}
	return "", fmt.Errorf("query populates no many-multiplicity source to split rows on")
}
