package core

import (
	"context"
	"fmt"
)

// DefaultQuery is the query name Get and Create run.
const DefaultQuery = "default"

// MutationFunc translates caller intent into an ordered sequence of
// per-source write instructions.
type MutationFunc func(rs *ResolvedSet, args ...any) ([]WriteInstruction, error)

// InitializerFunc produces one source's creation payload from the caller's
// data and the records created by earlier initializers.
type InitializerFunc func(data Record, created *ResolvedSet) (Record, error)

type sourceSpec struct {
	name         string
	adapter      Adapter
	multiplicity Multiplicity
	owned        bool
}

type initializerSpec struct {
	source string
	fn     InitializerFunc
}

// Model is the composite document facade: named sources bound to adapters, a
// mapping function, and registries of queries, mutations and initializers.
// Models are immutable once built and safe for concurrent reads; the engine
// provides no locking for concurrent writes against the same document.
type Model struct {
	sources      []sourceSpec
	sourceIndex  map[string]int
	idField      string
	mapFn        MapFunc
	queries      map[string]*Query
	mutations    map[string]MutationFunc
	initializers []initializerSpec
	bindOrder    []string
}

// ModelBuilder accumulates ordered source, query, mutation and initializer
// declarations. All methods return the builder for chaining; Build validates
// the configuration once and snapshots it into an immutable Model.
type ModelBuilder struct {
	sources      []sourceSpec
	idField      string
	mapFn        MapFunc
	queries      map[string]*Query
	mutations    map[string]MutationFunc
	initializers []initializerSpec
	bindOrder    []string
}

// NewModel creates a model builder. Records are identified by their "id"
// field unless IdentifyBy overrides it.
func NewModel() *ModelBuilder {
	return &ModelBuilder{
		idField:   "id",
		queries:   make(map[string]*Query),
		mutations: make(map[string]MutationFunc),
	}
}

// AddSource registers a source resolving to a single record.
func (mb *ModelBuilder) AddSource(name string, adapter Adapter) *ModelBuilder {
	return mb.addSource(name, adapter, One, false)
}

// AddManySource registers a source resolving to an ordered record sequence.
func (mb *ModelBuilder) AddManySource(name string, adapter Adapter) *ModelBuilder {
	return mb.addSource(name, adapter, Many, false)
}

// AddBoundSource registers a single-record source owned by the document:
// its records are deleted when the document is deleted.
func (mb *ModelBuilder) AddBoundSource(name string, adapter Adapter) *ModelBuilder {
	return mb.addSource(name, adapter, One, true)
}

// AddBoundManySource registers an owned sequence source.
func (mb *ModelBuilder) AddBoundManySource(name string, adapter Adapter) *ModelBuilder {
	return mb.addSource(name, adapter, Many, true)
}

func (mb *ModelBuilder) addSource(name string, adapter Adapter, mult Multiplicity, owned bool) *ModelBuilder {
	mb.sources = append(mb.sources, sourceSpec{name: name, adapter: adapter, multiplicity: mult, owned: owned})
	if owned {
		mb.bindOrder = append(mb.bindOrder, name)
	}
	return mb
}

// BindSources marks previously added sources as owned, in the given order.
// Deletion walks owned sources in binding order.
func (mb *ModelBuilder) BindSources(names ...string) *ModelBuilder {
	mb.bindOrder = append(mb.bindOrder, names...)
	return mb
}

// IdentifyBy sets the field used to identify records for updates and
// cascading deletes.
func (mb *ModelBuilder) IdentifyBy(field string) *ModelBuilder {
	mb.idField = field
	return mb
}

// Map sets the mapping function projecting resolved sources into the view.
func (mb *ModelBuilder) Map(fn MapFunc) *ModelBuilder {
	mb.mapFn = fn
	return mb
}

// AddQuery registers a named query. The query named DefaultQuery backs Get.
func (mb *ModelBuilder) AddQuery(name string, q *Query) *ModelBuilder {
	mb.queries[name] = q
	return mb
}

// AddMutation registers a named mutation function.
func (mb *ModelBuilder) AddMutation(name string, fn MutationFunc) *ModelBuilder {
	mb.mutations[name] = fn
	return mb
}

// AddInitializer registers a creation payload function for one source.
// Initializers run in registration order; later ones read records created by
// earlier ones.
func (mb *ModelBuilder) AddInitializer(source string, fn InitializerFunc) *ModelBuilder {
	mb.initializers = append(mb.initializers, initializerSpec{source: source, fn: fn})
	return mb
}

// Build validates the accumulated declarations and returns the model.
func (mb *ModelBuilder) Build() (*Model, error) {
	if mb.mapFn == nil {
		return nil, fmt.Errorf("build: no mapping function registered")
	}
	if len(mb.sources) == 0 {
		return nil, fmt.Errorf("build: no sources registered")
	}

	sources := make([]sourceSpec, len(mb.sources))
	copy(sources, mb.sources)
	index := make(map[string]int, len(sources))
	for i, s := range sources {
		if s.adapter == nil {
			return nil, fmt.Errorf("build: source %q has no adapter", s.name)
		}
		if _, dup := index[s.name]; dup {
			return nil, fmt.Errorf("build: duplicate source %q", s.name)
		}
		index[s.name] = i
	}

	bound := make(map[string]bool, len(mb.bindOrder))
	for _, name := range mb.bindOrder {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("build: cannot bind unknown source %q", name)
		}
		if bound[name] {
			return nil, fmt.Errorf("build: source %q bound twice", name)
		}
		bound[name] = true
		sources[i].owned = true
	}

	for qname, q := range mb.queries {
		for i, step := range q.steps {
			if _, ok := index[step.source]; !ok {
				return nil, fmt.Errorf("build: query %q step %d targets unknown source %q", qname, i, step.source)
			}
		}
	}
	for _, init := range mb.initializers {
		if _, ok := index[init.source]; !ok {
			return nil, fmt.Errorf("build: initializer targets unknown source %q", init.source)
		}
	}

	queries := make(map[string]*Query, len(mb.queries))
	for name, q := range mb.queries {
		queries[name] = q
	}
	mutations := make(map[string]MutationFunc, len(mb.mutations))
	for name, fn := range mb.mutations {
		mutations[name] = fn
	}
	initializers := make([]initializerSpec, len(mb.initializers))
	copy(initializers, mb.initializers)
	bindOrder := make([]string, len(mb.bindOrder))
	copy(bindOrder, mb.bindOrder)

	return &Model{
		sources:      sources,
		sourceIndex:  index,
		idField:      mb.idField,
		mapFn:        mb.mapFn,
		queries:      queries,
		mutations:    mutations,
		initializers: initializers,
		bindOrder:    bindOrder,
	}, nil
}

func (m *Model) sourceByName(name string) (sourceSpec, bool) {
	i, ok := m.sourceIndex[name]
	if !ok {
		return sourceSpec{}, false
	}
	return m.sources[i], true
}

// identifySpec builds the match spec addressing exactly one resolved record.
func (m *Model) identifySpec(source string, rec Record) (MatchSpec, error) {
	id, ok := rec[m.idField]
	if !ok {
		return nil, fmt.Errorf("source %q: record carries no %q field to identify it", source, m.idField)
	}
	return MatchSpec{m.idField: id}, nil
}

// Get runs the default query with id as input and returns a single document.
func (m *Model) Get(ctx context.Context, id any) (*Document, error) {
	q, ok := m.queries[DefaultQuery]
	if !ok {
		return nil, fmt.Errorf("get: %w: %q", ErrUnknownQuery, DefaultQuery)
	}
	return m.runSingle(ctx, q, id)
}

// QueryOne executes a named single-document query.
func (m *Model) QueryOne(ctx context.Context, name string, args ...any) (*Document, error) {
	q, ok := m.queries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
	}
	if q.multiple {
		return nil, fmt.Errorf("query %q yields multiple documents; use QueryAll", name)
	}
	return m.runSingle(ctx, q, args...)
}

// QueryAll executes a named multi query and returns one document per
// resolved row, in row order. The slice is empty, never nil, when nothing
// matched.
func (m *Model) QueryAll(ctx context.Context, name string, args ...any) ([]*Document, error) {
	q, ok := m.queries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
	}
	if !q.multiple {
		return nil, fmt.Errorf("query %q yields a single document; use QueryOne", name)
	}

	rs, err := m.resolve(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	rows, err := m.splitRows(q, rs)
	if err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(rows))
	for _, row := range rows {
		data, err := m.mapFn(row)
		if err != nil {
			return nil, fmt.Errorf("map: %w", err)
		}
		docs = append(docs, &Document{model: m, query: q, args: args, data: data, sources: row})
	}
	return docs, nil
}

func (m *Model) runSingle(ctx context.Context, q *Query, args ...any) (*Document, error) {
	rs, err := m.resolve(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	data, err := m.mapFn(rs)
	if err != nil {
		return nil, fmt.Errorf("map: %w", err)
	}
	return &Document{model: m, query: q, args: args, data: data, sources: rs}, nil
}

// Create runs the registered initializers in order, each seeing the records
// created before it, then re-reads the document through Get so the creation
// and read paths always agree on shape.
func (m *Model) Create(ctx context.Context, data Record) (*Document, error) {
	if len(m.initializers) == 0 {
		return nil, ErrMissingInitializer
	}
	q, ok := m.queries[DefaultQuery]
	if !ok {
		return nil, fmt.Errorf("create: %w: %q", ErrUnknownQuery, DefaultQuery)
	}
	if q.extractID == nil {
		return nil, fmt.Errorf("create: default query has no id extractor")
	}

	created := NewResolvedSet(data.Clone())
	for _, init := range m.initializers {
		src, ok := m.sourceByName(init.source)
		if !ok {
			return nil, fmt.Errorf("create: initializer targets unknown source %q", init.source)
		}

		payload, err := init.fn(data, created)
		if err != nil {
			return nil, fmt.Errorf("initializer %q: %w", init.source, err)
		}
		rec, err := src.adapter.Create(ctx, payload)
		if err != nil {
			return nil, &AdapterError{Source: src.name, Op: "create", Err: err}
		}

		if src.multiplicity == Many {
			created.put(src.name, manyValue(append(created.Many(src.name), rec)))
		} else {
			created.put(src.name, oneValue(rec))
		}
	}

	id, err := q.extractID(created)
	if err != nil {
		return nil, fmt.Errorf("create: extract id: %w", err)
	}
	return m.Get(ctx, id)
}

// Delete fetches the document for id and cascades deletion of its owned
// sources, returning one report per owned source in binding order.
func (m *Model) Delete(ctx context.Context, id any) ([]DeletionReport, error) {
	doc, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.Delete(ctx)
}
