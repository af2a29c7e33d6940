package infrastructure

import (
	"context"
	"sync"

	query "toursApi/internal/modules/query/domain"
	"toursApi/internal/modules/resource/application/port"
	"toursApi/internal/modules/resource/domain"
)

type memoryCollection struct {
	order []string
	docs  map[string]domain.Document
}

// MemoryDatabase keeps every collection in process. It backs tests and the
// "memory" store driver.
type MemoryDatabase struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	registry    *domain.Registry
}

func NewMemoryDatabase(registry *domain.Registry) *MemoryDatabase {
	if registry == nil {
		registry = domain.NewRegistry()
	}
	return &MemoryDatabase{
		collections: make(map[string]*memoryCollection),
		registry:    registry,
	}
}

// Store binds a collection to schema.
func (db *MemoryDatabase) Store(schema *domain.Schema) *MemoryStore {
	if _, ok := db.registry.Lookup(schema.Collection); !ok {
		db.registry.Add(schema)
	}
	return &MemoryStore{db: db, schema: schema}
}

// Snapshot copies every record of a collection in insertion order,
// including excluded and hidden ones.
func (db *MemoryDatabase) Snapshot(collection string) []domain.Document {
	db.mu.RLock()
	defer db.mu.RUnlock()
	coll := db.collections[collection]
	if coll == nil {
		return nil
	}
	out := make([]domain.Document, 0, len(coll.order))
	for _, id := range coll.order {
		out = append(out, domain.Clone(coll.docs[id]))
	}
	return out
}

func (db *MemoryDatabase) collection(name string) *memoryCollection {
	coll := db.collections[name]
	if coll == nil {
		coll = &memoryCollection{docs: make(map[string]domain.Document)}
		db.collections[name] = coll
	}
	return coll
}

// scan returns clones of the records matching conds. Callers hold the lock.
func (db *MemoryDatabase) scan(collection string, conds []domain.Condition) []domain.Document {
	coll := db.collections[collection]
	if coll == nil {
		return nil
	}
	var out []domain.Document
	for _, id := range coll.order {
		doc := coll.docs[id]
		if matchesAll(doc, conds) {
			out = append(out, domain.Clone(doc))
		}
	}
	return out
}

type MemoryStore struct {
	db     *MemoryDatabase
	schema *domain.Schema
}

var _ port.Store = (*MemoryStore)(nil)

func (s *MemoryStore) Schema() *domain.Schema {
	return s.schema
}

func (s *MemoryStore) conditions(filter query.FilterExpression) ([]domain.Condition, error) {
	conds, err := s.schema.Conditions(filter)
	if err != nil {
		return nil, err
	}
	return append(conds, s.schema.SoftConditions()...), nil
}

func (s *MemoryStore) Find(ctx context.Context, q query.Query, opts ...port.ReadOption) ([]domain.Document, error) {
	o := port.ApplyReadOptions(opts)
	conds, err := s.conditions(q.Filter)
	if err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	docs := s.db.scan(s.schema.Collection, conds)
	s.db.mu.RUnlock()

	sortDocuments(docs, q.Sort)
	docs = paginate(docs, q.Page)
	return s.finish(ctx, docs, q.Projection, o)
}

func (s *MemoryStore) Count(_ context.Context, filter query.FilterExpression) (int64, error) {
	conds, err := s.conditions(filter)
	if err != nil {
		return 0, err
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return int64(len(s.db.scan(s.schema.Collection, conds))), nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string, opts ...port.ReadOption) (domain.Document, error) {
	if !domain.ValidID(id) {
		return nil, &domain.CastError{Field: domain.IDField, Value: id}
	}
	return s.FindOne(ctx, query.FilterExpression{domain.IDField: query.Eq(id)}, opts...)
}

func (s *MemoryStore) FindOne(ctx context.Context, filter query.FilterExpression, opts ...port.ReadOption) (domain.Document, error) {
	o := port.ApplyReadOptions(opts)
	conds, err := s.conditions(filter)
	if err != nil {
		return nil, err
	}

	s.db.mu.RLock()
	docs := s.db.scan(s.schema.Collection, conds)
	s.db.mu.RUnlock()

	if len(docs) == 0 {
		return nil, port.ErrRecordNotFound
	}
	out, err := s.finish(ctx, docs[:1], query.ProjectionSpec{}, o)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *MemoryStore) Create(_ context.Context, doc domain.Document) (domain.Document, error) {
	record, err := s.schema.CastDocument(doc)
	if err != nil {
		return nil, err
	}
	id := domain.IDOf(record)
	if id == "" {
		id = domain.NewID()
	}
	record[domain.IDField] = id
	record[domain.VersionField] = 0

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	coll := s.db.collection(s.schema.Collection)
	if _, exists := coll.docs[id]; exists {
		return nil, &port.DuplicateError{Fields: []string{domain.IDField}, Values: []any{id}}
	}
	if err := s.checkUnique(coll, record); err != nil {
		return nil, err
	}
	coll.docs[id] = record
	coll.order = append(coll.order, id)
	return project(domain.Clone(record), readProjection(query.ProjectionSpec{}, s.schema, false)), nil
}

func (s *MemoryStore) UpdateByID(ctx context.Context, id string, changes domain.Document) (domain.Document, error) {
	if !domain.ValidID(id) {
		return nil, &domain.CastError{Field: domain.IDField, Value: id}
	}
	cast, err := s.schema.CastDocument(changes)
	if err != nil {
		return nil, err
	}

	s.db.mu.Lock()
	coll := s.db.collection(s.schema.Collection)
	current, ok := coll.docs[id]
	if !ok || !matchesAll(current, s.schema.SoftConditions()) {
		s.db.mu.Unlock()
		return nil, port.ErrRecordNotFound
	}
	next := domain.Clone(current)
	for path, value := range cast {
		domain.SetPath(next, path, value)
	}
	if err := s.checkUnique(coll, next); err != nil {
		s.db.mu.Unlock()
		return nil, err
	}
	coll.docs[id] = next
	updated := domain.Clone(next)
	s.db.mu.Unlock()

	out, err := s.finish(ctx, []domain.Document{updated}, query.ProjectionSpec{}, port.ReadOptions{})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, id string) (domain.Document, error) {
	if !domain.ValidID(id) {
		return nil, &domain.CastError{Field: domain.IDField, Value: id}
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	coll := s.db.collection(s.schema.Collection)
	current, ok := coll.docs[id]
	if !ok || !matchesAll(current, s.schema.SoftConditions()) {
		return nil, port.ErrRecordNotFound
	}
	delete(coll.docs, id)
	for i, existing := range coll.order {
		if existing == id {
			coll.order = append(coll.order[:i], coll.order[i+1:]...)
			break
		}
	}
	return project(current, readProjection(query.ProjectionSpec{}, s.schema, false)), nil
}

func (s *MemoryStore) DeleteAll(context.Context) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.collections, s.schema.Collection)
	return nil
}

// finish projects and expands records read from the collection.
func (s *MemoryStore) finish(ctx context.Context, docs []domain.Document, spec query.ProjectionSpec, o port.ReadOptions) ([]domain.Document, error) {
	projection := readProjection(spec, s.schema, o.IncludeHidden)
	for i := range docs {
		docs[i] = project(docs[i], projection)
	}
	if err := populate(ctx, s, s.db.registry, docs, o.Relations(s.schema), 0); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

func (s *MemoryStore) findRelated(_ context.Context, schema *domain.Schema, field string, ids []string, projection query.ProjectionSpec) ([]domain.Document, error) {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	conds := append([]domain.Condition{{Field: field, Op: domain.OpIn, Value: values, Kind: schema.Kind(field)}}, schema.SoftConditions()...)

	s.db.mu.RLock()
	docs := s.db.scan(schema.Collection, conds)
	s.db.mu.RUnlock()

	for i := range docs {
		docs[i] = project(docs[i], projection)
	}
	return docs, nil
}

func (s *MemoryStore) checkUnique(coll *memoryCollection, candidate domain.Document) error {
	id := domain.IDOf(candidate)
	for _, fields := range s.schema.UniqueKeys() {
		values := make([]any, 0, len(fields))
		for _, field := range fields {
			value, ok := domain.Lookup(candidate, field)
			if !ok || value == nil {
				values = nil
				break
			}
			values = append(values, value)
		}
		if values == nil {
			continue
		}
		for _, otherID := range coll.order {
			if otherID == id {
				continue
			}
			other := coll.docs[otherID]
			if sameValues(other, fields, values) {
				return &port.DuplicateError{Fields: fields, Values: values}
			}
		}
	}
	return nil
}

func sameValues(doc domain.Document, fields []string, values []any) bool {
	for i, field := range fields {
		value, ok := domain.Lookup(doc, field)
		if !ok {
			return false
		}
		if c, comparable := compareValues(value, values[i]); !comparable || c != 0 {
			return false
		}
	}
	return true
}
