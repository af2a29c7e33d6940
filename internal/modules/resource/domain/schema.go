package domain

import (
	"context"
	"slices"
	"sort"
	"strings"

	query "toursApi/internal/modules/query/domain"
)

// IndexKey is one key of an index. Geo keys build a spherical index.
type IndexKey struct {
	Field string
	Order int
	Geo   bool
}

type Index struct {
	Keys   []IndexKey
	Unique bool
}

// Schema describes one collection: the fields it accepts and the hooks that
// run around writes.
type Schema struct {
	Collection string
	// Entity names the record type in events. Defaults to Collection.
	Entity string
	Fields map[string]FieldKind
	// Hidden fields are stripped from reads unless explicitly requested.
	Hidden []string
	// Protected fields are ignored by generic updates.
	Protected []string
	// Excluded hides records whose field equals the given value.
	Excluded map[string]any
	Indexes  []Index
	// Populate lists relations resolved on every read.
	Populate []Relation

	// Normalize rewrites every incoming payload, on create and update.
	Normalize func(doc Document)
	// Defaults fills missing values on create.
	Defaults func(doc Document)
	// Validate checks a complete record.
	Validate func(doc Document) error
	// BeforeSave runs after validation on create.
	BeforeSave func(ctx context.Context, doc Document) error
	// Present adds derived fields to outgoing records.
	Present func(doc Document)
}

func (s *Schema) EntityName() string {
	if s.Entity != "" {
		return s.Entity
	}
	return s.Collection
}

// Kind returns the kind of a possibly dotted field path.
func (s *Schema) Kind(field string) FieldKind {
	if field == IDField {
		return KindID
	}
	if kind, ok := s.Fields[field]; ok {
		return kind
	}
	if head, _, nested := strings.Cut(field, "."); nested {
		if _, ok := s.Fields[head]; ok {
			return KindAny
		}
	}
	if field == VersionField {
		return KindNumber
	}
	return KindAny
}

func (s *Schema) Knows(field string) bool {
	_, ok := s.Fields[field]
	return ok
}

func (s *Schema) IsHidden(field string) bool {
	return slices.Contains(s.Hidden, field)
}

// Strict keeps only declared fields. Identifiers and the version counter
// are never accepted from clients.
func (s *Schema) Strict(payload Document) Document {
	out := make(Document, len(payload))
	for key, value := range payload {
		if key == IDField || key == VersionField {
			continue
		}
		if s.Knows(key) {
			out[key] = value
		}
	}
	return out
}

// Writable is Strict minus the protected fields.
func (s *Schema) Writable(payload Document) Document {
	out := s.Strict(payload)
	for _, field := range s.Protected {
		delete(out, field)
	}
	return out
}

// UniqueKeys lists the field sets of the unique indexes.
func (s *Schema) UniqueKeys() [][]string {
	var keys [][]string
	for _, idx := range s.Indexes {
		if !idx.Unique {
			continue
		}
		fields := make([]string, 0, len(idx.Keys))
		for _, k := range idx.Keys {
			fields = append(fields, k.Field)
		}
		keys = append(keys, fields)
	}
	return keys
}

// CastDocument casts every declared field of doc.
func (s *Schema) CastDocument(doc Document) (Document, error) {
	out := make(Document, len(doc))
	for key, value := range doc {
		cast, err := CastValue(key, s.Kind(key), value)
		if err != nil {
			return nil, err
		}
		out[key] = cast
	}
	return out, nil
}

// Op is a comparison understood by the stores.
type Op string

const (
	OpEq  Op = "$eq"
	OpNe  Op = "$ne"
	OpIn  Op = "$in"
	OpGte    = Op(query.OpGte)
	OpGt     = Op(query.OpGt)
	OpLte    = Op(query.OpLte)
	OpLt     = Op(query.OpLt)
)

// Condition is a typed predicate on one field.
type Condition struct {
	Field string
	Op    Op
	Value any
	Kind  FieldKind
}

// Conditions casts a translated filter against the schema. Conditions come
// out ordered by field then operator.
func (s *Schema) Conditions(filter query.FilterExpression) ([]Condition, error) {
	conds := make([]Condition, 0, len(filter))
	for _, field := range filter.Fields() {
		predicate := filter[field]
		kind := s.Kind(field)
		elem := kind.Element()

		switch predicate.Kind {
		case query.PredicateEquals:
			value, err := CastValue(field, elem, predicate.Value)
			if err != nil {
				return nil, err
			}
			conds = append(conds, Condition{Field: field, Op: OpEq, Value: value, Kind: kind})
		case query.PredicateIn:
			values := make([]any, 0, len(predicate.Values))
			for _, raw := range predicate.Values {
				value, err := CastValue(field, elem, raw)
				if err != nil {
					return nil, err
				}
				values = append(values, value)
			}
			conds = append(conds, Condition{Field: field, Op: OpIn, Value: values, Kind: kind})
		case query.PredicateCompare:
			ops := make([]string, 0, len(predicate.Compare))
			for op := range predicate.Compare {
				ops = append(ops, string(op))
			}
			sort.Strings(ops)
			for _, op := range ops {
				value, err := CastValue(field, elem, predicate.Compare[query.Operator(op)])
				if err != nil {
					return nil, err
				}
				conds = append(conds, Condition{Field: field, Op: Op(op), Value: value, Kind: kind})
			}
		}
	}
	return conds, nil
}

// SoftConditions are the conditions hiding excluded records.
func (s *Schema) SoftConditions() []Condition {
	fields := make([]string, 0, len(s.Excluded))
	for field := range s.Excluded {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	conds := make([]Condition, 0, len(fields))
	for _, field := range fields {
		conds = append(conds, Condition{Field: field, Op: OpNe, Value: s.Excluded[field], Kind: s.Kind(field)})
	}
	return conds
}

// Registry resolves schemas by collection name for relation lookups.
type Registry struct {
	schemas map[string]*Schema
}

func NewRegistry(schemas ...*Schema) *Registry {
	r := &Registry{schemas: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		r.Add(s)
	}
	return r
}

func (r *Registry) Add(s *Schema) {
	r.schemas[s.Collection] = s
}

func (r *Registry) Lookup(collection string) (*Schema, bool) {
	s, ok := r.schemas[collection]
	return s, ok
}

func (r *Registry) All() []*Schema {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Schema, 0, len(names))
	for _, name := range names {
		out = append(out, r.schemas[name])
	}
	return out
}
