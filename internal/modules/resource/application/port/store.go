package port

import (
	"context"
	"errors"
	"fmt"
	"strings"

	query "toursApi/internal/modules/query/domain"
	"toursApi/internal/modules/resource/domain"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate key")
	ErrInvalidID      = domain.ErrInvalidID
	ErrCast           = domain.ErrCast
)

// DuplicateError reports a write that would break a unique index.
type DuplicateError struct {
	Fields []string
	Values []any
}

func (e *DuplicateError) Error() string {
	values := make([]string, 0, len(e.Values))
	for _, v := range e.Values {
		values = append(values, fmt.Sprintf("%q", fmt.Sprint(v)))
	}
	return fmt.Sprintf("Duplicate field value: %s. Please use another value!", strings.Join(values, ", "))
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// ReadOptions tune how records are returned.
type ReadOptions struct {
	Populate       []domain.Relation
	IncludeHidden  bool
	SkipAutoExpand bool
}

type ReadOption func(*ReadOptions)

// WithPopulate resolves extra relations on top of the schema's own.
func WithPopulate(relations ...domain.Relation) ReadOption {
	return func(o *ReadOptions) {
		o.Populate = append(o.Populate, relations...)
	}
}

// WithHidden keeps hidden fields in the result.
func WithHidden() ReadOption {
	return func(o *ReadOptions) {
		o.IncludeHidden = true
	}
}

// WithoutPopulate returns references as stored identifiers.
func WithoutPopulate() ReadOption {
	return func(o *ReadOptions) {
		o.SkipAutoExpand = true
	}
}

func ApplyReadOptions(opts []ReadOption) ReadOptions {
	var o ReadOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Relations returns the relations to resolve for a read.
func (o ReadOptions) Relations(schema *domain.Schema) []domain.Relation {
	if o.SkipAutoExpand {
		return nil
	}
	out := make([]domain.Relation, 0, len(schema.Populate)+len(o.Populate))
	out = append(out, schema.Populate...)
	return append(out, o.Populate...)
}

// Store persists the records of one collection. Records excluded by the
// schema are invisible to every method.
type Store interface {
	Schema() *domain.Schema
	Find(ctx context.Context, q query.Query, opts ...ReadOption) ([]domain.Document, error)
	Count(ctx context.Context, filter query.FilterExpression) (int64, error)
	FindByID(ctx context.Context, id string, opts ...ReadOption) (domain.Document, error)
	FindOne(ctx context.Context, filter query.FilterExpression, opts ...ReadOption) (domain.Document, error)
	Create(ctx context.Context, doc domain.Document) (domain.Document, error)
	// UpdateByID sets the given fields and returns the updated record.
	UpdateByID(ctx context.Context, id string, changes domain.Document) (domain.Document, error)
	// DeleteByID removes the record and returns it as it was.
	DeleteByID(ctx context.Context, id string) (domain.Document, error)
	DeleteAll(ctx context.Context) error
}
