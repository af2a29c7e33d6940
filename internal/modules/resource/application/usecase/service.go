package usecase

import (
	"context"
	"errors"
	"log/slog"

	query "toursApi/internal/modules/query/domain"
	"toursApi/internal/modules/resource/application/port"
	"toursApi/internal/modules/resource/domain"
	"toursApi/internal/shared/apperror"
	"toursApi/internal/shared/events"
)

const MessageNotFound = "No document found with that ID"

// ListResult is one page of records. Results counts the page, Total the
// whole matching set.
type ListResult struct {
	Records []domain.Document
	Results int
	Total   int64
	Query   query.Query
}

// Service implements the generic operations over one store.
type Service struct {
	store     port.Store
	relation  *domain.Relation
	options   query.Options
	publisher events.Publisher
}

type Option func(*Service)

// WithRelation resolves rel on GetOne.
func WithRelation(rel domain.Relation) Option {
	return func(s *Service) {
		s.relation = &rel
	}
}

func WithQueryOptions(opts query.Options) Option {
	return func(s *Service) {
		s.options = opts
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func NewService(store port.Store, opts ...Option) *Service {
	s := &Service{store: store, publisher: events.Discard{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Store() port.Store {
	return s.store
}

func (s *Service) Schema() *domain.Schema {
	return s.store.Schema()
}

// List translates d and runs it. scope is layered over the client filter,
// so nested routes cannot be widened from the query string.
func (s *Service) List(ctx context.Context, d query.Descriptor, scope query.FilterExpression) (*ListResult, error) {
	q := query.Translate(d, s.options)
	if len(scope) > 0 {
		q.Filter = q.Filter.Merge(scope)
	}
	return s.Run(ctx, q)
}

// Run executes an already translated query.
func (s *Service) Run(ctx context.Context, q query.Query, opts ...port.ReadOption) (*ListResult, error) {
	records, err := s.store.Find(ctx, q, opts...)
	if err != nil {
		return nil, Classify(err)
	}
	total, err := s.store.Count(ctx, q.Filter)
	if err != nil {
		return nil, Classify(err)
	}
	s.present(records...)
	return &ListResult{Records: records, Results: len(records), Total: total, Query: q}, nil
}

func (s *Service) GetOne(ctx context.Context, id string) (domain.Document, error) {
	var opts []port.ReadOption
	if s.relation != nil {
		opts = append(opts, port.WithPopulate(*s.relation))
	}
	doc, err := s.store.FindByID(ctx, id, opts...)
	if err != nil {
		return nil, Classify(err)
	}
	s.present(doc)
	return doc, nil
}

// CreateOne keeps declared fields of payload, fills defaults, validates and
// persists the record.
func (s *Service) CreateOne(ctx context.Context, payload domain.Document) (domain.Document, error) {
	schema := s.store.Schema()
	doc := schema.Strict(payload)
	if schema.Normalize != nil {
		schema.Normalize(doc)
	}
	if schema.Defaults != nil {
		schema.Defaults(doc)
	}
	if schema.Validate != nil {
		if err := schema.Validate(doc); err != nil {
			return nil, Classify(err)
		}
	}
	return s.insert(ctx, doc)
}

// Import persists records as given, identifiers included, without
// validation.
func (s *Service) Import(ctx context.Context, payload domain.Document) (domain.Document, error) {
	schema := s.store.Schema()
	doc := domain.Clone(payload)
	delete(doc, domain.VersionField)
	if schema.Normalize != nil {
		schema.Normalize(doc)
	}
	if schema.Defaults != nil {
		schema.Defaults(doc)
	}
	return s.insert(ctx, doc)
}

func (s *Service) insert(ctx context.Context, doc domain.Document) (domain.Document, error) {
	schema := s.store.Schema()
	if schema.BeforeSave != nil {
		if err := schema.BeforeSave(ctx, doc); err != nil {
			return nil, Classify(err)
		}
	}
	created, err := s.store.Create(ctx, doc)
	if err != nil {
		return nil, Classify(err)
	}
	s.present(created)
	s.publish(ctx, events.ActionCreated, created)
	return created, nil
}

// UpdateOne applies the declared, writable fields of payload. The merged
// record is validated but only the supplied fields are written.
func (s *Service) UpdateOne(ctx context.Context, id string, payload domain.Document) (domain.Document, error) {
	schema := s.store.Schema()
	changes := schema.Writable(payload)
	if schema.Normalize != nil {
		schema.Normalize(changes)
	}

	if schema.Validate != nil {
		current, err := s.store.FindByID(ctx, id, port.WithoutPopulate())
		if err != nil {
			return nil, Classify(err)
		}
		merged := domain.Clone(current)
		for key, value := range changes {
			merged[key] = value
		}
		if err := schema.Validate(merged); err != nil {
			return nil, Classify(err)
		}
	}

	updated, err := s.store.UpdateByID(ctx, id, changes)
	if err != nil {
		return nil, Classify(err)
	}
	s.present(updated)
	s.publish(ctx, events.ActionUpdated, updated)
	return updated, nil
}

func (s *Service) DeleteOne(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return Classify(err)
	}
	s.publish(ctx, events.ActionDeleted, deleted)
	return nil
}

func (s *Service) present(docs ...domain.Document) {
	present := s.store.Schema().Present
	if present == nil {
		return
	}
	for _, doc := range docs {
		if doc != nil {
			present(doc)
		}
	}
}

// publish never fails the request: the write already happened.
func (s *Service) publish(ctx context.Context, action string, doc domain.Document) {
	entity := s.store.Schema().EntityName()
	event := events.New(entity, action, domain.IDOf(doc), doc)
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.Warn("publish event failed",
			slog.String("topic", event.Topic),
			slog.String("resourceId", event.ResourceID),
			slog.Any("error", err),
		)
	}
}

// Classify maps store failures onto application errors.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	var castErr *domain.CastError
	var dupErr *port.DuplicateError
	switch {
	case errors.Is(err, port.ErrRecordNotFound):
		return apperror.NotFound(MessageNotFound)
	case errors.As(err, &castErr):
		return apperror.BadRequest(castErr.Error())
	case errors.As(err, &dupErr):
		return apperror.Conflict(dupErr.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperror.Store("store operation interrupted", err)
	default:
		return apperror.Store("store operation failed", err)
	}
}
