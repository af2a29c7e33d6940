package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	query "toursApi/internal/modules/query/domain"
	"toursApi/internal/modules/resource/application/port"
	"toursApi/internal/modules/resource/domain"
)

// MongoStore persists one collection in MongoDB.
type MongoStore struct {
	db       *mongo.Database
	coll     *mongo.Collection
	schema   *domain.Schema
	registry *domain.Registry
}

var _ port.Store = (*MongoStore)(nil)

func NewMongoStore(db *mongo.Database, schema *domain.Schema, registry *domain.Registry) *MongoStore {
	if registry == nil {
		registry = domain.NewRegistry(schema)
	}
	return &MongoStore{
		db:       db,
		coll:     db.Collection(schema.Collection),
		schema:   schema,
		registry: registry,
	}
}

func (s *MongoStore) Schema() *domain.Schema {
	return s.schema
}

func (s *MongoStore) Name() string {
	return s.schema.Collection
}

// Collection exposes the driver collection for aggregations.
func (s *MongoStore) Collection() *mongo.Collection {
	return s.coll
}

// EnsureIndexes creates the schema's indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if len(s.schema.Indexes) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(s.schema.Indexes))
	for _, idx := range s.schema.Indexes {
		keys := make(bson.D, 0, len(idx.Keys))
		for _, k := range idx.Keys {
			var value any = k.Order
			if k.Geo {
				value = "2dsphere"
			} else if k.Order == 0 {
				value = 1
			}
			keys = append(keys, bson.E{Key: k.Field, Value: value})
		}
		model := mongo.IndexModel{Keys: keys}
		if idx.Unique {
			model.Options = options.Index().SetUnique(true)
		}
		models = append(models, model)
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes on %s: %w", s.schema.Collection, err)
	}
	return nil
}

func (s *MongoStore) filter(schema *domain.Schema, expr query.FilterExpression) (bson.M, error) {
	conds, err := schema.Conditions(expr)
	if err != nil {
		return nil, err
	}
	base, err := encodeConditions(conds)
	if err != nil {
		return nil, err
	}
	soft, err := encodeConditions(schema.SoftConditions())
	if err != nil {
		return nil, err
	}
	return combineFilters(base, soft), nil
}

func (s *MongoStore) Find(ctx context.Context, q query.Query, opts ...port.ReadOption) ([]domain.Document, error) {
	o := port.ApplyReadOptions(opts)
	filter, err := s.filter(s.schema, q.Filter)
	if err != nil {
		return nil, err
	}

	findOpts := options.Find().SetSort(sortDocument(q.Sort))
	if projection := projectionDocument(readProjection(q.Projection, s.schema, o.IncludeHidden)); projection != nil {
		findOpts.SetProjection(projection)
	}
	if skip := q.Page.Skip(); skip > 0 {
		findOpts.SetSkip(int64(skip))
	}
	if q.Page.Limit > 0 {
		findOpts.SetLimit(int64(q.Page.Limit))
	}

	docs, err := s.findAll(ctx, s.coll, filter, findOpts)
	if err != nil {
		return nil, err
	}
	if err := populate(ctx, s, s.registry, docs, o.Relations(s.schema), 0); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *MongoStore) findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]domain.Document, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	docs := make([]domain.Document, 0, len(raw))
	for _, r := range raw {
		docs = append(docs, DecodeDocument(r))
	}
	return docs, nil
}

func (s *MongoStore) Count(ctx context.Context, expr query.FilterExpression) (int64, error) {
	filter, err := s.filter(s.schema, expr)
	if err != nil {
		return 0, err
	}
	n, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.schema.Collection, err)
	}
	return n, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string, opts ...port.ReadOption) (domain.Document, error) {
	if !domain.ValidID(id) {
		return nil, &domain.CastError{Field: domain.IDField, Value: id}
	}
	return s.FindOne(ctx, query.FilterExpression{domain.IDField: query.Eq(id)}, opts...)
}

func (s *MongoStore) FindOne(ctx context.Context, expr query.FilterExpression, opts ...port.ReadOption) (domain.Document, error) {
	o := port.ApplyReadOptions(opts)
	filter, err := s.filter(s.schema, expr)
	if err != nil {
		return nil, err
	}
	findOpts := options.FindOne()
	if projection := projectionDocument(readProjection(query.ProjectionSpec{}, s.schema, o.IncludeHidden)); projection != nil {
		findOpts.SetProjection(projection)
	}

	var raw bson.M
	if err := s.coll.FindOne(ctx, filter, findOpts).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, port.ErrRecordNotFound
		}
		return nil, fmt.Errorf("find one %s: %w", s.schema.Collection, err)
	}
	docs := []domain.Document{DecodeDocument(raw)}
	if err := populate(ctx, s, s.registry, docs, o.Relations(s.schema), 0); err != nil {
		return nil, err
	}
	return docs[0], nil
}

func (s *MongoStore) Create(ctx context.Context, doc domain.Document) (domain.Document, error) {
	record, err := s.schema.CastDocument(doc)
	if err != nil {
		return nil, err
	}
	if domain.IDOf(record) == "" {
		record[domain.IDField] = domain.NewID()
	}
	record[domain.VersionField] = 0

	encoded, err := encodeDocument(s.schema, record)
	if err != nil {
		return nil, err
	}
	if _, err := s.coll.InsertOne(ctx, encoded); err != nil {
		return nil, s.writeError("insert", err)
	}
	return project(record, readProjection(query.ProjectionSpec{}, s.schema, false)), nil
}

func (s *MongoStore) UpdateByID(ctx context.Context, id string, changes domain.Document) (domain.Document, error) {
	oid, err := objectID(domain.IDField, id)
	if err != nil {
		return nil, err
	}
	cast, err := s.schema.CastDocument(changes)
	if err != nil {
		return nil, err
	}
	set, err := encodeDocument(s.schema, cast)
	if err != nil {
		return nil, err
	}
	filter, err := s.filter(s.schema, nil)
	if err != nil {
		return nil, err
	}
	filter = combineFilters(bson.M{domain.IDField: oid}, filter)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if projection := projectionDocument(readProjection(query.ProjectionSpec{}, s.schema, false)); projection != nil {
		opts.SetProjection(projection)
	}
	update := bson.M{"$set": set}
	if len(set) == 0 {
		update = bson.M{"$set": bson.M{domain.IDField: oid}}
	}

	var raw bson.M
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, port.ErrRecordNotFound
		}
		return nil, s.writeError("update", err)
	}
	docs := []domain.Document{DecodeDocument(raw)}
	if err := populate(ctx, s, s.registry, docs, s.schema.Populate, 0); err != nil {
		return nil, err
	}
	return docs[0], nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, id string) (domain.Document, error) {
	oid, err := objectID(domain.IDField, id)
	if err != nil {
		return nil, err
	}
	soft, err := s.filter(s.schema, nil)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndDelete()
	if projection := projectionDocument(readProjection(query.ProjectionSpec{}, s.schema, false)); projection != nil {
		opts.SetProjection(projection)
	}

	var raw bson.M
	if err := s.coll.FindOneAndDelete(ctx, combineFilters(bson.M{domain.IDField: oid}, soft), opts).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, port.ErrRecordNotFound
		}
		return nil, fmt.Errorf("delete %s: %w", s.schema.Collection, err)
	}
	return DecodeDocument(raw), nil
}

func (s *MongoStore) DeleteAll(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("delete all %s: %w", s.schema.Collection, err)
	}
	return nil
}

func (s *MongoStore) findRelated(ctx context.Context, schema *domain.Schema, field string, ids []string, projection query.ProjectionSpec) ([]domain.Document, error) {
	values := make(bson.A, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		values = append(values, oid)
	}
	soft, err := s.filter(schema, nil)
	if err != nil {
		return nil, err
	}
	filter := combineFilters(bson.M{field: bson.M{"$in": values}}, soft)

	opts := options.Find()
	if doc := projectionDocument(projection); doc != nil {
		opts.SetProjection(doc)
	}
	return s.findAll(ctx, s.db.Collection(schema.Collection), filter, opts)
}

func (s *MongoStore) writeError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		fields, values := parseDupKey(err.Error())
		return &port.DuplicateError{Fields: fields, Values: values}
	}
	return fmt.Errorf("%s %s: %w", op, s.schema.Collection, err)
}
