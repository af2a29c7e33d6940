package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	query "toursApi/internal/modules/query/domain"
	"toursApi/internal/modules/resource/domain"
)

func codecSchema() *domain.Schema {
	return &domain.Schema{
		Collection: "tours",
		Fields: map[string]domain.FieldKind{
			"name":     domain.KindString,
			"duration": domain.KindNumber,
			"price":    domain.KindNumber,
			"guides":   domain.KindRefList,
		},
	}
}

func mustObjectID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	oid, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return oid
}

func TestEncodeConditions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		conds []domain.Condition
		want  bson.M
	}{
		{
			name: "equality",
			conds: []domain.Condition{
				{Field: "name", Op: domain.OpEq, Value: "The Forest Hiker", Kind: domain.KindString},
			},
			want: bson.M{"name": "The Forest Hiker"},
		},
		{
			name: "range on one field",
			conds: []domain.Condition{
				{Field: "duration", Op: domain.OpGte, Value: 5.0, Kind: domain.KindNumber},
				{Field: "duration", Op: domain.OpLt, Value: 9.0, Kind: domain.KindNumber},
			},
			want: bson.M{"duration": bson.M{"$gte": 5.0, "$lt": 9.0}},
		},
		{
			name: "equality before comparison",
			conds: []domain.Condition{
				{Field: "price", Op: domain.OpEq, Value: 1.0, Kind: domain.KindNumber},
				{Field: "price", Op: domain.OpGte, Value: 2.0, Kind: domain.KindNumber},
			},
			want: bson.M{"price": bson.M{"$eq": 1.0, "$gte": 2.0}},
		},
		{
			name: "equality after comparison",
			conds: []domain.Condition{
				{Field: "price", Op: domain.OpLte, Value: 3.0, Kind: domain.KindNumber},
				{Field: "price", Op: domain.OpEq, Value: 1.0, Kind: domain.KindNumber},
			},
			want: bson.M{"price": bson.M{"$eq": 1.0, "$lte": 3.0}},
		},
		{
			name: "not equal",
			conds: []domain.Condition{
				{Field: "active", Op: domain.OpNe, Value: false, Kind: domain.KindBool},
			},
			want: bson.M{"active": bson.M{"$ne": false}},
		},
		{
			name:  "empty",
			conds: nil,
			want:  bson.M{},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := encodeConditions(tc.conds)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeConditionsFromQueryString(t *testing.T) {
	t.Parallel()

	q := query.Translate(query.ParseDescriptor("duration[gte]=5&duration[lt]=9"), query.Options{})
	conds, err := codecSchema().Conditions(q.Filter)
	require.NoError(t, err)

	got, err := encodeConditions(conds)
	require.NoError(t, err)
	assert.Equal(t, bson.M{"duration": bson.M{"$gte": 5.0, "$lt": 9.0}}, got)
}

func TestEncodeConditionsIDsBecomeObjectIDs(t *testing.T) {
	t.Parallel()

	first, second := domain.NewID(), domain.NewID()
	conds, err := codecSchema().Conditions(query.FilterExpression{domain.IDField: query.In(first, second)})
	require.NoError(t, err)

	got, err := encodeConditions(conds)
	require.NoError(t, err)
	want := bson.M{domain.IDField: bson.M{"$in": bson.A{mustObjectID(t, first), mustObjectID(t, second)}}}
	assert.Equal(t, want, got)
}

func TestEncodeConditionsRejectsBadID(t *testing.T) {
	t.Parallel()

	_, err := encodeConditions([]domain.Condition{
		{Field: domain.IDField, Op: domain.OpEq, Value: "not-an-id", Kind: domain.KindID},
	})
	var castErr *domain.CastError
	require.ErrorAs(t, err, &castErr)
	if castErr.Field != domain.IDField {
		t.Fatalf("expected field %q, got %q", domain.IDField, castErr.Field)
	}
}

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	id := domain.NewID()
	other := domain.NewID()

	cases := []struct {
		name  string
		kind  domain.FieldKind
		value any
		want  any
	}{
		{name: "id string", kind: domain.KindID, value: id, want: mustObjectID(t, id)},
		{name: "populated ref", kind: domain.KindRef, value: map[string]any{domain.IDField: id, "name": "Leo"}, want: mustObjectID(t, id)},
		{name: "ref list", kind: domain.KindRefList, value: []any{id, other}, want: bson.A{mustObjectID(t, id), mustObjectID(t, other)}},
		{name: "nil ref", kind: domain.KindRef, value: nil, want: nil},
		{name: "plain string", kind: domain.KindString, value: id, want: id},
		{name: "number", kind: domain.KindNumber, value: 4.5, want: 4.5},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := encodeValue("field", tc.kind, tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeValueBadRefInList(t *testing.T) {
	t.Parallel()

	_, err := encodeValue("guides", domain.KindRefList, []any{domain.NewID(), "nope"})
	var castErr *domain.CastError
	require.ErrorAs(t, err, &castErr)
	assert.Equal(t, "nope", castErr.Value)
}

func TestEncodeDocumentUsesSchemaKinds(t *testing.T) {
	t.Parallel()

	id, guide := domain.NewID(), domain.NewID()
	got, err := encodeDocument(codecSchema(), domain.Document{
		domain.IDField: id,
		"name":         "The Sea Explorer",
		"guides":       []any{guide},
	})
	require.NoError(t, err)
	assert.Equal(t, bson.M{
		domain.IDField: mustObjectID(t, id),
		"name":         "The Sea Explorer",
		"guides":       bson.A{mustObjectID(t, guide)},
	}, got)
}

func TestCombineFilters(t *testing.T) {
	t.Parallel()

	filter := bson.M{"price": 1.0}
	soft := bson.M{"active": bson.M{"$ne": false}}

	cases := []struct {
		name         string
		filter, soft bson.M
		want         bson.M
	}{
		{name: "neither", filter: bson.M{}, soft: nil, want: bson.M{}},
		{name: "filter only", filter: filter, soft: nil, want: filter},
		{name: "soft only", filter: bson.M{}, soft: soft, want: soft},
		{name: "both", filter: filter, soft: soft, want: bson.M{"$and": bson.A{filter, soft}}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, combineFilters(tc.filter, tc.soft))
		})
	}
}

func TestSortDocument(t *testing.T) {
	t.Parallel()

	got := sortDocument(query.SortSpec{
		{Field: "price", Direction: query.SortDesc},
		{Field: "name", Direction: query.SortAsc},
	})
	assert.Equal(t, bson.D{{Key: "price", Value: -1}, {Key: "name", Value: 1}}, got)
	assert.Empty(t, sortDocument(nil))
}

func TestProjectionDocument(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		spec query.ProjectionSpec
		want bson.M
	}{
		{name: "zero", spec: query.ProjectionSpec{}, want: nil},
		{name: "include", spec: query.ProjectionSpec{Include: []string{"name", "price"}}, want: bson.M{"name": 1, "price": 1}},
		{name: "exclude", spec: query.DefaultProjection(), want: bson.M{query.VersionField: 0}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, projectionDocument(tc.spec))
		})
	}
}

func TestParseDupKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		msg        string
		wantFields []string
		wantValues []any
	}{
		{
			name:       "single field",
			msg:        `E11000 duplicate key error collection: natours.tours index: name_1 dup key: { name: "The Forest Hiker" }`,
			wantFields: []string{"name"},
			wantValues: []any{"The Forest Hiker"},
		},
		{
			name:       "compound key",
			msg:        `E11000 duplicate key error collection: natours.reviews index: tour_1_user_1 dup key: { tour: "a", user: "b" }`,
			wantFields: []string{"tour", "user"},
			wantValues: []any{"a", "b"},
		},
		{
			name: "no key in message",
			msg:  "E11000 duplicate key error",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fields, values := parseDupKey(tc.msg)
			assert.Equal(t, tc.wantFields, fields)
			assert.Equal(t, tc.wantValues, values)
		})
	}
}

func TestDecodeDocument(t *testing.T) {
	t.Parallel()

	oid := primitive.NewObjectID()
	at := time.Date(2021, 3, 21, 10, 0, 0, 0, time.UTC)

	got := DecodeDocument(bson.M{
		domain.IDField: oid,
		"startDates":   bson.A{primitive.NewDateTimeFromTime(at)},
		"ratings":      int32(4),
		"location":     bson.D{{Key: "type", Value: "Point"}},
	})

	assert.Equal(t, oid.Hex(), got[domain.IDField])
	assert.Equal(t, []any{at}, got["startDates"])
	assert.Equal(t, int64(4), got["ratings"])
	assert.Equal(t, map[string]any{"type": "Point"}, got["location"])
}
