package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	query "toursApi/internal/modules/query/domain"
)

func testSchema() *Schema {
	return &Schema{
		Collection: "tours",
		Fields: map[string]FieldKind{
			"name":       KindString,
			"price":      KindNumber,
			"secretTour": KindBool,
			"startDates": KindDateList,
			"guides":     KindRefList,
		},
		Excluded: map[string]any{"secretTour": true},
	}
}

func TestConditionsCastAgainstSchema(t *testing.T) {
	t.Parallel()

	guide := NewID()
	filter := query.FilterExpression{
		"price":      query.Cmp(query.OpGte, "100").And(query.OpLt, "500"),
		"startDates": query.Cmp(query.OpGte, "2021-06-01"),
		"guides":     query.Eq(guide),
		"unknown":    query.Eq("kept"),
	}

	conds, err := testSchema().Conditions(filter)
	require.NoError(t, err)

	assert.Equal(t, []Condition{
		{Field: "guides", Op: OpEq, Value: guide, Kind: KindRefList},
		{Field: "price", Op: OpGte, Value: 100.0, Kind: KindNumber},
		{Field: "price", Op: OpLt, Value: 500.0, Kind: KindNumber},
		{Field: "startDates", Op: OpGte, Value: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), Kind: KindDateList},
		{Field: "unknown", Op: OpEq, Value: "kept", Kind: KindAny},
	}, conds)
}

func TestConditionsRejectUncastableValue(t *testing.T) {
	t.Parallel()

	_, err := testSchema().Conditions(query.FilterExpression{"price": query.Eq("cheap")})

	var castErr *CastError
	require.ErrorAs(t, err, &castErr)
	assert.Equal(t, "Invalid price: cheap.", castErr.Error())
	assert.True(t, errors.Is(err, ErrCast))

	_, err = testSchema().Conditions(query.FilterExpression{"_id": query.Eq("nope")})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestStrictDropsUnknownAndReservedFields(t *testing.T) {
	t.Parallel()

	got := testSchema().Strict(Document{"name": "Forest", "_id": "x", "__v": 3, "role": "admin"})
	assert.Equal(t, Document{"name": "Forest"}, got)
}

func TestCastDocumentNormalizesTypes(t *testing.T) {
	t.Parallel()

	got, err := testSchema().CastDocument(Document{
		"price":      "497",
		"secretTour": "false",
		"startDates": []any{"2021-04-25T09:00:00Z"},
	})
	require.NoError(t, err)
	assert.Equal(t, 497.0, got["price"])
	assert.Equal(t, false, got["secretTour"])
	assert.Equal(t, []any{time.Date(2021, 4, 25, 9, 0, 0, 0, time.UTC)}, got["startDates"])
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	original := Document{"location": map[string]any{"coordinates": []any{1.0, 2.0}}}
	copied := Clone(original)
	copied["location"].(map[string]any)["coordinates"].([]any)[0] = 9.0

	assert.Equal(t, 1.0, original["location"].(map[string]any)["coordinates"].([]any)[0])
}

func TestRelationProjectionKeepsForeignField(t *testing.T) {
	t.Parallel()

	rel := Relation{Path: "reviews", Collection: "reviews", ForeignField: "tour", Select: []string{"review", "rating"}}
	assert.Equal(t, query.ProjectionSpec{Include: []string{"review", "rating", "tour"}}, rel.Projection())
}
