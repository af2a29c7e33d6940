package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resource "toursApi/internal/modules/resource/domain"
	"toursApi/internal/shared/apperror"
)

func TestNormalizeRoundsRating(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{4.66, 4.7},
		{4.64, 4.6},
		{3, 3},
	}
	for _, tt := range tests {
		doc := resource.Document{FieldRating: tt.in}
		Normalize(doc)
		if doc[FieldRating] != tt.want {
			t.Fatalf("expected %v, got %v", tt.want, doc[FieldRating])
		}
	}
}

func TestValidateAcceptsPopulatedRefs(t *testing.T) {
	doc := resource.Document{
		"review": "Loved it",
		"rating": 5.0,
		"tour":   map[string]any{"_id": "5c88fa8cf4afda39709c2955", "name": "The Sea Explorer"},
		"user":   "5c8a1d5b0190b214360dc057",
	}
	require.NoError(t, Validate(doc))
}

func TestValidateMessages(t *testing.T) {
	err := Validate(resource.Document{"review": "Too low", "rating": 0.5})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Equal(t, "Rating must be above 1.0", appErr.Fields["rating"])
	assert.Equal(t, "Review must belong to a user.", appErr.Fields["user"])
}
