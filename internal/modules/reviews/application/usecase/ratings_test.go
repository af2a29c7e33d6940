package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resourceusecase "toursApi/internal/modules/resource/application/usecase"
	resource "toursApi/internal/modules/resource/domain"
	resourceinfra "toursApi/internal/modules/resource/infrastructure"
	"toursApi/internal/modules/reviews/domain"
	"toursApi/internal/shared/apperror"
	"toursApi/internal/shared/events"
)

type fixture struct {
	reviews *resourceusecase.Service
	tours   *resourceusecase.Service
	tourID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := resourceinfra.NewMemoryDatabase(nil)
	db.Store(&resource.Schema{Collection: domain.UsersCollection, Fields: map[string]resource.FieldKind{"name": resource.KindString, "photo": resource.KindString}})
	tourStore := db.Store(&resource.Schema{Collection: domain.ToursCollection, Fields: map[string]resource.FieldKind{
		"name": resource.KindString, "ratingsAverage": resource.KindNumber, "ratingsQuantity": resource.KindNumber,
	}})
	reviewStore := db.Store(domain.Schema())

	registry := events.NewRegistry()
	for _, h := range NewRatings(reviewStore, tourStore).Handlers() {
		registry.Register(h)
	}
	publisher := events.NewLocalPublisher(registry)

	tours := resourceusecase.NewService(tourStore)
	tour, err := tours.CreateOne(context.Background(), resource.Document{"name": "The Forest Hiker", "ratingsAverage": 4.5, "ratingsQuantity": 0})
	require.NoError(t, err)

	return &fixture{
		reviews: resourceusecase.NewService(reviewStore, resourceusecase.WithPublisher(publisher)),
		tours:   tours,
		tourID:  resource.IDOf(tour),
	}
}

func (f *fixture) ratings(t *testing.T) (float64, float64) {
	t.Helper()
	tour, err := f.tours.GetOne(context.Background(), f.tourID)
	require.NoError(t, err)
	return tour["ratingsQuantity"].(float64), tour["ratingsAverage"].(float64)
}

func (f *fixture) review(t *testing.T, rating float64) resource.Document {
	t.Helper()
	doc, err := f.reviews.CreateOne(context.Background(), resource.Document{
		"review": "Great tour", "rating": rating, "tour": f.tourID, "user": resource.NewID(),
	})
	require.NoError(t, err)
	return doc
}

func TestRatingsFollowReviewChanges(t *testing.T) {
	f := newFixture(t)

	first := f.review(t, 4)
	f.review(t, 5)
	quantity, average := f.ratings(t)
	assert.Equal(t, 2.0, quantity)
	assert.Equal(t, 4.5, average)

	_, err := f.reviews.UpdateOne(context.Background(), resource.IDOf(first), resource.Document{"rating": 2.04})
	require.NoError(t, err)
	_, average = f.ratings(t)
	assert.Equal(t, 3.5, average)

	require.NoError(t, f.reviews.DeleteOne(context.Background(), resource.IDOf(first)))
	quantity, average = f.ratings(t)
	assert.Equal(t, 1.0, quantity)
	assert.Equal(t, 5.0, average)
}

func TestRatingsResetWithoutReviews(t *testing.T) {
	f := newFixture(t)
	only := f.review(t, 3)
	require.NoError(t, f.reviews.DeleteOne(context.Background(), resource.IDOf(only)))

	quantity, average := f.ratings(t)
	assert.Equal(t, 0.0, quantity)
	assert.Equal(t, domain.EmptyRatingsAverage, average)
}

func TestOneReviewPerUserAndTour(t *testing.T) {
	f := newFixture(t)
	user := resource.NewID()
	payload := resource.Document{"review": "Nice", "rating": 4, "tour": f.tourID, "user": user}

	_, err := f.reviews.CreateOne(context.Background(), payload)
	require.NoError(t, err)
	_, err = f.reviews.CreateOne(context.Background(), payload)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestReviewValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.reviews.CreateOne(context.Background(), resource.Document{"rating": 7})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "Review can not be empty!", appErr.Fields["review"])
	assert.Equal(t, "Rating must be below 5.0", appErr.Fields["rating"])
	assert.Equal(t, "Review must belong to a tour.", appErr.Fields["tour"])
}
