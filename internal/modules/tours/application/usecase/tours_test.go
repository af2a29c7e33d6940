package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resourceusecase "toursApi/internal/modules/resource/application/usecase"
	resource "toursApi/internal/modules/resource/domain"
	resourceinfra "toursApi/internal/modules/resource/infrastructure"
	"toursApi/internal/modules/tours/domain"
	"toursApi/internal/modules/tours/infrastructure"
	"toursApi/internal/shared/apperror"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 9, 0, 0, 0, time.UTC)
}

func point(lat, lng float64) map[string]any {
	return map[string]any{"type": "Point", "coordinates": []any{lng, lat}}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	registry := resource.NewRegistry(
		&resource.Schema{Collection: domain.UsersCollection, Fields: map[string]resource.FieldKind{"name": resource.KindString}},
		&resource.Schema{Collection: domain.ReviewsCollection, Fields: map[string]resource.FieldKind{"tour": resource.KindRef, "review": resource.KindString}},
	)
	db := resourceinfra.NewMemoryDatabase(registry)
	store := db.Store(domain.Schema())
	resources := resourceusecase.NewService(store, resourceusecase.WithRelation(domain.Reviews))

	seed := []resource.Document{
		{"name": "The Forest Hiker", "difficulty": "easy", "price": 397.0, "ratingsAverage": 4.7, "ratingsQuantity": 37.0,
			"startDates":    []any{date(2021, time.April, 25), date(2021, time.July, 20), date(2022, time.March, 1)},
			"startLocation": point(51.417611, -116.214531)},
		{"name": "The Sea Explorer", "difficulty": "medium", "price": 497.0, "ratingsAverage": 4.8, "ratingsQuantity": 23.0,
			"startDates":    []any{date(2021, time.June, 19), date(2021, time.July, 20)},
			"startLocation": point(25.781842, -80.128473)},
		{"name": "The Snow Adventurer", "difficulty": "difficult", "price": 997.0, "ratingsAverage": 4.5, "ratingsQuantity": 13.0,
			"startDates":    []any{date(2021, time.July, 15)},
			"startLocation": point(39.190872, -106.822318)},
		{"name": "The City Wanderer", "difficulty": "easy", "price": 1197.0, "ratingsAverage": 4.0, "ratingsQuantity": 3.0,
			"startDates":    []any{date(2021, time.March, 11)},
			"startLocation": point(40.781821, -73.967696)},
		{"name": "The Secret Expedition", "difficulty": "easy", "price": 100.0, "ratingsAverage": 5.0, "secretTour": true,
			"startDates":    []any{date(2021, time.July, 1)},
			"startLocation": point(51.4, -116.2)},
	}
	for _, doc := range seed {
		_, err := resources.Import(context.Background(), doc)
		require.NoError(t, err)
	}
	return NewService(resources, infrastructure.NewMemoryAnalytics(db))
}

func TestStatsGroupWellRatedToursByDifficulty(t *testing.T) {
	stats, err := newTestService(t).Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, "EASY", stats[0].ID)
	assert.Equal(t, 1, stats[0].NumTours)
	assert.Equal(t, 397.0, stats[0].AvgPrice)
	assert.Equal(t, "MEDIUM", stats[1].ID)
	assert.Equal(t, "DIFFICULT", stats[2].ID)
	assert.Equal(t, 13.0, stats[2].NumRatings)
}

func TestMonthlyPlan(t *testing.T) {
	svc := newTestService(t)

	plan, err := svc.MonthlyPlan(context.Background(), "2021")
	require.NoError(t, err)
	require.NotEmpty(t, plan)
	assert.Equal(t, 7, plan[0].Month)
	assert.Equal(t, 3, plan[0].NumTourStarts)
	assert.ElementsMatch(t, []string{"The Forest Hiker", "The Sea Explorer", "The Snow Adventurer"}, plan[0].Tours)

	total := 0
	for _, month := range plan {
		total += month.NumTourStarts
	}
	assert.Equal(t, 6, total)

	_, err = svc.MonthlyPlan(context.Background(), "soon")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestWithinReturnsVisibleToursInRadius(t *testing.T) {
	svc := newTestService(t)

	// Around Banff: only the forest hiker, the secret tour stays hidden.
	tours, err := svc.Within(context.Background(), "200", "51.2,-115.5", "mi")
	require.NoError(t, err)
	require.Len(t, tours, 1)
	assert.Equal(t, "The Forest Hiker", tours[0]["name"])
	assert.NotContains(t, tours[0], "createdAt")

	tours, err = svc.Within(context.Background(), "1", "0,0", "km")
	require.NoError(t, err)
	assert.Empty(t, tours)

	_, err = svc.Within(context.Background(), "200", "51.2", "mi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.MessageLatLng)
}

func TestDistancesAreSortedAscending(t *testing.T) {
	distances, err := newTestService(t).Distances(context.Background(), "40.7,-74.0", "km")
	require.NoError(t, err)
	require.Len(t, distances, 4)
	assert.Equal(t, "The City Wanderer", distances[0].Name)
	for i := 1; i < len(distances); i++ {
		assert.LessOrEqual(t, distances[i-1].Distance, distances[i].Distance)
	}
	// New York to Miami is roughly 1750 km.
	for _, d := range distances {
		if d.Name == "The Sea Explorer" {
			assert.InDelta(t, 1750, d.Distance, 100)
		}
	}
}

type brokenAnalytics struct{ err error }

func (b brokenAnalytics) DifficultyStats(context.Context, float64) ([]domain.DifficultyStats, error) {
	return nil, b.err
}

func (b brokenAnalytics) MonthlyPlan(context.Context, int) ([]domain.MonthlyPlan, error) {
	return nil, b.err
}

func (b brokenAnalytics) WithinRadius(context.Context, domain.Point, float64) ([]string, error) {
	return nil, b.err
}

func (b brokenAnalytics) Distances(context.Context, domain.Point, float64) ([]domain.Distance, error) {
	return nil, b.err
}

func TestAnalyticsFailuresAreStoreErrors(t *testing.T) {
	cause := errors.New("aggregate: connection reset")
	db := resourceinfra.NewMemoryDatabase(nil)
	svc := NewService(resourceusecase.NewService(db.Store(domain.Schema())), brokenAnalytics{err: cause})

	tests := []struct {
		name    string
		call    func() error
		message string
	}{
		{name: "stats", message: "tour stats failed", call: func() error {
			_, err := svc.Stats(context.Background())
			return err
		}},
		{name: "monthly plan", message: "monthly plan failed", call: func() error {
			_, err := svc.MonthlyPlan(context.Background(), "2021")
			return err
		}},
		{name: "distances", message: "distances failed", call: func() error {
			_, err := svc.Distances(context.Background(), "40.7,-74.0", "km")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			appErr, ok := apperror.As(err)
			if !ok || appErr.Kind != apperror.KindStore {
				t.Fatalf("expected a store error, got %v", err)
			}
			assert.Equal(t, tt.message, appErr.Message)
			assert.ErrorIs(t, err, cause)
		})
	}
}
