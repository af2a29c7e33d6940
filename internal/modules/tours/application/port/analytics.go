package port

import (
	"context"

	"toursApi/internal/modules/tours/domain"
)

// Analytics answers the aggregate and geospatial questions about tours.
// Secret tours never take part.
type Analytics interface {
	DifficultyStats(ctx context.Context, minRating float64) ([]domain.DifficultyStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error)
	// WithinRadius returns the ids of tours starting within radius radians
	// of center.
	WithinRadius(ctx context.Context, center domain.Point, radius float64) ([]string, error)
	// Distances orders tours by distance from origin, in metres times
	// multiplier.
	Distances(ctx context.Context, origin domain.Point, multiplier float64) ([]domain.Distance, error)
}
