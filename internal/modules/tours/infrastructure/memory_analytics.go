package infrastructure

import (
	"context"
	"sort"
	"strings"
	"time"

	resource "toursApi/internal/modules/resource/domain"
	resourceinfra "toursApi/internal/modules/resource/infrastructure"
	"toursApi/internal/modules/tours/application/port"
	"toursApi/internal/modules/tours/domain"
)

// MemoryAnalytics computes the same answers as MongoAnalytics over a
// MemoryDatabase snapshot.
type MemoryAnalytics struct {
	db *resourceinfra.MemoryDatabase
}

var _ port.Analytics = (*MemoryAnalytics)(nil)

func NewMemoryAnalytics(db *resourceinfra.MemoryDatabase) *MemoryAnalytics {
	return &MemoryAnalytics{db: db}
}

func (a *MemoryAnalytics) tours() []resource.Document {
	all := a.db.Snapshot(domain.Collection)
	out := all[:0]
	for _, doc := range all {
		if secret, _ := doc["secretTour"].(bool); secret {
			continue
		}
		out = append(out, doc)
	}
	return out
}

func (a *MemoryAnalytics) DifficultyStats(ctx context.Context, minRating float64) ([]domain.DifficultyStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type acc struct {
		stats     domain.DifficultyStats
		sumRating float64
		sumPrice  float64
	}
	groups := map[string]*acc{}
	for _, doc := range a.tours() {
		rating, _ := doc["ratingsAverage"].(float64)
		if rating < minRating {
			continue
		}
		key := strings.ToUpper(stringOf(doc["difficulty"]))
		price, _ := doc["price"].(float64)
		quantity, _ := doc["ratingsQuantity"].(float64)

		g := groups[key]
		if g == nil {
			g = &acc{stats: domain.DifficultyStats{ID: key, MinPrice: price, MaxPrice: price}}
			groups[key] = g
		}
		g.stats.NumTours++
		g.stats.NumRatings += quantity
		g.sumRating += rating
		g.sumPrice += price
		g.stats.MinPrice = min(g.stats.MinPrice, price)
		g.stats.MaxPrice = max(g.stats.MaxPrice, price)
	}

	out := make([]domain.DifficultyStats, 0, len(groups))
	for _, g := range groups {
		n := float64(g.stats.NumTours)
		g.stats.AvgRating = g.sumRating / n
		g.stats.AvgPrice = g.sumPrice / n
		out = append(out, g.stats)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AvgPrice != out[j].AvgPrice {
			return out[i].AvgPrice < out[j].AvgPrice
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (a *MemoryAnalytics) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	months := map[int]*domain.MonthlyPlan{}
	for _, doc := range a.tours() {
		dates, _ := doc["startDates"].([]any)
		for _, raw := range dates {
			at, ok := raw.(time.Time)
			if !ok || at.UTC().Year() != year {
				continue
			}
			month := int(at.UTC().Month())
			plan := months[month]
			if plan == nil {
				plan = &domain.MonthlyPlan{Month: month}
				months[month] = plan
			}
			plan.NumTourStarts++
			plan.Tours = append(plan.Tours, stringOf(doc["name"]))
		}
	}

	out := make([]domain.MonthlyPlan, 0, len(months))
	for _, plan := range months {
		out = append(out, *plan)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NumTourStarts != out[j].NumTourStarts {
			return out[i].NumTourStarts > out[j].NumTourStarts
		}
		return out[i].Month < out[j].Month
	})
	if len(out) > domain.MaxPlanMonths {
		out = out[:domain.MaxPlanMonths]
	}
	return out, nil
}

func (a *MemoryAnalytics) WithinRadius(ctx context.Context, center domain.Point, radius float64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := radius * domain.EarthRadiusMeters
	var ids []string
	for _, doc := range a.tours() {
		start, ok := domain.PointOf(doc["startLocation"])
		if !ok {
			continue
		}
		if domain.Haversine(center, start) <= limit {
			ids = append(ids, resource.IDOf(doc))
		}
	}
	return ids, nil
}

func (a *MemoryAnalytics) Distances(ctx context.Context, origin domain.Point, multiplier float64) ([]domain.Distance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Distance
	for _, doc := range a.tours() {
		start, ok := domain.PointOf(doc["startLocation"])
		if !ok {
			continue
		}
		out = append(out, domain.Distance{
			ID:       resource.IDOf(doc),
			Name:     stringOf(doc["name"]),
			Distance: domain.Haversine(origin, start) * multiplier,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out, nil
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
