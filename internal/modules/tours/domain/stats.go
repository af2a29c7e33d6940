package domain

import (
	"strconv"
	"strings"

	"toursApi/internal/shared/apperror"
)

// StatsMinRating is the lowest rating counted in difficulty stats.
const StatsMinRating = 4.5

// DifficultyStats aggregates well rated tours of one difficulty.
type DifficultyStats struct {
	ID         string  `json:"_id" bson:"_id"`
	NumTours   int     `json:"numTours" bson:"numTours"`
	NumRatings float64 `json:"numRatings" bson:"numRatings"`
	AvgRating  float64 `json:"avgRating" bson:"avgRating"`
	AvgPrice   float64 `json:"avgPrice" bson:"avgPrice"`
	MinPrice   float64 `json:"minPrice" bson:"minPrice"`
	MaxPrice   float64 `json:"maxPrice" bson:"maxPrice"`
}

// MonthlyPlan lists the tour starts of one calendar month.
type MonthlyPlan struct {
	Month         int      `json:"month" bson:"month"`
	NumTourStarts int      `json:"numTourStarts" bson:"numTourStarts"`
	Tours         []string `json:"tours" bson:"tours"`
}

// MaxPlanMonths caps the monthly plan.
const MaxPlanMonths = 12

// Distance is how far a tour starts from a point, in the requested unit.
type Distance struct {
	ID       string  `json:"_id" bson:"_id"`
	Name     string  `json:"name" bson:"name"`
	Distance float64 `json:"distance" bson:"distance"`
}

func ParseYear(raw string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || year < 1 || year > 9999 {
		return 0, apperror.BadRequest("Invalid year: " + raw + ".")
	}
	return year, nil
}
