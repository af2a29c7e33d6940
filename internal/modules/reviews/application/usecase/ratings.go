package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	query "toursApi/internal/modules/query/domain"
	"toursApi/internal/modules/resource/application/port"
	resource "toursApi/internal/modules/resource/domain"
	"toursApi/internal/modules/reviews/domain"
	"toursApi/internal/shared/events"
	"toursApi/internal/shared/normalization"
)

// Ratings keeps ratingsQuantity and ratingsAverage of tours in line with
// their reviews.
type Ratings struct {
	reviews port.Store
	tours   port.Store
}

func NewRatings(reviews, tours port.Store) *Ratings {
	return &Ratings{reviews: reviews, tours: tours}
}

// Summary is the rating aggregate of one tour.
type Summary struct {
	Quantity int
	Average  float64
}

func (r *Ratings) Summarize(ctx context.Context, tourID string) (Summary, error) {
	filter := query.FilterExpression{domain.FieldTour: query.Eq(tourID)}
	reviews, err := r.reviews.Find(ctx, query.All(filter, 0), port.WithoutPopulate())
	if err != nil {
		return Summary{}, fmt.Errorf("load reviews of tour %s: %w", tourID, err)
	}
	if len(reviews) == 0 {
		return Summary{Quantity: domain.EmptyRatingsQuantity, Average: domain.EmptyRatingsAverage}, nil
	}
	total := 0.0
	for _, review := range reviews {
		total += normalization.AsFloat64(review[domain.FieldRating])
	}
	avg := total / float64(len(reviews))
	return Summary{Quantity: len(reviews), Average: math.Round(avg*10) / 10}, nil
}

// Recalculate stores the current summary on the tour. A tour that no
// longer exists is skipped.
func (r *Ratings) Recalculate(ctx context.Context, tourID string) error {
	summary, err := r.Summarize(ctx, tourID)
	if err != nil {
		return err
	}
	_, err = r.tours.UpdateByID(ctx, tourID, resource.Document{
		"ratingsQuantity": summary.Quantity,
		"ratingsAverage":  summary.Average,
	})
	if errors.Is(err, port.ErrRecordNotFound) {
		slog.Warn("ratings for missing tour", slog.String("tourId", tourID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("update ratings of tour %s: %w", tourID, err)
	}
	slog.Debug("tour ratings updated",
		slog.String("tourId", tourID),
		slog.Int("quantity", summary.Quantity),
		slog.Float64("average", summary.Average),
	)
	return nil
}

// Handle recalculates the tour of the review carried by event.
func (r *Ratings) Handle(ctx context.Context, event events.Event) error {
	tourID := resource.RefID(normalization.Path(event.Data, domain.FieldTour))
	if tourID == "" {
		return nil
	}
	return r.Recalculate(ctx, tourID)
}

// Handlers subscribes Ratings to every review change.
func (r *Ratings) Handlers() []events.Handler {
	topics := []string{
		events.CreatedTopic(domain.Entity),
		events.UpdatedTopic(domain.Entity),
		events.DeletedTopic(domain.Entity),
	}
	handlers := make([]events.Handler, 0, len(topics))
	for _, topic := range topics {
		handlers = append(handlers, events.HandlerFunc{Name: topic, Fn: r.Handle})
	}
	return handlers
}
