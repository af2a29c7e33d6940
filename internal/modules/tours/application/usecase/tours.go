package usecase

import (
	"context"
	"log/slog"

	query "toursApi/internal/modules/query/domain"
	resourceusecase "toursApi/internal/modules/resource/application/usecase"
	resource "toursApi/internal/modules/resource/domain"
	"toursApi/internal/modules/tours/application/port"
	"toursApi/internal/modules/tours/domain"
	"toursApi/internal/shared/apperror"
)

// Service adds the tour specific reads to the generic resource service.
type Service struct {
	resources *resourceusecase.Service
	analytics port.Analytics
}

func NewService(resources *resourceusecase.Service, analytics port.Analytics) *Service {
	return &Service{resources: resources, analytics: analytics}
}

func (s *Service) Resources() *resourceusecase.Service {
	return s.resources
}

func (s *Service) Stats(ctx context.Context) ([]domain.DifficultyStats, error) {
	stats, err := s.analytics.DifficultyStats(ctx, domain.StatsMinRating)
	if err != nil {
		return nil, s.failure("tour stats", err)
	}
	return stats, nil
}

func (s *Service) MonthlyPlan(ctx context.Context, rawYear string) ([]domain.MonthlyPlan, error) {
	year, err := domain.ParseYear(rawYear)
	if err != nil {
		return nil, err
	}
	plan, err := s.analytics.MonthlyPlan(ctx, year)
	if err != nil {
		return nil, s.failure("monthly plan", err)
	}
	return plan, nil
}

// Within lists the tours starting within distance of the lat,lng center.
func (s *Service) Within(ctx context.Context, rawDistance, rawLatLng, rawUnit string) ([]resource.Document, error) {
	center, err := domain.ParseLatLng(rawLatLng)
	if err != nil {
		return nil, err
	}
	distance, err := domain.ParseDistance(rawDistance)
	if err != nil {
		return nil, err
	}
	unit := domain.ParseUnit(rawUnit)

	ids, err := s.analytics.WithinRadius(ctx, center, unit.Radians(distance))
	if err != nil {
		return nil, s.failure("tours within", err)
	}
	if len(ids) == 0 {
		return []resource.Document{}, nil
	}
	res, err := s.resources.Run(ctx, query.All(query.FilterExpression{resource.IDField: query.In(ids...)}, 0))
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

func (s *Service) Distances(ctx context.Context, rawLatLng, rawUnit string) ([]domain.Distance, error) {
	origin, err := domain.ParseLatLng(rawLatLng)
	if err != nil {
		return nil, err
	}
	distances, err := s.analytics.Distances(ctx, origin, domain.ParseUnit(rawUnit).Multiplier())
	if err != nil {
		return nil, s.failure("distances", err)
	}
	if distances == nil {
		distances = []domain.Distance{}
	}
	return distances, nil
}

func (s *Service) failure(op string, err error) error {
	slog.Error("tour analytics failed", slog.String("operation", op), slog.Any("error", err))
	classified := resourceusecase.Classify(err)
	if apperror.Is(classified, apperror.KindStore) {
		return apperror.Store(op+" failed", err)
	}
	return classified
}
