package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"toursApi/internal/modules/resource/application/port"
	resourceusecase "toursApi/internal/modules/resource/application/usecase"
	resource "toursApi/internal/modules/resource/domain"
	reviewsusecase "toursApi/internal/modules/reviews/application/usecase"
	"toursApi/internal/shared/events"
)

// Seeder loads the development fixtures into the stores.
type Seeder struct {
	stores *Stores
	logger *slog.Logger
}

func NewSeeder(stores *Stores, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{stores: stores, logger: logger}
}

type seedFile struct {
	name  string
	store port.Store
}

func (s *Seeder) files() []seedFile {
	return []seedFile{
		{name: "tours.json", store: s.stores.Tours},
		{name: "users.json", store: s.stores.Users},
		{name: "reviews.json", store: s.stores.Reviews},
	}
}

// Import reads tours.json, users.json and reviews.json from dir, in that
// order, keeping their identifiers. Tour ratings follow the imported reviews.
func (s *Seeder) Import(ctx context.Context, dir string) (map[string]int, error) {
	registry := events.NewRegistry()
	for _, h := range reviewsusecase.NewRatings(s.stores.Reviews, s.stores.Tours).Handlers() {
		registry.Register(h)
	}
	publisher := events.NewLocalPublisher(registry)

	counts := make(map[string]int)
	for _, f := range s.files() {
		docs, err := readSeedFile(filepath.Join(dir, f.name))
		if err != nil {
			return counts, err
		}
		service := resourceusecase.NewService(f.store, resourceusecase.WithPublisher(publisher))
		for i, doc := range docs {
			if _, err := service.Import(ctx, doc); err != nil {
				return counts, fmt.Errorf("%s record %d: %w", f.name, i, err)
			}
		}
		counts[f.store.Schema().Collection] = len(docs)
		s.logger.Info("seed imported", slog.String("file", f.name), slog.Int("records", len(docs)))
	}
	return counts, nil
}

// Delete empties the seeded collections.
func (s *Seeder) Delete(ctx context.Context) error {
	for _, f := range s.files() {
		if err := f.store.DeleteAll(ctx); err != nil {
			return err
		}
		s.logger.Info("seed deleted", slog.String("collection", f.store.Schema().Collection))
	}
	return nil
}

func readSeedFile(path string) ([]resource.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var docs []resource.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return docs, nil
}
