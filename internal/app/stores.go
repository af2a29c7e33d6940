package app

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"toursApi/internal/config"
	bookings "toursApi/internal/modules/bookings/domain"
	"toursApi/internal/modules/resource/application/port"
	resource "toursApi/internal/modules/resource/domain"
	resourceinfra "toursApi/internal/modules/resource/infrastructure"
	reviews "toursApi/internal/modules/reviews/domain"
	toursport "toursApi/internal/modules/tours/application/port"
	tours "toursApi/internal/modules/tours/domain"
	toursinfra "toursApi/internal/modules/tours/infrastructure"
	users "toursApi/internal/modules/users/domain"
	"toursApi/internal/platform/mongodb"
	"toursApi/internal/shared/auth"
)

// Stores bundles one store per collection, bound to the configured driver.
type Stores struct {
	Registry  *resource.Registry
	Tours     port.Store
	Users     port.Store
	Reviews   port.Store
	Bookings  port.Store
	Analytics toursport.Analytics

	client *mongo.Client
}

// OpenStores connects the configured driver and prepares every collection.
func OpenStores(ctx context.Context, cfg config.DatabaseConfig, hasher auth.PasswordHasher) (*Stores, error) {
	schemas := []*resource.Schema{
		tours.Schema(),
		users.Schema(hasher),
		reviews.Schema(),
		bookings.Schema(),
	}
	registry := resource.NewRegistry(schemas...)

	if cfg.Driver != config.DriverMongo {
		db := resourceinfra.NewMemoryDatabase(registry)
		return &Stores{
			Registry:  registry,
			Tours:     db.Store(schemas[0]),
			Users:     db.Store(schemas[1]),
			Reviews:   db.Store(schemas[2]),
			Bookings:  db.Store(schemas[3]),
			Analytics: toursinfra.NewMemoryAnalytics(db),
		}, nil
	}

	client, err := mongodb.Connect(ctx, cfg.ConnectionURI(), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Name)
	stores := make([]*resourceinfra.MongoStore, len(schemas))
	collections := make([]mongodb.Collection, len(schemas))
	for i, schema := range schemas {
		stores[i] = resourceinfra.NewMongoStore(db, schema, registry)
		collections[i] = stores[i]
	}
	if err := mongodb.Setup(ctx, db, collections...); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("setup %s: %w", cfg.Name, err)
	}
	return &Stores{
		Registry:  registry,
		Tours:     stores[0],
		Users:     stores[1],
		Reviews:   stores[2],
		Bookings:  stores[3],
		Analytics: toursinfra.NewMongoAnalytics(stores[0].Collection()),
		client:    client,
	}, nil
}

// Close disconnects the database client, if any.
func (s *Stores) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
