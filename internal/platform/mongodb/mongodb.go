package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultTimeout = 10 * time.Second

// Connect dials uri and pings the primary.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// Collection is a store whose collection and indexes can be prepared.
type Collection interface {
	Name() string
	EnsureIndexes(ctx context.Context) error
}

// Setup creates missing collections and their indexes. Creating indexes is
// idempotent, so it runs on every start.
func Setup(ctx context.Context, db *mongo.Database, collections ...Collection) error {
	for _, coll := range collections {
		exists, err := collectionExists(ctx, db, coll.Name())
		if err != nil {
			return err
		}
		if !exists {
			if err := db.CreateCollection(ctx, coll.Name()); err != nil {
				return fmt.Errorf("create collection %s: %w", coll.Name(), err)
			}
			slog.Info("mongo collection created", slog.String("collection", coll.Name()))
		}
		if err := coll.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	return len(names) > 0, nil
}
