package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"toursApi/internal/modules/tours/application/port"
	"toursApi/internal/modules/tours/domain"
)

var notSecret = bson.M{"secretTour": bson.M{"$ne": true}}

// MongoAnalytics runs aggregation pipelines on the tours collection.
type MongoAnalytics struct {
	coll *mongo.Collection
}

var _ port.Analytics = (*MongoAnalytics)(nil)

func NewMongoAnalytics(coll *mongo.Collection) *MongoAnalytics {
	return &MongoAnalytics{coll: coll}
}

func (a *MongoAnalytics) DifficultyStats(ctx context.Context, minRating float64) ([]domain.DifficultyStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"ratingsAverage": bson.M{"$gte": minRating}, "secretTour": bson.M{"$ne": true}}}},
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$toUpper": "$difficulty"},
			"numTours":   bson.M{"$sum": 1},
			"numRatings": bson.M{"$sum": "$ratingsQuantity"},
			"avgRating":  bson.M{"$avg": "$ratingsAverage"},
			"avgPrice":   bson.M{"$avg": "$price"},
			"minPrice":   bson.M{"$min": "$price"},
			"maxPrice":   bson.M{"$max": "$price"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avgPrice", Value: 1}}}},
	}
	var out []domain.DifficultyStats
	if err := a.aggregate(ctx, "tour stats", pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *MongoAnalytics) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: notSecret}},
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.M{"startDates": bson.M{"$gte": from, "$lt": to}}}},
		{{Key: "$group", Value: bson.M{
			"_id":           bson.M{"$month": "$startDates"},
			"numTourStarts": bson.M{"$sum": 1},
			"tours":         bson.M{"$push": "$name"},
		}}},
		{{Key: "$addFields", Value: bson.M{"month": "$_id"}}},
		{{Key: "$project", Value: bson.M{"_id": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "numTourStarts", Value: -1}, {Key: "month", Value: 1}}}},
		{{Key: "$limit", Value: domain.MaxPlanMonths}},
	}
	var out []domain.MonthlyPlan
	if err := a.aggregate(ctx, "monthly plan", pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *MongoAnalytics) WithinRadius(ctx context.Context, center domain.Point, radius float64) ([]string, error) {
	filter := bson.M{
		"startLocation": bson.M{"$geoWithin": bson.M{"$centerSphere": bson.A{bson.A{center.Lng, center.Lat}, radius}}},
		"secretTour":    bson.M{"$ne": true},
	}
	cursor, err := a.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("tours within: %w", err)
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("tours within: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID.Hex())
	}
	return ids, nil
}

func (a *MongoAnalytics) Distances(ctx context.Context, origin domain.Point, multiplier float64) ([]domain.Distance, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near":               bson.M{"type": "Point", "coordinates": bson.A{origin.Lng, origin.Lat}},
			"distanceField":      "distance",
			"distanceMultiplier": multiplier,
			"query":              notSecret,
			"spherical":          true,
		}}},
		{{Key: "$project", Value: bson.M{"distance": 1, "name": 1}}},
	}
	var rows []struct {
		ID       primitive.ObjectID `bson:"_id"`
		Name     string             `bson:"name"`
		Distance float64            `bson:"distance"`
	}
	if err := a.aggregate(ctx, "distances", pipeline, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Distance, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Distance{ID: row.ID.Hex(), Name: row.Name, Distance: row.Distance})
	}
	return out, nil
}

func (a *MongoAnalytics) aggregate(ctx context.Context, name string, pipeline mongo.Pipeline, out any) error {
	cursor, err := a.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
