package domain

import (
	"math"
	"strconv"
	"strings"
	"time"

	query "toursApi/internal/modules/query/domain"
	resource "toursApi/internal/modules/resource/domain"
	"toursApi/internal/shared/normalization"
	"toursApi/internal/shared/validation"
)

const (
	Collection = "tours"
	Entity     = "tour"

	UsersCollection   = "users"
	ReviewsCollection = "reviews"

	DefaultRatingsAverage  = 4.5
	DefaultRatingsQuantity = 0
)

// MultiValueFields may repeat in list queries, e.g. ?difficulty=easy&difficulty=medium.
var MultiValueFields = []string{"duration", "ratingsQuantity", "ratingsAverage", "maxGroupSize", "difficulty", "price"}

// Reviews is the virtual relation resolved when one tour is read.
var Reviews = resource.Relation{Path: "reviews", Collection: ReviewsCollection, ForeignField: "tour"}

// TopCheap rewrites a list query into the five best rated, cheapest tours.
func TopCheap(d query.Descriptor) query.Descriptor {
	return d.
		With(query.ParamLimit, "5").
		With(query.ParamSort, "-ratingsAverage,price").
		With(query.ParamFields, "name,price,ratingsAverage,summary,difficulty")
}

// Tour is the validated shape of a tour record.
type Tour struct {
	Name           string   `json:"name" validate:"required,min=10,max=40"`
	Duration       *float64 `json:"duration" validate:"required"`
	MaxGroupSize   *float64 `json:"maxGroupSize" validate:"required"`
	Difficulty     string   `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage float64  `json:"ratingsAverage" validate:"gte=1,lte=5"`
	Price          *float64 `json:"price" validate:"required"`
	PriceDiscount  *float64 `json:"priceDiscount" validate:"omitempty,ltfield=Price"`
	Summary        string   `json:"summary" validate:"required"`
	ImageCover     string   `json:"imageCover" validate:"required"`
}

var messages = validation.Messages{
	"name.required":         "A tour must have a name",
	"name.max":              "Too long name (>40 characters)...",
	"name.min":              "Too short name (<10 characters)...",
	"duration.required":     "A tour must have a duration",
	"maxGroupSize.required": "A tour must have a group size",
	"difficulty.required":   "A tour must have a difficulty",
	"difficulty.oneof":      "Difficulty is either: easy, medium or difficult",
	"ratingsAverage.gte":    "Rating must be above 1.0",
	"ratingsAverage.lte":    "Rating must be below 5.0",
	"price.required":        "A tour must have a price",
	"priceDiscount.ltfield": "Discount price should be less than the regular price",
	"summary.required":      "A tour must have a summary",
	"imageCover.required":   "A tour must have a cover image",
}

func Validate(doc resource.Document) error {
	var tour Tour
	return validation.Document(doc, &tour, messages)
}

// Normalize trims text fields, derives the slug and rounds the rating.
func Normalize(doc resource.Document) {
	for _, field := range []string{"name", "summary", "description"} {
		if s, ok := doc[field].(string); ok {
			doc[field] = strings.TrimSpace(s)
		}
	}
	if name, ok := doc["name"].(string); ok {
		doc["slug"] = Slugify(name)
	}
	if avg, ok := number(doc["ratingsAverage"]); ok {
		doc["ratingsAverage"] = RoundRating(avg)
	}
}

func Defaults(doc resource.Document) {
	setDefault(doc, "ratingsAverage", DefaultRatingsAverage)
	setDefault(doc, "ratingsQuantity", DefaultRatingsQuantity)
	setDefault(doc, "secretTour", false)
	setDefault(doc, "createdAt", time.Now().UTC())
	setDefault(doc, "images", []any{})
	setDefault(doc, "startDates", []any{})
	setDefault(doc, "guides", []any{})
}

// Present adds the id alias and the durationWeeks virtual.
func Present(doc resource.Document) {
	if id := resource.IDOf(doc); id != "" {
		doc["id"] = id
	}
	if duration, ok := number(doc["duration"]); ok {
		doc["durationWeeks"] = duration / 7
	}
}

// RoundRating keeps one decimal.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// Schema describes the tours collection.
func Schema() *resource.Schema {
	return &resource.Schema{
		Collection: Collection,
		Entity:     Entity,
		Fields: map[string]resource.FieldKind{
			"name":            resource.KindString,
			"slug":            resource.KindString,
			"duration":        resource.KindNumber,
			"maxGroupSize":    resource.KindNumber,
			"difficulty":      resource.KindString,
			"ratingsAverage":  resource.KindNumber,
			"ratingsQuantity": resource.KindNumber,
			"price":           resource.KindNumber,
			"priceDiscount":   resource.KindNumber,
			"summary":         resource.KindString,
			"description":     resource.KindString,
			"imageCover":      resource.KindString,
			"images":          resource.KindStringList,
			"createdAt":       resource.KindDate,
			"startDates":      resource.KindDateList,
			"secretTour":      resource.KindBool,
			"startLocation":   resource.KindGeoPoint,
			"locations":       resource.KindGeoPointList,
			"guides":          resource.KindRefList,
		},
		Hidden:   []string{"createdAt"},
		Excluded: map[string]any{"secretTour": true},
		Indexes: []resource.Index{
			{Keys: []resource.IndexKey{{Field: "name", Order: 1}}, Unique: true},
			{Keys: []resource.IndexKey{{Field: "price", Order: 1}, {Field: "ratingsAverage", Order: -1}}},
			{Keys: []resource.IndexKey{{Field: "slug", Order: 1}}},
			{Keys: []resource.IndexKey{{Field: "startLocation", Geo: true}}},
		},
		Populate: []resource.Relation{
			{Path: "guides", Collection: UsersCollection, Select: []string{"-__v", "-passwordChangedAt"}},
		},
		Normalize: Normalize,
		Defaults:  Defaults,
		Validate:  Validate,
		Present:   Present,
	}
}

func setDefault(doc resource.Document, field string, value any) {
	if v, ok := doc[field]; !ok || v == nil {
		doc[field] = value
	}
}

func number(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, !math.IsNaN(typed)
	case float32, int, int32, int64:
		return normalization.AsFloat64(typed), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		return f, err == nil
	}
	return 0, false
}
