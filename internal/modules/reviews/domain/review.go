package domain

import (
	"math"
	"time"

	resource "toursApi/internal/modules/resource/domain"
	"toursApi/internal/shared/validation"
)

const (
	Collection = "reviews"
	Entity     = "review"

	FieldTour   = "tour"
	FieldUser   = "user"
	FieldRating = "rating"

	ToursCollection = "tours"
	UsersCollection = "users"

	// Tour ratings without any review.
	EmptyRatingsAverage  = 4.5
	EmptyRatingsQuantity = 0
)

type Review struct {
	Review string   `json:"review" validate:"required"`
	Rating *float64 `json:"rating" validate:"required,gte=1,lte=5"`
	Tour   string   `json:"tour" validate:"required"`
	User   string   `json:"user" validate:"required"`
}

var messages = validation.Messages{
	"review.required": "Review can not be empty!",
	"rating.required": "Please give a rating.",
	"rating.gte":      "Rating must be above 1.0",
	"rating.lte":      "Rating must be below 5.0",
	"tour.required":   "Review must belong to a tour.",
	"user.required":   "Review must belong to a user.",
}

func Validate(doc resource.Document) error {
	refs := resource.Clone(doc)
	for _, field := range []string{FieldTour, FieldUser} {
		if v, ok := refs[field]; ok {
			refs[field] = resource.RefID(v)
		}
	}
	var review Review
	return validation.Document(refs, &review, messages)
}

// Normalize rounds the rating to one decimal.
func Normalize(doc resource.Document) {
	switch rating := doc[FieldRating].(type) {
	case float64:
		doc[FieldRating] = math.Round(rating*10) / 10
	case int:
		doc[FieldRating] = float64(rating)
	}
}

func Defaults(doc resource.Document) {
	if v, ok := doc["createdAt"]; !ok || v == nil {
		doc["createdAt"] = time.Now().UTC()
	}
}

func Present(doc resource.Document) {
	if id := resource.IDOf(doc); id != "" {
		doc["id"] = id
	}
}

func Schema() *resource.Schema {
	return &resource.Schema{
		Collection: Collection,
		Entity:     Entity,
		Fields: map[string]resource.FieldKind{
			"review":    resource.KindString,
			FieldRating: resource.KindNumber,
			"createdAt": resource.KindDate,
			FieldTour:   resource.KindRef,
			FieldUser:   resource.KindRef,
		},
		Indexes: []resource.Index{
			{Keys: []resource.IndexKey{{Field: FieldTour, Order: 1}, {Field: FieldUser, Order: 1}}, Unique: true},
		},
		Populate: []resource.Relation{
			{Path: FieldUser, Collection: UsersCollection, Select: []string{"name", "photo"}},
		},
		Normalize: Normalize,
		Defaults:  Defaults,
		Validate:  Validate,
		Present:   Present,
	}
}
