package domain

import (
	"time"

	resource "toursApi/internal/modules/resource/domain"
	"toursApi/internal/shared/validation"
)

const (
	Collection = "bookings"
	Entity     = "booking"

	FieldTour      = "tour"
	FieldUser      = "user"
	FieldPrice     = "price"
	FieldPaid      = "paid"
	FieldCreatedAt = "createdAt"

	ToursCollection = "tours"
	UsersCollection = "users"
)

type Booking struct {
	Tour  string   `json:"tour" validate:"required"`
	User  string   `json:"user" validate:"required"`
	Price *float64 `json:"price" validate:"required,gte=0"`
	Paid  bool     `json:"paid"`
}

var messages = validation.Messages{
	"tour.required":  "Booking must belong to a Tour!",
	"user.required":  "Booking must belong to a User!",
	"price.required": "Booking must have a price.",
	"price.gte":      "Booking price can not be negative.",
}

func Validate(doc resource.Document) error {
	refs := resource.Clone(doc)
	for _, field := range []string{FieldTour, FieldUser} {
		if v, ok := refs[field]; ok {
			refs[field] = resource.RefID(v)
		}
	}
	var booking Booking
	return validation.Document(refs, &booking, messages)
}

func Defaults(doc resource.Document) {
	if v, ok := doc[FieldCreatedAt]; !ok || v == nil {
		doc[FieldCreatedAt] = time.Now().UTC()
	}
	if v, ok := doc[FieldPaid]; !ok || v == nil {
		doc[FieldPaid] = true
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
			FieldTour:      resource.KindRef,
			FieldUser:      resource.KindRef,
			FieldPrice:     resource.KindNumber,
			FieldCreatedAt: resource.KindDate,
			FieldPaid:      resource.KindBool,
		},
		Indexes: []resource.Index{
			{Keys: []resource.IndexKey{{Field: FieldUser, Order: 1}}},
			{Keys: []resource.IndexKey{{Field: FieldTour, Order: 1}}},
		},
		Populate: []resource.Relation{
			{Path: FieldUser, Collection: UsersCollection},
			{Path: FieldTour, Collection: ToursCollection, Select: []string{"name"}},
		},
		Defaults: Defaults,
		Validate: Validate,
		Present:  Present,
	}
}
