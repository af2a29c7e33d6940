package domain

import (
	"time"

	resource "toursApi/internal/modules/resource/domain"
	"toursApi/internal/shared/normalization"
)

const ExportSheet = "Bookings"

// ExportHeader names the exported columns in order.
var ExportHeader = []string{"Booking", "Tour", "Customer", "Email", "Price", "Paid", "Booked at"}

// ExportRow flattens a booking whose tour and user are populated.
func ExportRow(doc resource.Document) []any {
	createdAt := ""
	if t, ok := doc[FieldCreatedAt].(time.Time); ok {
		createdAt = t.UTC().Format(time.RFC3339)
	}
	paid, _ := doc[FieldPaid].(bool)
	return []any{
		resource.IDOf(doc),
		normalization.AsString(normalization.Path(doc, FieldTour, "name")),
		normalization.AsString(normalization.Path(doc, FieldUser, "name")),
		normalization.AsString(normalization.Path(doc, FieldUser, "email")),
		normalization.AsFloat64(doc[FieldPrice]),
		paid,
		createdAt,
	}
}
