package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	query "toursApi/internal/modules/query/domain"
)

const (
	IDField        = "_id"
	VersionField   = query.VersionField
	CreatedAtField = query.CreatedAtField
)

// Document is a stored record. Identifiers, including references to other
// records, are held as hex strings.
type Document = map[string]any

// NewID returns a fresh record identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id has the identifier format.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// IDOf returns the identifier of doc, or "" when it has none.
func IDOf(doc Document) string {
	if doc == nil {
		return ""
	}
	return RefID(doc[IDField])
}

// RefID extracts an identifier from a reference that may already have been
// resolved into the referenced record.
func RefID(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case map[string]any:
		return RefID(typed[IDField])
	case primitive.ObjectID:
		return typed.Hex()
	default:
		return ""
	}
}

// Lookup resolves a dotted path inside doc.
func Lookup(doc Document, path string) (any, bool) {
	var current any = doc
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Clone deep-copies maps and slices so callers can mutate the result freely.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	return cloneValue(doc).(map[string]any)
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, v := range typed {
			out[key] = cloneValue(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = cloneValue(v)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	case []map[string]any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = cloneValue(v)
		}
		return out
	case time.Time:
		return typed
	default:
		return typed
	}
}

// SetPath assigns value at a dotted path, creating intermediate maps.
func SetPath(doc Document, path string, value any) {
	segments := strings.Split(path, ".")
	current := doc
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// DeletePath removes the value at a dotted path.
func DeletePath(doc Document, path string) {
	segments := strings.Split(path, ".")
	current := doc
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			return
		}
		current = next
	}
	delete(current, segments[len(segments)-1])
}
