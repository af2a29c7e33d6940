package infrastructure

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	query "toursApi/internal/modules/query/domain"
	"toursApi/internal/modules/resource/domain"
)

func objectID(field, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, &domain.CastError{Field: field, Value: id}
	}
	return oid, nil
}

// encodeValue turns reference identifiers back into ObjectIDs.
func encodeValue(field string, kind domain.FieldKind, value any) (any, error) {
	if !kind.IsReference() || value == nil {
		return value, nil
	}
	switch typed := value.(type) {
	case string:
		return objectID(field, typed)
	case map[string]any:
		return objectID(field, domain.IDOf(typed))
	case []any:
		out := make(bson.A, 0, len(typed))
		for _, item := range typed {
			encoded, err := encodeValue(field, kind, item)
			if err != nil {
				return nil, err
			}
			out = append(out, encoded)
		}
		return out, nil
	default:
		return value, nil
	}
}

func encodeDocument(schema *domain.Schema, doc domain.Document) (bson.M, error) {
	out := make(bson.M, len(doc))
	for key, value := range doc {
		encoded, err := encodeValue(key, schema.Kind(key), value)
		if err != nil {
			return nil, err
		}
		out[key] = encoded
	}
	return out, nil
}

// encodeConditions groups conditions per field: {field: value} for equality
// and {field: {$op: value, ...}} otherwise.
func encodeConditions(conds []domain.Condition) (bson.M, error) {
	out := bson.M{}
	for _, cond := range conds {
		value, err := encodeValue(cond.Field, cond.Kind, cond.Value)
		if err != nil {
			return nil, err
		}
		if cond.Op == domain.OpEq {
			if ops, ok := out[cond.Field].(bson.M); ok {
				ops["$eq"] = value
				continue
			}
			out[cond.Field] = value
			continue
		}
		ops, ok := out[cond.Field].(bson.M)
		if !ok {
			ops = bson.M{}
			if existing, present := out[cond.Field]; present {
				ops["$eq"] = existing
			}
			out[cond.Field] = ops
		}
		ops[string(cond.Op)] = value
	}
	return out, nil
}

// combineFilters joins a request filter with the schema's soft filter.
func combineFilters(filter, soft bson.M) bson.M {
	switch {
	case len(soft) == 0:
		return filter
	case len(filter) == 0:
		return soft
	default:
		return bson.M{"$and": bson.A{filter, soft}}
	}
}

func sortDocument(spec query.SortSpec) bson.D {
	out := make(bson.D, 0, len(spec))
	for _, key := range spec {
		order := 1
		if key.Direction == query.SortDesc {
			order = -1
		}
		out = append(out, bson.E{Key: key.Field, Value: order})
	}
	return out
}

func projectionDocument(spec query.ProjectionSpec) bson.M {
	if spec.IsZero() {
		return nil
	}
	out := bson.M{}
	if spec.IsInclusion() {
		for _, field := range spec.Include {
			out[field] = 1
		}
		return out
	}
	for _, field := range spec.Exclude {
		out[field] = 0
	}
	return out
}

// DecodeValue converts driver types into plain Go values.
func DecodeValue(value any) any {
	switch typed := value.(type) {
	case primitive.ObjectID:
		return typed.Hex()
	case primitive.DateTime:
		return typed.Time().UTC()
	case primitive.Timestamp:
		return typed.T
	case primitive.Decimal128:
		return typed.String()
	case int32:
		return int64(typed)
	case bson.M:
		return decodeMap(typed)
	case map[string]any:
		return decodeMap(typed)
	case bson.D:
		out := make(map[string]any, len(typed))
		for _, e := range typed {
			out[e.Key] = DecodeValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = DecodeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = DecodeValue(item)
		}
		return out
	default:
		return value
	}
}

func decodeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = DecodeValue(value)
	}
	return out
}

// DecodeDocument converts a raw driver document into a record.
func DecodeDocument(raw bson.M) domain.Document {
	return decodeMap(raw)
}

var dupKeyPattern = regexp.MustCompile(`dup key: \{ (.*) \}`)

// parseDupKey recovers the offending values from a duplicate key error
// message such as `dup key: { name: "The Forest Hiker" }`.
func parseDupKey(msg string) ([]string, []any) {
	match := dupKeyPattern.FindStringSubmatch(msg)
	if len(match) < 2 {
		return nil, nil
	}
	var fields []string
	var values []any
	for _, pair := range strings.Split(match[1], ", ") {
		key, value, ok := strings.Cut(pair, ": ")
		if !ok {
			continue
		}
		fields = append(fields, strings.TrimSpace(key))
		values = append(values, strings.Trim(strings.TrimSpace(value), `"`))
	}
	return fields, values
}
