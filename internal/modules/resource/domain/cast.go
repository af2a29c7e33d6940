package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrCast      = errors.New("cast failed")
	ErrInvalidID = errors.New("invalid id")
)

// FieldKind drives casting of incoming values.
type FieldKind uint8

const (
	KindAny FieldKind = iota
	KindID
	KindString
	KindNumber
	KindBool
	KindDate
	KindRef
	KindGeoPoint
	KindStringList
	KindDateList
	KindRefList
	KindGeoPointList
	KindObject
)

// Element returns the kind of each item of a list kind.
func (k FieldKind) Element() FieldKind {
	switch k {
	case KindStringList:
		return KindString
	case KindDateList:
		return KindDate
	case KindRefList:
		return KindRef
	case KindGeoPointList:
		return KindGeoPoint
	default:
		return k
	}
}

func (k FieldKind) IsList() bool {
	return k != k.Element()
}

// IsReference reports whether values of this kind are record identifiers.
func (k FieldKind) IsReference() bool {
	return k == KindID || k == KindRef || k == KindRefList
}

// CastError reports a value that cannot be converted to its field's kind.
type CastError struct {
	Field string
	Value any
}

func (e *CastError) Error() string {
	return fmt.Sprintf("Invalid %s: %v.", e.Field, e.Value)
}

func (e *CastError) Unwrap() error {
	if e.Field == IDField {
		return ErrInvalidID
	}
	return ErrCast
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
}

// ParseDate accepts ISO-8601 timestamps and plain dates.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// CastValue converts value to kind. nil passes through.
func CastValue(field string, kind FieldKind, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if kind.IsList() {
		return castList(field, kind.Element(), value)
	}

	fail := func() (any, error) { return nil, &CastError{Field: field, Value: value} }

	switch kind {
	case KindString:
		switch typed := value.(type) {
		case string:
			return typed, nil
		case float64, bool, json.Number, int, int64:
			return fmt.Sprint(typed), nil
		}
		return fail()
	case KindNumber:
		if n, ok := toFloat(value); ok {
			return n, nil
		}
		return fail()
	case KindBool:
		switch typed := value.(type) {
		case bool:
			return typed, nil
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(typed)); err == nil {
				return b, nil
			}
		case float64:
			if typed == 0 || typed == 1 {
				return typed == 1, nil
			}
		}
		return fail()
	case KindDate:
		switch typed := value.(type) {
		case time.Time:
			return typed.UTC(), nil
		case string:
			if t, ok := ParseDate(typed); ok {
				return t, nil
			}
		case float64:
			return time.UnixMilli(int64(typed)).UTC(), nil
		case int64:
			return time.UnixMilli(typed).UTC(), nil
		}
		return fail()
	case KindID, KindRef:
		id := RefID(value)
		if id == "" || !ValidID(id) {
			return fail()
		}
		return id, nil
	case KindGeoPoint:
		return castGeoPoint(field, value)
	case KindObject:
		if m, ok := value.(map[string]any); ok {
			return m, nil
		}
		return fail()
	default:
		return value, nil
	}
}

func castList(field string, elem FieldKind, value any) (any, error) {
	var items []any
	switch typed := value.(type) {
	case []any:
		items = typed
	case []string:
		items = make([]any, len(typed))
		for i, s := range typed {
			items[i] = s
		}
	default:
		items = []any{typed}
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		cast, err := CastValue(field, elem, item)
		if err != nil {
			return nil, err
		}
		out = append(out, cast)
	}
	return out, nil
}

func castGeoPoint(field string, value any) (any, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, &CastError{Field: field, Value: value}
	}
	out := make(map[string]any, len(m)+1)
	for key, v := range m {
		out[key] = v
	}
	if _, ok := out["type"]; !ok {
		out["type"] = "Point"
	}
	if raw, ok := m["coordinates"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return nil, &CastError{Field: field + ".coordinates", Value: raw}
		}
		coords := make([]any, 0, len(list))
		for _, c := range list {
			n, ok := toFloat(c)
			if !ok {
				return nil, &CastError{Field: field + ".coordinates", Value: raw}
			}
			coords = append(coords, n)
		}
		out["coordinates"] = coords
	}
	return out, nil
}

func toFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, !math.IsNaN(typed)
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case json.Number:
		f, err := typed.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		return f, err == nil && !math.IsNaN(f)
	default:
		return 0, false
	}
}
