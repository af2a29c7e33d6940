package normalization

import (
	"encoding/json"
	"strconv"
	"strings"
)

// AsString trims and returns the string representation of value when possible.
func AsString(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	default:
		return ""
	}
}

// AsInt coerces numeric values into Go ints.
func AsInt(value any) int {
	return int(AsFloat64(value))
}

// AsFloat64 coerces numeric values (including numeric strings) into float64.
func AsFloat64(value any) float64 {
	switch typed := value.(type) {
	case float64:
		return typed
	case float32:
		return float64(typed)
	case int:
		return float64(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case json.Number:
		if parsed, err := typed.Float64(); err == nil {
			return parsed
		}
	case string:
		if trimmed := strings.TrimSpace(typed); trimmed != "" {
			if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}

// AsMap returns value as a map when it is one.
func AsMap(value any) map[string]any {
	if typed, ok := value.(map[string]any); ok {
		return typed
	}
	return nil
}

// MapFromPayload unwraps common envelope structures (e.g. {"data": {...}})
// into a plain map.
func MapFromPayload(value any) map[string]any {
	typed := AsMap(value)
	if typed == nil {
		return nil
	}
	if data := AsMap(typed["data"]); data != nil {
		return data
	}
	return typed
}

// Path walks nested maps, e.g. Path(event, "data", "object").
func Path(value any, keys ...string) any {
	current := value
	for _, key := range keys {
		m := AsMap(current)
		if m == nil {
			return nil
		}
		current = m[key]
	}
	return current
}
