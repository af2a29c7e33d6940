package domain

import (
	"net/url"
	"sort"
	"strings"
)

// Reserved query-string keys. They drive sorting, paging and field
// selection and never reach the filter.
const (
	ParamPage   = "page"
	ParamSort   = "sort"
	ParamLimit  = "limit"
	ParamFields = "fields"
)

var controlKeys = map[string]struct{}{
	ParamPage:   {},
	ParamSort:   {},
	ParamLimit:  {},
	ParamFields: {},
}

// IsControlKey reports whether key is one of the reserved keys.
func IsControlKey(key string) bool {
	_, ok := controlKeys[key]
	return ok
}

// Param is a single key/value pair from a request query string.
type Param struct {
	Key   string
	Value string
}

// Descriptor keeps query-string parameters in the order they were received.
// Order matters: later parameters win over earlier ones for the same field.
type Descriptor []Param

// ParseDescriptor decodes a raw query string. Pairs that fail to unescape
// or carry an empty key are skipped.
func ParseDescriptor(raw string) Descriptor {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "?")
	if raw == "" {
		return nil
	}

	params := make(Descriptor, 0, strings.Count(raw, "&")+1)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}
		if strings.TrimSpace(key) == "" {
			continue
		}
		params = append(params, Param{Key: key, Value: value})
	}
	return params
}

// DescriptorFromValues builds a descriptor from already-parsed values.
// url.Values loses the original key order, so keys are sorted.
func DescriptorFromValues(values url.Values) Descriptor {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	params := make(Descriptor, 0, len(values))
	for _, key := range keys {
		for _, value := range values[key] {
			params = append(params, Param{Key: key, Value: value})
		}
	}
	return params
}

// Get returns the last value recorded for key.
func (d Descriptor) Get(key string) (string, bool) {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].Key == key {
			return d[i].Value, true
		}
	}
	return "", false
}

// With returns a copy of d where key holds only value.
func (d Descriptor) With(key, value string) Descriptor {
	out := make(Descriptor, 0, len(d)+1)
	for _, param := range d {
		if param.Key != key {
			out = append(out, param)
		}
	}
	return append(out, Param{Key: key, Value: value})
}

// Encode renders the descriptor back into a query string.
func (d Descriptor) Encode() string {
	var b strings.Builder
	for i, param := range d {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(param.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(param.Value))
	}
	return b.String()
}
