package domain

import "strings"

// Options tunes translation for one resource.
type Options struct {
	// MultiValueFields may repeat in the query string and collect into a set.
	MultiValueFields []string
	DefaultLimit     int
	MaxLimit         int
	DefaultSort      SortSpec
}

// Query is the immutable result of translating a descriptor.
type Query struct {
	Filter     FilterExpression
	Sort       SortSpec
	Projection ProjectionSpec
	Page       PageSpec
}

// Translate derives filter, sort, projection and page, in that order. It
// never fails: anything it cannot use is dropped or replaced by a default.
func Translate(d Descriptor, opts Options) Query {
	multiValue := make(map[string]struct{}, len(opts.MultiValueFields))
	for _, field := range opts.MultiValueFields {
		multiValue[field] = struct{}{}
	}

	q := Query{Filter: DeriveFilter(d, multiValue)}

	q.Sort = opts.DefaultSort
	if len(q.Sort) == 0 {
		q.Sort = DefaultSort()
	}
	if raw, ok := d.Get(ParamSort); ok && strings.TrimSpace(raw) != "" {
		if parsed := ParseSort(raw); len(parsed) > 0 {
			q.Sort = parsed
		}
	}

	q.Projection = DefaultProjection()
	if raw, ok := d.Get(ParamFields); ok && strings.TrimSpace(raw) != "" {
		if parsed := ParseProjection(raw); !parsed.IsZero() {
			q.Projection = parsed
		}
	}

	rawPage, _ := d.Get(ParamPage)
	rawLimit, _ := d.Get(ParamLimit)
	q.Page = ParsePage(rawPage, rawLimit, opts.DefaultLimit, opts.MaxLimit)
	return q
}

// All returns a query over records matching filter in default order.
// A zero limit reads every match.
func All(filter FilterExpression, limit int) Query {
	return Query{
		Filter:     filter,
		Sort:       DefaultSort(),
		Projection: DefaultProjection(),
		Page:       PageSpec{Page: 1, Limit: limit},
	}
}
