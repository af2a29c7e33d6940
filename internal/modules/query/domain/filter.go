package domain

import (
	"slices"
	"strings"
)

// Operator is a comparison predicate applied to a field.
type Operator string

const (
	OpGte Operator = "$gte"
	OpGt  Operator = "$gt"
	OpLte Operator = "$lte"
	OpLt  Operator = "$lt"
)

var operatorTokens = map[string]Operator{
	"gte": OpGte,
	"gt":  OpGt,
	"lte": OpLte,
	"lt":  OpLt,
}

// ParseOperator maps a bracket token such as "gte" to its operator.
func ParseOperator(token string) (Operator, bool) {
	op, ok := operatorTokens[strings.ToLower(strings.TrimSpace(token))]
	return op, ok
}

// PredicateKind tells which member of a Predicate is meaningful.
type PredicateKind uint8

const (
	PredicateEquals PredicateKind = iota
	PredicateIn
	PredicateCompare
)

// Predicate constrains one field. Values stay raw strings; the store
// casts them using its schema.
type Predicate struct {
	Kind    PredicateKind
	Value   string
	Values  []string
	Compare map[Operator]string
}

// Eq builds an equality predicate.
func Eq(value string) Predicate {
	return Predicate{Kind: PredicateEquals, Value: value}
}

// In builds a set membership predicate.
func In(values ...string) Predicate {
	return Predicate{Kind: PredicateIn, Values: slices.Clone(values)}
}

// Cmp builds a comparison predicate from operator/value pairs.
func Cmp(op Operator, value string) Predicate {
	return Predicate{Kind: PredicateCompare, Compare: map[Operator]string{op: value}}
}

// And adds another bound to a comparison predicate.
func (p Predicate) And(op Operator, value string) Predicate {
	next := Predicate{Kind: PredicateCompare, Compare: make(map[Operator]string, len(p.Compare)+1)}
	if p.Kind == PredicateCompare {
		for existing, v := range p.Compare {
			next.Compare[existing] = v
		}
	}
	next.Compare[op] = value
	return next
}

// FilterExpression maps field names to predicates. All predicates must hold.
type FilterExpression map[string]Predicate

// Merge returns a copy of f with the predicates of other layered on top.
func (f FilterExpression) Merge(other FilterExpression) FilterExpression {
	out := make(FilterExpression, len(f)+len(other))
	for field, predicate := range f {
		out[field] = predicate
	}
	for field, predicate := range other {
		out[field] = predicate
	}
	return out
}

// Fields lists the filtered fields in lexical order.
func (f FilterExpression) Fields() []string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	return fields
}

// splitOperatorKey splits "duration[gte]" into ("duration", "gte", true).
func splitOperatorKey(key string) (string, string, bool) {
	if !strings.HasSuffix(key, "]") {
		return key, "", false
	}
	open := strings.LastIndexByte(key, '[')
	if open <= 0 {
		return key, "", false
	}
	return key[:open], key[open+1 : len(key)-1], true
}

// validField rejects operator injection and malformed nested keys.
func validField(field string) bool {
	if field == "" || strings.HasPrefix(field, "$") {
		return false
	}
	return !strings.ContainsAny(field, "[]")
}

// DeriveFilter builds the filter from every non-control parameter.
func DeriveFilter(d Descriptor, multiValue map[string]struct{}) FilterExpression {
	filter := make(FilterExpression)
	for _, param := range d {
		field, token, bracketed := splitOperatorKey(param.Key)
		field = strings.TrimSpace(field)
		if !validField(field) || IsControlKey(field) {
			continue
		}

		if bracketed {
			op, ok := ParseOperator(token)
			if !ok {
				continue
			}
			filter[field] = filter[field].And(op, param.Value)
			continue
		}

		previous, exists := filter[field]
		_, collects := multiValue[field]
		switch {
		case collects && exists && previous.Kind == PredicateIn:
			filter[field] = In(append(slices.Clone(previous.Values), param.Value)...)
		case collects && exists && previous.Kind == PredicateEquals:
			filter[field] = In(previous.Value, param.Value)
		default:
			filter[field] = Eq(param.Value)
		}
	}
	return filter
}
