package infrastructure

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	query "toursApi/internal/modules/query/domain"
	"toursApi/internal/modules/resource/domain"
)

// matchesAll evaluates conditions the way the document database does:
// arrays match when any element matches.
func matchesAll(doc domain.Document, conds []domain.Condition) bool {
	for _, cond := range conds {
		if !matches(doc, cond) {
			return false
		}
	}
	return true
}

func matches(doc domain.Document, cond domain.Condition) bool {
	value, present := domain.Lookup(doc, cond.Field)
	switch cond.Op {
	case domain.OpEq:
		return present && containsEqual(value, cond.Value)
	case domain.OpNe:
		return !present || !containsEqual(value, cond.Value)
	case domain.OpIn:
		candidates, _ := cond.Value.([]any)
		for _, candidate := range candidates {
			if present && containsEqual(value, candidate) {
				return true
			}
		}
		return false
	default:
		if !present {
			return false
		}
		for _, item := range elements(value) {
			c, ok := compareValues(item, cond.Value)
			if ok && satisfies(cond.Op, c) {
				return true
			}
		}
		return false
	}
}

func satisfies(op domain.Op, c int) bool {
	switch op {
	case domain.OpGte:
		return c >= 0
	case domain.OpGt:
		return c > 0
	case domain.OpLte:
		return c <= 0
	case domain.OpLt:
		return c < 0
	default:
		return false
	}
}

func elements(value any) []any {
	if list, ok := value.([]any); ok {
		return list
	}
	return []any{value}
}

func containsEqual(value, target any) bool {
	if value == nil || target == nil {
		return value == nil && target == nil
	}
	for _, item := range elements(value) {
		if c, ok := compareValues(item, target); ok && c == 0 {
			return true
		}
	}
	return false
}

// compareValues orders two scalars of the same family.
func compareValues(a, b any) (int, bool) {
	if an, ok := number(a); ok {
		bn, ok := number(b)
		if !ok {
			return 0, false
		}
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		default:
			return 0, true
		}
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), true
		}
		if bv, ok := b.(map[string]any); ok {
			return strings.Compare(av, domain.IDOf(bv)), true
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv), true
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, true
			case !av:
				return -1, true
			default:
				return 1, true
			}
		}
	case map[string]any:
		if bv, ok := b.(string); ok {
			return strings.Compare(domain.IDOf(av), bv), true
		}
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
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
	default:
		return 0, false
	}
}

// typeRank follows the database's cross-type sort order.
func typeRank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := number(v); ok {
		return 1
	}
	switch v.(type) {
	case string:
		return 2
	case map[string]any:
		return 3
	case []any:
		return 4
	case bool:
		return 5
	case time.Time:
		return 6
	default:
		return 7
	}
}

func orderValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	if c, ok := compareValues(a, b); ok {
		return c
	}
	return 0
}

func sortDocuments(docs []domain.Document, spec query.SortSpec) {
	if len(spec) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range spec {
			a, _ := domain.Lookup(docs[i], key.Field)
			b, _ := domain.Lookup(docs[j], key.Field)
			c := orderValues(a, b)
			if c == 0 {
				continue
			}
			if key.Direction == query.SortDesc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func paginate(docs []domain.Document, page query.PageSpec) []domain.Document {
	skip := page.Skip()
	if skip < 0 || skip >= len(docs) {
		return []domain.Document{}
	}
	docs = docs[skip:]
	if page.Limit > 0 && page.Limit < len(docs) {
		docs = docs[:page.Limit]
	}
	return docs
}
