package domain

import "strings"

// CreatedAtField is the creation timestamp used by the default sort.
const CreatedAtField = "createdAt"

// SortDirection orders one sort key.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortKey sorts on one field.
type SortKey struct {
	Field     string
	Direction SortDirection
}

// SortSpec lists sort keys in priority order.
type SortSpec []SortKey

// DefaultSort orders newest records first.
func DefaultSort() SortSpec {
	return SortSpec{{Field: CreatedAtField, Direction: SortDesc}}
}

// ParseSort reads a comma separated list where a leading "-" means descending.
// Empty tokens are skipped and repeated fields keep their first position.
func ParseSort(raw string) SortSpec {
	tokens := strings.Split(raw, ",")
	spec := make(SortSpec, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		direction := SortAsc
		if strings.HasPrefix(token, "-") {
			direction = SortDesc
			token = strings.TrimSpace(token[1:])
		}
		if token == "" || strings.HasPrefix(token, "$") {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		spec = append(spec, SortKey{Field: token, Direction: direction})
	}
	return spec
}

func (s SortSpec) String() string {
	parts := make([]string, 0, len(s))
	for _, key := range s {
		if key.Direction == SortDesc {
			parts = append(parts, "-"+key.Field)
			continue
		}
		parts = append(parts, key.Field)
	}
	return strings.Join(parts, ",")
}
