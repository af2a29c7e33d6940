package normalization

import "strings"

// entityAliases maps singular and plural entity names to their collection.
var entityAliases = map[string]string{
	"":    "",
	"-":   "",
	"all": "",
	"*":   "",

	"tour":  "tours",
	"tours": "tours",

	"user":  "users",
	"users": "users",

	"review":  "reviews",
	"reviews": "reviews",

	"booking":  "bookings",
	"bookings": "bookings",
}

// NormalizeEntity returns the canonical collection name for entity. Unknown
// names are returned lower-cased and trimmed.
func NormalizeEntity(entity string) string {
	key := strings.ToLower(strings.TrimSpace(entity))
	if canonical, ok := entityAliases[key]; ok {
		return canonical
	}
	return key
}

// NormalizeEntities splits a comma separated list and drops duplicates.
func NormalizeEntities(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		entity := NormalizeEntity(part)
		if entity == "" {
			continue
		}
		if _, dup := seen[entity]; dup {
			continue
		}
		seen[entity] = struct{}{}
		out = append(out, entity)
	}
	return out
}
