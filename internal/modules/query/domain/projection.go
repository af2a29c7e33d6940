package domain

import "strings"

// VersionField is the internal revision counter kept on every record.
const VersionField = "__v"

// ProjectionSpec selects fields. Only one of Include and Exclude is set.
type ProjectionSpec struct {
	Include []string
	Exclude []string
}

// DefaultProjection hides the revision counter.
func DefaultProjection() ProjectionSpec {
	return ProjectionSpec{Exclude: []string{VersionField}}
}

// IsInclusion reports whether the projection lists the fields to keep.
func (p ProjectionSpec) IsInclusion() bool {
	return len(p.Include) > 0
}

// IsZero reports whether the projection selects nothing.
func (p ProjectionSpec) IsZero() bool {
	return len(p.Include) == 0 && len(p.Exclude) == 0
}

// ParseProjection reads a comma separated field list. A list made only of
// "-field" tokens is an exclusion; otherwise "-" tokens are ignored and the
// remaining names are included.
func ParseProjection(raw string) ProjectionSpec {
	var include, exclude []string
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if strings.HasPrefix(token, "-") {
			if name := strings.TrimSpace(token[1:]); name != "" && !strings.HasPrefix(name, "$") {
				exclude = append(exclude, name)
			}
			continue
		}
		if strings.HasPrefix(token, "$") {
			continue
		}
		include = append(include, token)
	}
	if len(include) > 0 {
		return ProjectionSpec{Include: include}
	}
	return ProjectionSpec{Exclude: exclude}
}
