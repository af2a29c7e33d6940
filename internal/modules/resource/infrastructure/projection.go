package infrastructure

import (
	"slices"
	"strings"

	query "toursApi/internal/modules/query/domain"
	"toursApi/internal/modules/resource/domain"
)

// readProjection folds the schema's hidden fields into a requested projection.
func readProjection(spec query.ProjectionSpec, schema *domain.Schema, includeHidden bool) query.ProjectionSpec {
	if includeHidden || len(schema.Hidden) == 0 {
		return spec
	}
	if spec.IsInclusion() {
		kept := make([]string, 0, len(spec.Include))
		for _, field := range spec.Include {
			head, _, _ := strings.Cut(field, ".")
			if !schema.IsHidden(head) {
				kept = append(kept, field)
			}
		}
		if len(kept) == 0 {
			kept = []string{domain.IDField}
		}
		return query.ProjectionSpec{Include: kept}
	}
	exclude := slices.Clone(spec.Exclude)
	for _, field := range schema.Hidden {
		if !slices.Contains(exclude, field) {
			exclude = append(exclude, field)
		}
	}
	return query.ProjectionSpec{Exclude: exclude}
}

// project applies spec to doc in place for exclusions and returns a new
// record for inclusions.
func project(doc domain.Document, spec query.ProjectionSpec) domain.Document {
	if spec.IsInclusion() {
		out := make(domain.Document, len(spec.Include)+1)
		if id, ok := doc[domain.IDField]; ok {
			out[domain.IDField] = id
		}
		for _, path := range spec.Include {
			if value, ok := domain.Lookup(doc, path); ok {
				domain.SetPath(out, path, value)
			}
		}
		return out
	}
	for _, path := range spec.Exclude {
		domain.DeletePath(doc, path)
	}
	return doc
}
