package domain

import (
	"strings"

	query "toursApi/internal/modules/query/domain"
)

// Relation asks the store to resolve references when returning records.
//
// A plain relation replaces the identifiers stored under Path with the
// referenced records. A virtual relation (ForeignField set) stores nothing
// on the parent: it collects records of Collection whose ForeignField points
// back at the parent and places them under Path.
type Relation struct {
	Path         string
	Collection   string
	ForeignField string
	Select       []string
}

func (r Relation) Virtual() bool {
	return r.ForeignField != ""
}

// Projection converts Select into a projection of the related records.
func (r Relation) Projection() query.ProjectionSpec {
	if len(r.Select) == 0 {
		return query.DefaultProjection()
	}
	spec := query.ParseProjection(strings.Join(r.Select, ","))
	if r.Virtual() && spec.IsInclusion() {
		spec.Include = append(spec.Include, r.ForeignField)
	}
	return spec
}
