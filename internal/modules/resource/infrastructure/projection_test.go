package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"

	query "toursApi/internal/modules/query/domain"
	"toursApi/internal/modules/resource/domain"
)

func hiddenSchema() *domain.Schema {
	return &domain.Schema{
		Collection: "users",
		Fields: map[string]domain.FieldKind{
			"name":     domain.KindString,
			"email":    domain.KindString,
			"password": domain.KindString,
			"active":   domain.KindBool,
		},
		Hidden: []string{"password", "active"},
	}
}

func TestReadProjection(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		spec          query.ProjectionSpec
		includeHidden bool
		want          query.ProjectionSpec
	}{
		{
			name: "inclusion drops hidden fields",
			spec: query.ProjectionSpec{Include: []string{"name", "password"}},
			want: query.ProjectionSpec{Include: []string{"name"}},
		},
		{
			name: "inclusion drops hidden subpaths",
			spec: query.ProjectionSpec{Include: []string{"email", "password.hash"}},
			want: query.ProjectionSpec{Include: []string{"email"}},
		},
		{
			name: "only hidden fields keeps the id",
			spec: query.ProjectionSpec{Include: []string{"password"}},
			want: query.ProjectionSpec{Include: []string{domain.IDField}},
		},
		{
			name: "exclusion adds hidden fields",
			spec: query.DefaultProjection(),
			want: query.ProjectionSpec{Exclude: []string{query.VersionField, "password", "active"}},
		},
		{
			name: "exclusion does not repeat fields",
			spec: query.ProjectionSpec{Exclude: []string{"password"}},
			want: query.ProjectionSpec{Exclude: []string{"password", "active"}},
		},
		{
			name:          "hidden fields requested explicitly",
			spec:          query.ProjectionSpec{Include: []string{"password"}},
			includeHidden: true,
			want:          query.ProjectionSpec{Include: []string{"password"}},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := readProjection(tc.spec, hiddenSchema(), tc.includeHidden)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReadProjectionWithoutHiddenFields(t *testing.T) {
	t.Parallel()

	spec := query.ProjectionSpec{Include: []string{"name"}}
	got := readProjection(spec, codecSchema(), false)
	assert.Equal(t, spec, got)
}

func TestProjectInclusionKeepsID(t *testing.T) {
	t.Parallel()

	doc := domain.Document{
		domain.IDField: "abc",
		"name":         "The Snow Adventurer",
		"price":        997.0,
		"startLocation": map[string]any{
			"description": "Aspen, USA",
			"address":     "419 S Mill St",
		},
	}

	got := project(doc, query.ProjectionSpec{Include: []string{"name", "startLocation.description"}})

	want := domain.Document{
		domain.IDField:  "abc",
		"name":          "The Snow Adventurer",
		"startLocation": map[string]any{"description": "Aspen, USA"},
	}
	assert.Equal(t, want, got)
	if _, ok := doc["price"]; !ok {
		t.Fatalf("expected inclusion to leave the source record intact, got %v", doc)
	}
}

func TestProjectExclusionDeletesInPlace(t *testing.T) {
	t.Parallel()

	doc := domain.Document{
		domain.IDField:     "abc",
		"name":             "Leo",
		"password":         "secret",
		query.VersionField: 0,
	}

	got := project(doc, query.ProjectionSpec{Exclude: []string{"password", query.VersionField}})

	assert.Equal(t, domain.Document{domain.IDField: "abc", "name": "Leo"}, got)
	if _, ok := doc["password"]; ok {
		t.Fatalf("expected exclusion to modify the record, got %v", doc)
	}
}
