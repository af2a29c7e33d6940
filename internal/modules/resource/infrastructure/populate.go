package infrastructure

import (
	"context"
	"fmt"

	query "toursApi/internal/modules/query/domain"
	"toursApi/internal/modules/resource/domain"
)

// Related records are expanded one level deep, plus the relations their own
// schema resolves automatically.
const maxPopulateDepth = 2

// relatedFinder loads records of another collection whose field holds one
// of ids.
type relatedFinder interface {
	findRelated(ctx context.Context, schema *domain.Schema, field string, ids []string, projection query.ProjectionSpec) ([]domain.Document, error)
}

func populate(ctx context.Context, finder relatedFinder, registry *domain.Registry, docs []domain.Document, relations []domain.Relation, depth int) error {
	if len(docs) == 0 || depth >= maxPopulateDepth {
		return nil
	}
	for _, rel := range relations {
		if registry == nil {
			return fmt.Errorf("populate %s: no schema registry", rel.Path)
		}
		target, ok := registry.Lookup(rel.Collection)
		if !ok {
			return fmt.Errorf("populate %s: unknown collection %q", rel.Path, rel.Collection)
		}
		var err error
		if rel.Virtual() {
			err = populateVirtual(ctx, finder, registry, target, docs, rel, depth)
		} else {
			err = populateRef(ctx, finder, registry, target, docs, rel, depth)
		}
		if err != nil {
			return fmt.Errorf("populate %s: %w", rel.Path, err)
		}
	}
	return nil
}

func loadRelated(ctx context.Context, finder relatedFinder, registry *domain.Registry, target *domain.Schema, field string, ids []string, rel domain.Relation, depth int) ([]domain.Document, error) {
	related, err := finder.findRelated(ctx, target, field, ids, readProjection(rel.Projection(), target, false))
	if err != nil {
		return nil, err
	}
	if err := populate(ctx, finder, registry, related, target.Populate, depth+1); err != nil {
		return nil, err
	}
	if target.Present != nil {
		for _, doc := range related {
			target.Present(doc)
		}
	}
	return related, nil
}

func populateRef(ctx context.Context, finder relatedFinder, registry *domain.Registry, target *domain.Schema, docs []domain.Document, rel domain.Relation, depth int) error {
	seen := make(map[string]struct{})
	var ids []string
	collect := func(v any) {
		if id := domain.RefID(v); id != "" {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	for _, doc := range docs {
		switch value := doc[rel.Path].(type) {
		case []any:
			for _, item := range value {
				collect(item)
			}
		default:
			collect(value)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	related, err := loadRelated(ctx, finder, registry, target, domain.IDField, ids, rel, depth)
	if err != nil {
		return err
	}
	byID := make(map[string]domain.Document, len(related))
	for _, r := range related {
		byID[domain.IDOf(r)] = r
	}

	for _, doc := range docs {
		value, present := doc[rel.Path]
		if !present {
			continue
		}
		switch typed := value.(type) {
		case []any:
			resolved := make([]any, 0, len(typed))
			for _, item := range typed {
				if r, ok := byID[domain.RefID(item)]; ok {
					resolved = append(resolved, domain.Clone(r))
				}
			}
			doc[rel.Path] = resolved
		default:
			if r, ok := byID[domain.RefID(typed)]; ok {
				doc[rel.Path] = domain.Clone(r)
			} else {
				doc[rel.Path] = nil
			}
		}
	}
	return nil
}

func populateVirtual(ctx context.Context, finder relatedFinder, registry *domain.Registry, target *domain.Schema, docs []domain.Document, rel domain.Relation, depth int) error {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if id := domain.IDOf(doc); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	related, err := loadRelated(ctx, finder, registry, target, rel.ForeignField, ids, rel, depth)
	if err != nil {
		return err
	}
	grouped := make(map[string][]any, len(ids))
	for _, r := range related {
		owner := domain.RefID(r[rel.ForeignField])
		grouped[owner] = append(grouped[owner], r)
	}
	for _, doc := range docs {
		items := grouped[domain.IDOf(doc)]
		if items == nil {
			items = []any{}
		}
		doc[rel.Path] = items
	}
	return nil
}
