package seed

import (
	"context"
	"fmt"

	"wholesale-catalog/internal/config"
	"wholesale-catalog/internal/domain"
)

type CategoryUpserter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

// Apply upserts the taxonomy, parents before children, and returns how many
// categories were written. It is idempotent via ON CONFLICT in the repository.
func Apply(ctx context.Context, repo CategoryUpserter, taxonomy []config.TaxonomyEntry) (int, error) {
	ordered, err := parentsFirst(taxonomy)
	if err != nil {
		return 0, err
	}
	for i, e := range ordered {
		if _, err := repo.Upsert(ctx, domain.Category{Code: e.Code, Name: e.Name, ParentCode: e.Parent}); err != nil {
			return i, fmt.Errorf("upsert category %s: %w", e.Code, err)
		}
	}
	return len(ordered), nil
}

// parentsFirst orders entries so every parent precedes its children. Parents
// outside the taxonomy are assumed to exist already.
func parentsFirst(taxonomy []config.TaxonomyEntry) ([]config.TaxonomyEntry, error) {
	pending := make(map[string]bool, len(taxonomy))
	for _, e := range taxonomy {
		pending[e.Code] = true
	}

	out := make([]config.TaxonomyEntry, 0, len(taxonomy))
	rest := taxonomy
	for len(rest) > 0 {
		var next []config.TaxonomyEntry
		for _, e := range rest {
			if e.Parent != "" && e.Parent != e.Code && pending[e.Parent] {
				next = append(next, e)
				continue
			}
			if e.Parent == e.Code {
				return nil, fmt.Errorf("category %s is its own parent", e.Code)
			}
			out = append(out, e)
			delete(pending, e.Code)
		}
		if len(next) == len(rest) {
			return nil, fmt.Errorf("category parents form a cycle at %s", rest[0].Code)
		}
		rest = next
	}
	return out, nil
}
