package category

import (
	"context"

	"wholesale-catalog/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Category, error)
	Upsert(ctx context.Context, cat domain.Category) (*domain.Category, error)
	// Mapping returns every known category code keyed to its sink identifier.
	Mapping(ctx context.Context) (domain.CategoryMapping, error)
}
