package category

import (
	"context"
	"fmt"

	"wholesale-catalog/internal/domain"
	"wholesale-catalog/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	if c.Code == "" || c.Name == "" {
		return nil, fmt.Errorf("category needs code and name, got %q/%q", c.Code, c.Name)
	}
	return s.repo.Upsert(ctx, c)
}

func (s *Service) Mapping(ctx context.Context) (domain.CategoryMapping, error) {
	return s.repo.Mapping(ctx)
}
