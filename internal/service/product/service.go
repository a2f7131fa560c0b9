package product

import (
	"context"
	"strings"

	"wholesale-catalog/internal/domain"
	productrepo "wholesale-catalog/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByBarcode(ctx context.Context, barcode string) (*domain.CatalogProduct, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByBarcode(ctx, barcode)
}
