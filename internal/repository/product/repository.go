package product

import (
	"context"

	"wholesale-catalog/internal/domain"
)

// Repository is the Postgres-backed catalog sink plus the lookups the API
// serves from it. Writes are idempotent by barcode and by group key.
type Repository interface {
	UpsertProduct(ctx context.Context, p domain.ProductPayload) (domain.SinkResult, error)
	UpsertVariationGroup(ctx context.Context, g domain.GroupPayload) (domain.SinkResult, error)
	GetByBarcode(ctx context.Context, barcode string) (*domain.CatalogProduct, error)
}
