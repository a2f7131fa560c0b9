package source

import (
	"context"

	"wholesale-catalog/internal/domain"
)

type Repository interface {
	GetByKey(ctx context.Context, key string) (*domain.Source, error)
	// Ensure returns the source registered under key, creating it when missing.
	Ensure(ctx context.Context, key, name string) (*domain.Source, error)
}
