package source

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wholesale-catalog/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByKey(ctx context.Context, key string) (*domain.Source, error) {
	const q = `
SELECT id::text, key, name, created_at
FROM import_sources
WHERE key = $1
`
	var s domain.Source
	err := r.pool.QueryRow(ctx, q, key).Scan(&s.ID, &s.Key, &s.Name, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepo) Ensure(ctx context.Context, key, name string) (*domain.Source, error) {
	if name == "" {
		name = key
	}
	const q = `
INSERT INTO import_sources (key, name)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET key = EXCLUDED.key
RETURNING id::text, name, created_at
`
	out := domain.Source{Key: key}
	if err := r.pool.QueryRow(ctx, q, key, name).Scan(&out.ID, &out.Name, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}
