package category

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"wholesale-catalog/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT id::text, code, name, COALESCE(parent_code, ''), created_at
FROM categories
ORDER BY code ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.ParentCode, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Upsert(ctx context.Context, cat domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (code, name, parent_code)
VALUES ($1, $2, NULLIF($3, ''))
ON CONFLICT (code) DO UPDATE
SET name = EXCLUDED.name,
    parent_code = EXCLUDED.parent_code,
    updated_at = now()
RETURNING id::text, created_at
`
	out := cat
	if err := r.pool.QueryRow(ctx, q, cat.Code, cat.Name, cat.ParentCode).Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Mapping(ctx context.Context) (domain.CategoryMapping, error) {
	rows, err := r.pool.Query(ctx, `SELECT code, id::text FROM categories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := domain.CategoryMapping{}
	for rows.Next() {
		var code, id string
		if err := rows.Scan(&code, &id); err != nil {
			return nil, err
		}
		out[code] = id
	}
	return out, rows.Err()
}
