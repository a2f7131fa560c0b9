package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"wholesale-catalog/internal/domain"
)

const (
	kindSimple    = "simple"
	kindVariation = "variation"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zerolog.Logger) Repository {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) UpsertProduct(ctx context.Context, p domain.ProductPayload) (domain.SinkResult, error) {
	var res domain.SinkResult
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := productRow{
			record:     p.Record,
			kind:       kindSimple,
			categories: p.Categories,
			price:      p.Price,
			images:     p.Images,
		}
		var err error
		res, err = upsertProduct(ctx, tx, row)
		return err
	})
	if err != nil {
		r.logger.Error().Err(err).Str("barcode", p.Record.Barcode).Msg("product repo: upsert product")
		return domain.SinkResult{}, err
	}
	r.logger.Debug().Str("barcode", p.Record.Barcode).Str("id", res.ID).Bool("created", res.Created).Msg("product repo: upserted product")
	return res, nil
}

func (r *postgresRepo) UpsertVariationGroup(ctx context.Context, g domain.GroupPayload) (domain.SinkResult, error) {
	const q = `
INSERT INTO variation_groups (group_key, base_name, manufacturer_code, type_code, attribute)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (group_key) DO UPDATE SET
    base_name = EXCLUDED.base_name,
    attribute = EXCLUDED.attribute,
    updated_at = now()
RETURNING id::text, (xmax = 0)
`
	var res domain.SinkResult
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		grp := g.Group
		if err := tx.QueryRow(ctx, q, grp.Key(), grp.BaseName, grp.ManufacturerCode, grp.TypeCode, string(grp.Attribute)).
			Scan(&res.ID, &res.Created); err != nil {
			return fmt.Errorf("upsert group %q: %w", grp.Key(), err)
		}
		barcodes := make([]string, 0, len(g.Members))
		for _, m := range g.Members {
			row := productRow{
				record:     m.Record,
				kind:       kindVariation,
				groupID:    res.ID,
				option:     m.OptionValue,
				categories: m.Categories,
				price:      m.Price,
				images:     m.Images,
			}
			if _, err := upsertProduct(ctx, tx, row); err != nil {
				return err
			}
			barcodes = append(barcodes, m.Record.Barcode)
		}
		// members that left the group become simple products again
		_, err := tx.Exec(ctx, `
UPDATE products SET group_id = NULL, kind = 'simple', option_value = NULL, updated_at = now()
WHERE group_id = $1::uuid AND NOT (barcode = ANY($2::text[]))
`, res.ID, barcodes)
		return err
	})
	if err != nil {
		r.logger.Error().Err(err).Str("group", g.Group.Key()).Msg("product repo: upsert variation group")
		return domain.SinkResult{}, err
	}
	r.logger.Debug().Str("group", g.Group.Key()).Int("members", len(g.Members)).Bool("created", res.Created).Msg("product repo: upserted variation group")
	return res, nil
}

func (r *postgresRepo) GetByBarcode(ctx context.Context, barcode string) (*domain.CatalogProduct, error) {
	const q = `
SELECT p.id::text, p.barcode, p.sku, p.name, p.kind, COALESCE(g.group_key, ''), COALESCE(p.option_value, ''),
       p.regular_price::text, p.sale_price::text, p.stock_quantity, p.active, p.category_method,
       ARRAY(SELECT c.code FROM product_categories pc JOIN categories c ON c.id = pc.category_id
             WHERE pc.product_id = p.id ORDER BY pc.position),
       ARRAY(SELECT pi.content_hash FROM product_images pi WHERE pi.product_id = p.id ORDER BY pi.position),
       p.updated_at
FROM products p
LEFT JOIN variation_groups g ON g.id = p.group_id
WHERE p.barcode = $1
`
	var (
		out           domain.CatalogProduct
		regular, sale string
		method        string
		codes, hashes []string
		updatedAt     time.Time
	)
	err := r.pool.QueryRow(ctx, q, barcode).Scan(
		&out.ID, &out.Barcode, &out.SKU, &out.Name, &out.Kind, &out.GroupKey, &out.OptionValue,
		&regular, &sale, &out.StockQuantity, &out.Active, &method, &codes, &hashes, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("barcode", barcode).Msg("product repo: get by barcode")
		return nil, err
	}
	if out.RegularPrice, err = decimal.NewFromString(regular); err != nil {
		return nil, err
	}
	if out.SalePrice, err = decimal.NewFromString(sale); err != nil {
		return nil, err
	}
	out.CategoryMethod = domain.CategoryMethod(method)
	out.CategoryCodes = codes
	out.ImageHashes = hashes
	out.UpdatedAt = updatedAt
	return &out, nil
}

type productRow struct {
	record     domain.ProductRecord
	kind       string
	groupID    string
	option     string
	categories domain.CategoryAssignment
	price      domain.PriceQuote
	images     []domain.ImageArtifact
}

func upsertProduct(ctx context.Context, tx pgx.Tx, row productRow) (domain.SinkResult, error) {
	const q = `
INSERT INTO products (
    barcode, sku, name, description, kind, group_id, option_value,
    wholesale_price, regular_price, sale_price, price_multiplier,
    stock_quantity, active, on_sale, discountable,
    length, width, height, weight, color, material, size,
    manufacturer_code, manufacturer_name, type_code, type_name, category_method
)
VALUES (
    $1, $2, $3, $4, $5, NULLIF($6, '')::uuid, NULLIF($7, ''),
    $8::numeric, $9::numeric, $10::numeric, $11::numeric,
    $12, $13, $14, $15,
    $16::numeric, $17::numeric, $18::numeric, $19::numeric, $20, $21, $22,
    $23, $24, $25, $26, $27
)
ON CONFLICT (barcode) DO UPDATE SET
    sku = EXCLUDED.sku,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    kind = EXCLUDED.kind,
    group_id = EXCLUDED.group_id,
    option_value = EXCLUDED.option_value,
    wholesale_price = EXCLUDED.wholesale_price,
    regular_price = EXCLUDED.regular_price,
    sale_price = EXCLUDED.sale_price,
    price_multiplier = EXCLUDED.price_multiplier,
    stock_quantity = EXCLUDED.stock_quantity,
    active = EXCLUDED.active,
    on_sale = EXCLUDED.on_sale,
    discountable = EXCLUDED.discountable,
    length = EXCLUDED.length,
    width = EXCLUDED.width,
    height = EXCLUDED.height,
    weight = EXCLUDED.weight,
    color = EXCLUDED.color,
    material = EXCLUDED.material,
    size = EXCLUDED.size,
    manufacturer_code = EXCLUDED.manufacturer_code,
    manufacturer_name = EXCLUDED.manufacturer_name,
    type_code = EXCLUDED.type_code,
    type_name = EXCLUDED.type_name,
    category_method = EXCLUDED.category_method,
    updated_at = now()
RETURNING id::text, (xmax = 0)
`
	rec := row.record
	var res domain.SinkResult
	err := tx.QueryRow(ctx, q,
		rec.Barcode, rec.SKU, rec.Name, rec.Description, row.kind, row.groupID, row.option,
		rec.WholesalePrice.StringFixed(2), row.price.RegularPrice.StringFixed(2), row.price.SalePrice.StringFixed(2), row.price.Multiplier.StringFixed(6),
		rec.StockQuantity, rec.Active, rec.OnSale, rec.Discountable,
		rec.Dimensions.Length.String(), rec.Dimensions.Width.String(), rec.Dimensions.Height.String(), rec.Dimensions.Weight.String(),
		rec.Attributes.Color, rec.Attributes.Material, rec.Attributes.Size,
		rec.ManufacturerCode, rec.ManufacturerName, rec.TypeCode, rec.TypeName, string(row.categories.Method),
	).Scan(&res.ID, &res.Created)
	if err != nil {
		return domain.SinkResult{}, fmt.Errorf("upsert product %q: %w", rec.Barcode, err)
	}
	if err := replaceCategories(ctx, tx, res.ID, row.categories.Codes); err != nil {
		return domain.SinkResult{}, fmt.Errorf("link categories for %q: %w", rec.Barcode, err)
	}
	if err := replaceImages(ctx, tx, res.ID, row.images); err != nil {
		return domain.SinkResult{}, fmt.Errorf("link images for %q: %w", rec.Barcode, err)
	}
	return res, nil
}

func replaceCategories(ctx context.Context, tx pgx.Tx, productID string, codes []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1::uuid`, productID); err != nil {
		return err
	}
	if len(codes) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
INSERT INTO product_categories (product_id, category_id, position)
SELECT $1::uuid, c.id, x.ord::int
FROM unnest($2::text[]) WITH ORDINALITY AS x(code, ord)
JOIN categories c ON c.code = x.code
ON CONFLICT DO NOTHING
`, productID, codes)
	return err
}

func replaceImages(ctx context.Context, tx pgx.Tx, productID string, images []domain.ImageArtifact) error {
	if _, err := tx.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1::uuid`, productID); err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for pos, img := range images {
		batch.Queue(`
INSERT INTO images (content_hash, local_path, width, height, public_url)
VALUES ($1, $2, $3, $4, NULLIF($5, ''))
ON CONFLICT (content_hash) DO UPDATE SET
    public_url = COALESCE(EXCLUDED.public_url, images.public_url)
`, img.ContentHash, img.LocalPath, img.Width, img.Height, img.PublicURL)
		batch.Queue(`
INSERT INTO product_images (product_id, position, content_hash, source_ref)
VALUES ($1::uuid, $2, $3, $4)
`, productID, pos, img.ContentHash, img.SourceRef)
	}
	return tx.SendBatch(ctx, batch).Close()
}
