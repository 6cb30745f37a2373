package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"agrimarket/internal/domain"
)

// ProductFilter acota el listado del marketplace.
type ProductFilter struct {
	Category string
	Search   string
	Limit    int
}

type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) error
}

type PgProductRepository struct {
	pool *pgxpool.Pool
}

func NewPgProductRepository(pool *pgxpool.Pool) *PgProductRepository {
	return &PgProductRepository{pool: pool}
}

// List devuelve productos con stock, más recientes primero, con los
// datos públicos del proveedor.
func (r *PgProductRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	const query = `
		SELECT p.id, p.supplier_id, p.name, p.category, p.description, p.price, p.currency,
		       p.stock_quantity, p.image_url, p.is_organic, p.specifications, p.created_at,
		       COALESCE(pr.full_name, ''), COALESCE(pr.is_verified, false)
		FROM agricultural_products p
		LEFT JOIN profiles pr ON pr.id = p.supplier_id
		WHERE p.stock_quantity > 0
		  AND ($1 = '' OR p.category = $1)
		  AND ($2 = '' OR p.name ILIKE '%' || $2 || '%')
		ORDER BY p.created_at DESC
		LIMIT $3
	`
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, query, filter.Category, filter.Search, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		err = rows.Scan(
			&p.ID,
			&p.SupplierID,
			&p.Name,
			&p.Category,
			&p.Description,
			&p.Price,
			&p.Currency,
			&p.StockQuantity,
			&p.ImageURL,
			&p.IsOrganic,
			&p.Specifications,
			&p.CreatedAt,
			&p.SupplierName,
			&p.SupplierVerified,
		)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *PgProductRepository) GetByID(ctx context.Context, id string) (domain.Product, error) {
	const query = `
		SELECT id, supplier_id, name, category, description, price, currency,
		       stock_quantity, image_url, is_organic, specifications, created_at
		FROM agricultural_products
		WHERE id = $1
	`
	var p domain.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.SupplierID,
		&p.Name,
		&p.Category,
		&p.Description,
		&p.Price,
		&p.Currency,
		&p.StockQuantity,
		&p.ImageURL,
		&p.IsOrganic,
		&p.Specifications,
		&p.CreatedAt,
	)
	return p, err
}

// Upsert inserta o actualiza por la clave natural (supplier_id, name).
func (r *PgProductRepository) Upsert(ctx context.Context, product domain.Product) error {
	const query = `
		INSERT INTO agricultural_products
			(id, supplier_id, name, category, description, price, currency, stock_quantity, image_url, is_organic, specifications, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (supplier_id, name) DO UPDATE SET
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			stock_quantity = EXCLUDED.stock_quantity,
			is_organic = EXCLUDED.is_organic,
			specifications = EXCLUDED.specifications
	`
	_, err := r.pool.Exec(ctx, query,
		product.ID,
		product.SupplierID,
		product.Name,
		product.Category,
		product.Description,
		product.Price,
		product.Currency,
		product.StockQuantity,
		product.ImageURL,
		product.IsOrganic,
		product.Specifications,
		product.CreatedAt,
	)
	return err
}
