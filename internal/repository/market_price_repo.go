package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"agrimarket/internal/domain"
)

// MarketPriceFilter acota la consulta de precios de mercado.
type MarketPriceFilter struct {
	Country  string
	CropName string
	Limit    int
}

type MarketPriceRepository interface {
	List(ctx context.Context, filter MarketPriceFilter) ([]domain.MarketPrice, error)
	Upsert(ctx context.Context, price domain.MarketPrice) error
}

type PgMarketPriceRepository struct {
	pool *pgxpool.Pool
}

func NewPgMarketPriceRepository(pool *pgxpool.Pool) *PgMarketPriceRepository {
	return &PgMarketPriceRepository{pool: pool}
}

// List devuelve precios ordenados por fecha descendente.
func (r *PgMarketPriceRepository) List(ctx context.Context, filter MarketPriceFilter) ([]domain.MarketPrice, error) {
	const query = `
		SELECT id, crop_name, market_location, country, price_per_kg, currency, date, source, created_at
		FROM market_prices
		WHERE ($1 = '' OR country = $1)
		  AND ($2 = '' OR crop_name = $2)
		ORDER BY date DESC
		LIMIT $3
	`
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, query, filter.Country, filter.CropName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []domain.MarketPrice
	for rows.Next() {
		var p domain.MarketPrice
		err = rows.Scan(
			&p.ID,
			&p.CropName,
			&p.MarketLocation,
			&p.Country,
			&p.PricePerKg,
			&p.Currency,
			&p.Date,
			&p.Source,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// Upsert inserta o actualiza por la clave natural (crop_name, market_location, date).
func (r *PgMarketPriceRepository) Upsert(ctx context.Context, price domain.MarketPrice) error {
	const query = `
		INSERT INTO market_prices (id, crop_name, market_location, country, price_per_kg, currency, date, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (crop_name, market_location, date) DO UPDATE SET
			price_per_kg = EXCLUDED.price_per_kg,
			currency = EXCLUDED.currency,
			source = EXCLUDED.source
	`
	_, err := r.pool.Exec(ctx, query,
		price.ID,
		price.CropName,
		price.MarketLocation,
		price.Country,
		price.PricePerKg,
		price.Currency,
		price.Date,
		price.Source,
		price.CreatedAt,
	)
	return err
}
