package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"agrimarket/internal/domain"
)

type FarmRepository interface {
	Create(ctx context.Context, farm domain.Farm) error
	ListByFarmerID(ctx context.Context, farmerID string) ([]domain.Farm, error)
	Delete(ctx context.Context, id, farmerID string) error
}

type PgFarmRepository struct {
	pool *pgxpool.Pool
}

func NewPgFarmRepository(pool *pgxpool.Pool) *PgFarmRepository {
	return &PgFarmRepository{pool: pool}
}

func (r *PgFarmRepository) Create(ctx context.Context, farm domain.Farm) error {
	const query = `
		INSERT INTO farms (id, farmer_id, name, location, size_hectares, soil_type, crops, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		farm.ID,
		farm.FarmerID,
		farm.Name,
		farm.Location,
		farm.SizeHectares,
		farm.SoilType,
		farm.Crops,
		farm.CreatedAt,
	)
	return err
}

// ListByFarmerID devuelve las fincas más recientes primero.
func (r *PgFarmRepository) ListByFarmerID(ctx context.Context, farmerID string) ([]domain.Farm, error) {
	const query = `
		SELECT id, farmer_id, name, location, size_hectares, soil_type, crops, created_at
		FROM farms
		WHERE farmer_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, farmerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var farms []domain.Farm
	for rows.Next() {
		var f domain.Farm
		err = rows.Scan(
			&f.ID,
			&f.FarmerID,
			&f.Name,
			&f.Location,
			&f.SizeHectares,
			&f.SoilType,
			&f.Crops,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		farms = append(farms, f)
	}
	return farms, rows.Err()
}

func (r *PgFarmRepository) Delete(ctx context.Context, id, farmerID string) error {
	const query = `DELETE FROM farms WHERE id = $1 AND farmer_id = $2`
	_, err := r.pool.Exec(ctx, query, id, farmerID)
	return err
}
