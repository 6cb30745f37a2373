package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"agrimarket/internal/domain"
)

type WeatherRepository interface {
	ListFromDate(ctx context.Context, location, fromDate string, limit int) ([]domain.WeatherEntry, error)
	Upsert(ctx context.Context, entry domain.WeatherEntry) error
}

type PgWeatherRepository struct {
	pool *pgxpool.Pool
}

func NewPgWeatherRepository(pool *pgxpool.Pool) *PgWeatherRepository {
	return &PgWeatherRepository{pool: pool}
}

// ListFromDate devuelve entradas desde la fecha dada en orden ascendente.
func (r *PgWeatherRepository) ListFromDate(ctx context.Context, location, fromDate string, limit int) ([]domain.WeatherEntry, error) {
	const query = `
		SELECT id, location, date, temperature_min, temperature_max, humidity, precipitation, wind_speed, conditions, COALESCE(advice, ''), created_at
		FROM weather_data
		WHERE location = $1 AND date >= $2
		ORDER BY date ASC
		LIMIT $3
	`
	if limit <= 0 {
		limit = 7
	}
	rows, err := r.pool.Query(ctx, query, location, fromDate, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.WeatherEntry
	for rows.Next() {
		var e domain.WeatherEntry
		err = rows.Scan(
			&e.ID,
			&e.Location,
			&e.Date,
			&e.TemperatureMin,
			&e.TemperatureMax,
			&e.Humidity,
			&e.Precipitation,
			&e.WindSpeed,
			&e.Conditions,
			&e.Advice,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Upsert inserta o actualiza por la clave natural (location, date).
func (r *PgWeatherRepository) Upsert(ctx context.Context, entry domain.WeatherEntry) error {
	const query = `
		INSERT INTO weather_data (id, location, date, temperature_min, temperature_max, humidity, precipitation, wind_speed, conditions, advice, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (location, date) DO UPDATE SET
			temperature_min = EXCLUDED.temperature_min,
			temperature_max = EXCLUDED.temperature_max,
			humidity = EXCLUDED.humidity,
			precipitation = EXCLUDED.precipitation,
			wind_speed = EXCLUDED.wind_speed,
			conditions = EXCLUDED.conditions,
			advice = EXCLUDED.advice
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.Location,
		entry.Date,
		entry.TemperatureMin,
		entry.TemperatureMax,
		entry.Humidity,
		entry.Precipitation,
		entry.WindSpeed,
		entry.Conditions,
		entry.Advice,
		entry.CreatedAt,
	)
	return err
}
