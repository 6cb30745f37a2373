package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"agrimarket/internal/domain"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile domain.Profile) error
	GetByUserID(ctx context.Context, userID string) (domain.Profile, error)
	GetByID(ctx context.Context, id string) (domain.Profile, error)
}

type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

func (r *PgProfileRepository) Create(ctx context.Context, profile domain.Profile) error {
	const query = `
		INSERT INTO profiles (id, user_id, full_name, user_type, phone_number, location, is_verified, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.UserID,
		profile.FullName,
		profile.UserType,
		profile.PhoneNumber,
		profile.Location,
		profile.IsVerified,
		profile.AvatarURL,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	return err
}

func (r *PgProfileRepository) GetByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	const query = `
		SELECT id, user_id, full_name, user_type, phone_number, location, is_verified, avatar_url, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	return r.scanProfile(r.pool.QueryRow(ctx, query, userID))
}

func (r *PgProfileRepository) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	const query = `
		SELECT id, user_id, full_name, user_type, phone_number, location, is_verified, avatar_url, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`
	return r.scanProfile(r.pool.QueryRow(ctx, query, id))
}

func (r *PgProfileRepository) scanProfile(row rowScanner) (domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.FullName,
		&p.UserType,
		&p.PhoneNumber,
		&p.Location,
		&p.IsVerified,
		&p.AvatarURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
