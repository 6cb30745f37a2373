package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"agrimarket/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	SetOTP(ctx context.Context, id, codeHash string, expiresAt time.Time) error
	MarkEmailVerified(ctx context.Context, id string, at time.Time) error
}

type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, password_hash, email_verified_at, otp_code_hash, otp_expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.EmailVerifiedAt,
		nullIfEmpty(user.OtpCodeHash),
		user.OtpExpiresAt,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT id, email, password_hash, email_verified_at, otp_code_hash, otp_expires_at, created_at
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `
		SELECT id, email, password_hash, email_verified_at, otp_code_hash, otp_expires_at, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) SetOTP(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	const query = `UPDATE users SET otp_code_hash = $2, otp_expires_at = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, codeHash, expiresAt)
	return err
}

func (r *PgUserRepository) MarkEmailVerified(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET email_verified_at = $2, otp_code_hash = NULL, otp_expires_at = NULL WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PgUserRepository) scanUser(row rowScanner) (domain.User, error) {
	var user domain.User
	var otpHash *string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.EmailVerifiedAt,
		&otpHash,
		&user.OtpExpiresAt,
		&user.CreatedAt,
	)
	if otpHash != nil {
		user.OtpCodeHash = *otpHash
	}
	return user, err
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
