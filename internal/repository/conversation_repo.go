package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"agrimarket/internal/domain"
)

type ConversationRepository interface {
	Create(ctx context.Context, conv domain.Conversation) error
	GetByID(ctx context.Context, id string) (domain.Conversation, error)
	ListByProfileID(ctx context.Context, profileID string) ([]domain.Conversation, error)
	UpdateTitle(ctx context.Context, id, title string) error
	Touch(ctx context.Context, id string, at time.Time) error
}

type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

func (r *PgConversationRepository) Create(ctx context.Context, conv domain.Conversation) error {
	const query = `
		INSERT INTO ai_conversations (id, profile_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		conv.ID,
		conv.ProfileID,
		nullIfEmpty(conv.Title),
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	return err
}

func (r *PgConversationRepository) GetByID(ctx context.Context, id string) (domain.Conversation, error) {
	const query = `
		SELECT id, profile_id, title, created_at, updated_at
		FROM ai_conversations
		WHERE id = $1
	`
	return r.scanConversation(r.pool.QueryRow(ctx, query, id))
}

// ListByProfileID devuelve las conversaciones más recientes primero.
func (r *PgConversationRepository) ListByProfileID(ctx context.Context, profileID string) ([]domain.Conversation, error) {
	const query = `
		SELECT id, profile_id, title, created_at, updated_at
		FROM ai_conversations
		WHERE profile_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		conv, err := r.scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *PgConversationRepository) UpdateTitle(ctx context.Context, id, title string) error {
	const query = `UPDATE ai_conversations SET title = $2, updated_at = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, title, time.Now().UTC())
	return err
}

func (r *PgConversationRepository) Touch(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE ai_conversations SET updated_at = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}

func (r *PgConversationRepository) scanConversation(row rowScanner) (domain.Conversation, error) {
	var conv domain.Conversation
	var title *string
	err := row.Scan(&conv.ID, &conv.ProfileID, &title, &conv.CreatedAt, &conv.UpdatedAt)
	if title != nil {
		conv.Title = *title
	}
	return conv, err
}
