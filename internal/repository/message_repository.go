package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goldenticket/goldenticket/internal/domain"
)

// MessageRepository encapsulates chat message persistence. Messages
// are append-only.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	ListByChatroom(ctx context.Context, chatroomID string) ([]domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository instantiates repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO messages (id, chatroom_id, sender_user_id, body)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		message.ID,
		message.ChatroomID,
		message.SenderID,
		message.Body,
	).Scan(&message.CreatedAt)
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	const query = messageColumns + ` WHERE m.id=$1`
	var message domain.Message
	if err := r.pool.QueryRow(ctx, query, id).Scan(messageFields(&message)...); err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) ListByChatroom(ctx context.Context, chatroomID string) ([]domain.Message, error) {
	const query = messageColumns + ` WHERE m.chatroom_id=$1 ORDER BY m.created_at`
	rows, err := r.pool.Query(ctx, query, chatroomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var message domain.Message
		if err := rows.Scan(messageFields(&message)...); err != nil {
			return nil, err
		}
		result = append(result, message)
	}
	return result, rows.Err()
}

const messageColumns = `
        SELECT m.id, m.chatroom_id, m.sender_user_id, m.body, m.created_at,
               u.id, u.name, u.email, u.role, u.created_at
        FROM messages m
        JOIN users u ON u.id = m.sender_user_id`

func messageFields(m *domain.Message) []any {
	return []any{
		&m.ID,
		&m.ChatroomID,
		&m.SenderID,
		&m.Body,
		&m.CreatedAt,
		&m.Sender.ID,
		&m.Sender.Name,
		&m.Sender.Email,
		&m.Sender.Role,
		&m.Sender.CreatedAt,
	}
}
