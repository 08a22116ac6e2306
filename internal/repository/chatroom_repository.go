package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goldenticket/goldenticket/internal/domain"
)

// ChatroomRepository encapsulates chatroom and membership persistence.
type ChatroomRepository interface {
	Create(ctx context.Context, requesterID string) (*domain.Chatroom, error)
	GetByID(ctx context.Context, id string) (*domain.Chatroom, error)
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Chatroom, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Chatroom, error)
	ListAll(ctx context.Context) ([]domain.Chatroom, error)
	CountOpenUnticketed(ctx context.Context, requesterID string) (int, error)
	AddMember(ctx context.Context, chatroomID, userID string) error
	UpdateLastSeen(ctx context.Context, chatroomID, userID string) error
	SetClosed(ctx context.Context, chatroomID string, closed bool) error
	BindTicket(ctx context.Context, chatroomID, ticketID string) error
}

type chatroomRepository struct {
	pool *pgxpool.Pool
}

// NewChatroomRepository instantiates repository.
func NewChatroomRepository(pool *pgxpool.Pool) ChatroomRepository {
	return &chatroomRepository{pool: pool}
}

func (r *chatroomRepository) Create(ctx context.Context, requesterID string) (*domain.Chatroom, error) {
	id := uuid.NewString()
	const insertRoom = `
        INSERT INTO chatrooms (id, requester_user_id)
        VALUES ($1,$2)`
	if _, err := r.pool.Exec(ctx, insertRoom, id, requesterID); err != nil {
		return nil, err
	}
	if err := r.AddMember(ctx, id, requesterID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *chatroomRepository) GetByID(ctx context.Context, id string) (*domain.Chatroom, error) {
	const query = `
        SELECT id, requester_user_id, ticket_id, is_closed, created_at, updated_at
        FROM chatrooms WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *chatroomRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Chatroom, error) {
	const query = `
        SELECT id, requester_user_id, ticket_id, is_closed, created_at, updated_at
        FROM chatrooms WHERE ticket_id=$1`
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *chatroomRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Chatroom, error) {
	var room domain.Chatroom
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&room.ID,
		&room.RequesterID,
		&room.TicketID,
		&room.Closed,
		&room.CreatedAt,
		&room.UpdatedAt,
	); err != nil {
		return nil, err
	}
	members, err := r.loadMembers(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	room.Members = members
	return &room, nil
}

func (r *chatroomRepository) ListForUser(ctx context.Context, userID string) ([]domain.Chatroom, error) {
	const query = `
        SELECT c.id FROM chatrooms c
        JOIN chatroom_members m ON m.chatroom_id = c.id
        WHERE m.user_id=$1
        ORDER BY c.updated_at DESC`
	return r.listByIDQuery(ctx, query, userID)
}

func (r *chatroomRepository) ListAll(ctx context.Context) ([]domain.Chatroom, error) {
	const query = `SELECT id FROM chatrooms ORDER BY updated_at DESC`
	return r.listByIDQuery(ctx, query)
}

func (r *chatroomRepository) listByIDQuery(ctx context.Context, query string, args ...any) ([]domain.Chatroom, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]domain.Chatroom, 0, len(ids))
	for _, id := range ids {
		room, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, *room)
	}
	return result, nil
}

func (r *chatroomRepository) CountOpenUnticketed(ctx context.Context, requesterID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM chatrooms
        WHERE requester_user_id=$1 AND ticket_id IS NULL AND is_closed=false`
	var count int
	if err := r.pool.QueryRow(ctx, query, requesterID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *chatroomRepository) AddMember(ctx context.Context, chatroomID, userID string) error {
	const query = `
        INSERT INTO chatroom_members (chatroom_id, user_id)
        VALUES ($1,$2)
        ON CONFLICT (chatroom_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, chatroomID, userID)
	return err
}

func (r *chatroomRepository) UpdateLastSeen(ctx context.Context, chatroomID, userID string) error {
	const query = `
        UPDATE chatroom_members SET last_seen=NOW()
        WHERE chatroom_id=$1 AND user_id=$2`
	_, err := r.pool.Exec(ctx, query, chatroomID, userID)
	return err
}

func (r *chatroomRepository) SetClosed(ctx context.Context, chatroomID string, closed bool) error {
	const query = `
        UPDATE chatrooms SET is_closed=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, closed, chatroomID)
	return err
}

func (r *chatroomRepository) BindTicket(ctx context.Context, chatroomID, ticketID string) error {
	const query = `
        UPDATE chatrooms SET ticket_id=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, ticketID, chatroomID)
	return err
}

func (r *chatroomRepository) loadMembers(ctx context.Context, chatroomID string) ([]domain.ChatroomMember, error) {
	const query = `
        SELECT m.user_id, m.joined_at, m.last_seen, u.id, u.name, u.email, u.role, u.created_at
        FROM chatroom_members m
        JOIN users u ON u.id = m.user_id
        WHERE m.chatroom_id=$1
        ORDER BY m.joined_at`
	rows, err := r.pool.Query(ctx, query, chatroomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.ChatroomMember
	for rows.Next() {
		var member domain.ChatroomMember
		if err := rows.Scan(
			&member.UserID,
			&member.JoinedAt,
			&member.LastSeen,
			&member.User.ID,
			&member.User.Name,
			&member.User.Email,
			&member.User.Role,
			&member.User.CreatedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}
