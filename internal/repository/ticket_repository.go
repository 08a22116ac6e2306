package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goldenticket/goldenticket/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListForRequester(ctx context.Context, userID string) ([]domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO tickets (id, title, requester_user_id, chatroom_id, status, priority, main_tag, sub_tag, assignee_user_id, editor_user_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.RequesterID,
		ticket.ChatroomID,
		ticket.Status,
		ticket.Priority,
		ticket.MainTag,
		ticket.SubTag,
		ticket.AssigneeID,
		ticket.EditorID,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, status=$2, priority=$3, main_tag=$4, sub_tag=$5,
            assignee_user_id=$6, editor_user_id=$7, closed_at=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Status,
		ticket.Priority,
		ticket.MainTag,
		ticket.SubTag,
		ticket.AssigneeID,
		ticket.EditorID,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = ticketColumns + ` WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListForRequester(ctx context.Context, userID string) ([]domain.Ticket, error) {
	const query = ticketColumns + ` WHERE requester_user_id=$1 ORDER BY updated_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	const query = ticketColumns + ` ORDER BY updated_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

const ticketColumns = `
        SELECT id, title, requester_user_id, chatroom_id, status, priority, main_tag, sub_tag,
               assignee_user_id, editor_user_id, created_at, updated_at, closed_at
        FROM tickets`

func ticketFields(t *domain.Ticket) []any {
	return []any{
		&t.ID,
		&t.Title,
		&t.RequesterID,
		&t.ChatroomID,
		&t.Status,
		&t.Priority,
		&t.MainTag,
		&t.SubTag,
		&t.AssigneeID,
		&t.EditorID,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.ClosedAt,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketFields(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
