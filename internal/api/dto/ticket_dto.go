package dto

import (
	"time"

	"github.com/goldenticket/goldenticket/internal/domain"
)

// TicketDTO is the client-facing ticket shape.
type TicketDTO struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	RequesterID string                `json:"requester_id"`
	ChatroomID  string                `json:"chatroom_id"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	MainTag     string                `json:"main_tag"`
	SubTag      string                `json:"sub_tag"`
	AssigneeID  *string               `json:"assignee_id,omitempty"`
	EditorID    *string               `json:"editor_id,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	ClosedAt    *time.Time            `json:"closed_at,omitempty"`
}

// NewTicketDTO maps a domain ticket.
func NewTicketDTO(ticket *domain.Ticket) TicketDTO {
	return TicketDTO{
		ID:          ticket.ID,
		Title:       ticket.Title,
		RequesterID: ticket.RequesterID,
		ChatroomID:  ticket.ChatroomID,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		MainTag:     ticket.MainTag,
		SubTag:      ticket.SubTag,
		AssigneeID:  ticket.AssigneeID,
		EditorID:    ticket.EditorID,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		ClosedAt:    ticket.ClosedAt,
	}
}

// NewTicketDTOs maps a slice of domain tickets.
func NewTicketDTOs(tickets []domain.Ticket) []TicketDTO {
	out := make([]TicketDTO, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketDTO(&tickets[i]))
	}
	return out
}
