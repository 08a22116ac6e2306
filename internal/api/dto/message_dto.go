package dto

import (
	"time"

	"github.com/goldenticket/goldenticket/internal/domain"
)

// MessageDTO is the client-facing message shape.
type MessageDTO struct {
	ID         string    `json:"id"`
	ChatroomID string    `json:"chatroom_id"`
	Sender     UserDTO   `json:"sender"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewMessageDTO maps a domain message.
func NewMessageDTO(message *domain.Message) MessageDTO {
	return MessageDTO{
		ID:         message.ID,
		ChatroomID: message.ChatroomID,
		Sender:     NewUserDTO(message.Sender),
		Body:       message.Body,
		CreatedAt:  message.CreatedAt,
	}
}

// NewMessageDTOs maps a slice of domain messages.
func NewMessageDTOs(messages []domain.Message) []MessageDTO {
	out := make([]MessageDTO, 0, len(messages))
	for i := range messages {
		out = append(out, NewMessageDTO(&messages[i]))
	}
	return out
}
