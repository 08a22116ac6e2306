package dto

import (
	"time"

	"github.com/goldenticket/goldenticket/internal/domain"
)

// ChatroomMemberDTO pairs a member with their read position.
type ChatroomMemberDTO struct {
	User     UserDTO    `json:"user"`
	JoinedAt time.Time  `json:"joined_at"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// ChatroomDTO is the client-facing chatroom snapshot. Messages are
// included only when the client opened the room.
type ChatroomDTO struct {
	ID          string              `json:"id"`
	RequesterID string              `json:"requester_id"`
	TicketID    *string             `json:"ticket_id,omitempty"`
	Closed      bool                `json:"closed"`
	Members     []ChatroomMemberDTO `json:"members"`
	Messages    []MessageDTO        `json:"messages,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewChatroomDTO maps a domain chatroom without message history.
func NewChatroomDTO(room *domain.Chatroom) ChatroomDTO {
	members := make([]ChatroomMemberDTO, 0, len(room.Members))
	for _, m := range room.Members {
		members = append(members, ChatroomMemberDTO{
			User:     NewUserDTO(m.User),
			JoinedAt: m.JoinedAt,
			LastSeen: m.LastSeen,
		})
	}
	return ChatroomDTO{
		ID:          room.ID,
		RequesterID: room.RequesterID,
		TicketID:    room.TicketID,
		Closed:      room.Closed,
		Members:     members,
		CreatedAt:   room.CreatedAt,
		UpdatedAt:   room.UpdatedAt,
	}
}

// NewChatroomDTOWithMessages maps a chatroom with its full history.
func NewChatroomDTOWithMessages(room *domain.Chatroom, messages []domain.Message) ChatroomDTO {
	out := NewChatroomDTO(room)
	out.Messages = NewMessageDTOs(messages)
	return out
}

// NewChatroomDTOs maps a slice of chatrooms without histories.
func NewChatroomDTOs(rooms []domain.Chatroom) []ChatroomDTO {
	out := make([]ChatroomDTO, 0, len(rooms))
	for i := range rooms {
		out = append(out, NewChatroomDTO(&rooms[i]))
	}
	return out
}
