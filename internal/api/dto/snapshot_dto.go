package dto

import "github.com/goldenticket/goldenticket/internal/domain"

// PresenceSnapshotDTO is the bootstrap payload sent to a connection
// right after it announces presence: everything the client needs to
// render its initial state, scoped to the caller's role.
type PresenceSnapshotDTO struct {
	Tags       []MainTagDTO            `json:"tags"`
	FAQs       []FAQDTO                `json:"faqs"`
	Users      map[string][]UserDTO    `json:"users"`
	Chatrooms  []ChatroomDTO           `json:"chatrooms"`
	Tickets    []TicketDTO             `json:"tickets"`
	Statuses   []domain.TicketStatus   `json:"statuses"`
	Priorities []domain.TicketPriority `json:"priorities"`
}
