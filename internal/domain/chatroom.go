package domain

import "time"

// ChatroomMember records one user's membership and read position.
type ChatroomMember struct {
	UserID   string
	User     User
	JoinedAt time.Time
	LastSeen *time.Time
}

// Chatroom is a conversation between one requester and zero or more
// staff, optionally bound to a ticket once triage escalates it.
type Chatroom struct {
	ID          string
	RequesterID string
	TicketID    *string
	Closed      bool
	Members     []ChatroomMember
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasTicket reports whether the chatroom has been escalated.
func (c *Chatroom) HasTicket() bool {
	return c.TicketID != nil
}

// IsMember reports whether the user already belongs to the chatroom.
func (c *Chatroom) IsMember(userID string) bool {
	for _, m := range c.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the user IDs of all members.
func (c *Chatroom) MemberIDs() []string {
	ids := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}
