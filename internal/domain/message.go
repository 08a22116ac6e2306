package domain

import "time"

// Message is a single chatroom message. Messages are append-only;
// the sender may be a human user or the AI agent identity.
type Message struct {
	ID         string
	ChatroomID string
	SenderID   string
	Sender     User
	Body       string
	CreatedAt  time.Time
}
