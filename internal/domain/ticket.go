package domain

import "time"

// TicketStatus enumerates resting lifecycle states for tickets.
// Reopening is a transition back to open, not a state of its own.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "Open"
	TicketStatusClosed TicketStatus = "Closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityUrgent TicketPriority = "Urgent"
)

// TicketStatuses lists the statuses exposed to clients.
func TicketStatuses() []TicketStatus {
	return []TicketStatus{TicketStatusOpen, TicketStatusClosed}
}

// TicketPriorities lists the priorities exposed to clients.
func TicketPriorities() []TicketPriority {
	return []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent}
}

// Ticket is a tracked support issue. Tickets are created only by
// escalating a chatroom and stay bound to it for life.
type Ticket struct {
	ID          string
	Title       string
	RequesterID string
	ChatroomID  string
	Status      TicketStatus
	Priority    TicketPriority
	MainTag     string
	SubTag      string
	AssigneeID  *string
	EditorID    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
}

// ParseTicketStatus validates a status string from the wire.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	switch TicketStatus(raw) {
	case TicketStatusOpen, TicketStatusClosed:
		return TicketStatus(raw), true
	}
	return "", false
}

// NormalizePriority maps unknown priority strings to the default.
func NormalizePriority(raw string) TicketPriority {
	switch TicketPriority(raw) {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return TicketPriority(raw)
	}
	return TicketPriorityMedium
}
