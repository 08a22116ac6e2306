package domain

import "time"

// Role classifies a platform identity.
type Role string

const (
	RoleRequester Role = "REQUESTER"
	RoleStaff     Role = "STAFF"
	RoleAdmin     Role = "ADMIN"
	RoleAgent     Role = "AGENT"
)

// User is the domain model for anyone who can appear in a chatroom,
// including the synthetic AI agent identity.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// IsStaff reports whether the user handles tickets (staff or admin).
func (u User) IsStaff() bool {
	return u.Role == RoleStaff || u.Role == RoleAdmin
}

// ParseRole validates a role string from the wire.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleRequester, RoleStaff, RoleAdmin, RoleAgent:
		return Role(raw), true
	}
	return "", false
}
