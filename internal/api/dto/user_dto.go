package dto

import "github.com/goldenticket/goldenticket/internal/domain"

// UserDTO is the client-facing user shape.
type UserDTO struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
}

// NewUserDTO maps a domain user.
func NewUserDTO(user domain.User) UserDTO {
	return UserDTO{ID: user.ID, Name: user.Name, Role: user.Role}
}

// NewUserDTOs maps a slice of domain users.
func NewUserDTOs(users []domain.User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserDTO(user))
	}
	return out
}
