package service

import (
	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// AuthContext is the verified identity a core operation runs as. It is
// produced by the authentication layer and passed explicitly into every
// service call; services never read identity from ambient request state.
type AuthContext struct {
	UserID uuid.UUID
	Role   domain.UserRole
}

// IsAdmin reports whether the identity holds the admin role.
func (a AuthContext) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}
