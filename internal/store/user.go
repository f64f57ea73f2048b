package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store. The user's password must already
	// be hashed. Returns ErrUsernameExists or ErrEmailExists when the
	// corresponding unique constraint is violated.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address (case-insensitive).
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// CountExisting returns how many of the given IDs reference an existing
	// user. Duplicate IDs in the input are counted once.
	CountExisting(ctx context.Context, ids []uuid.UUID) (int, error)

	// FilterExisting returns the subset of the given IDs that reference an
	// existing user. Used to name the offending IDs when a referenced user
	// is missing.
	FilterExisting(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)

	// WithTx returns a UserStore bound to the given transaction so that user
	// reads participate in a caller-managed atomic unit.
	WithTx(tx *sql.Tx) UserStore
}
