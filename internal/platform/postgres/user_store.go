package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// Unique constraint names from the users migration.
const (
	usersUsernameConstraint = "ux_users_username"
	usersEmailConstraint    = "ux_users_email"
)

// UserStore implements the store.UserStore interface using a PostgreSQL
// database as the storage backend.
type UserStore struct {
	db     store.DBTX
	sqlDB  *sql.DB // nil when bound to a transaction
	logger *slog.Logger
}

// NewUserStore creates a new PostgreSQL implementation of the UserStore
// interface. It accepts a database connection that should be initialized
// and managed by the caller. If logger is nil, the default logger is used.
func NewUserStore(db *sql.DB, logger *slog.Logger) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &UserStore{
		db:     db,
		sqlDB:  db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure UserStore implements store.UserStore interface
var _ store.UserStore = (*UserStore)(nil)

// WithTx implements store.UserStore.WithTx
func (s *UserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &UserStore{
		db:     tx,
		sqlDB:  nil,
		logger: s.logger,
	}
}

// retryable reports whether this store may retry transient failures.
// Transaction-bound stores must not.
func (s *UserStore) retryable() bool {
	return s.sqlDB != nil
}

// Create implements store.UserStore.Create
// It saves a new user, relying on the unique indexes on username and email
// to reject duplicates. Returns store.ErrUsernameExists or
// store.ErrEmailExists accordingly.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO users (id, username, email, hashed_password, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	err := withRetry(ctx, s.retryable(), "create_user", func() error {
		_, err := s.db.ExecContext(
			ctx,
			query,
			user.ID,
			user.Username,
			user.Email,
			user.HashedPassword,
			user.Role,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err == nil {
			return nil
		}
		if IsUniqueViolation(err, usersUsernameConstraint) {
			return fmt.Errorf("%w: %v", store.ErrUsernameExists, err)
		}
		return MapUniqueViolation(err, usersEmailConstraint, store.ErrEmailExists)
	})
	if err != nil {
		log.Warn("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	log.Info("user created",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(user.Role)))
	return nil
}

const userColumns = `id, username, email, hashed_password, role, created_at, updated_at`

// scanUser scans one user row.
func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var role string
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.HashedPassword,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = domain.UserRole(role)
	return &user, nil
}

// GetByID implements store.UserStore.GetByID
// Returns store.ErrUserNotFound if the user does not exist.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user *domain.User
	err := withRetry(ctx, s.retryable(), "get_user_by_id", func() error {
		var err error
		user, err = scanUser(s.db.QueryRowContext(ctx, query, id))
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrUserNotFound
		}
		return MapError(err)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByEmail implements store.UserStore.GetByEmail
// The match is case-insensitive. Returns store.ErrUserNotFound if no user
// has the given email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	var user *domain.User
	err := withRetry(ctx, s.retryable(), "get_user_by_email", func() error {
		var err error
		user, err = scanUser(s.db.QueryRowContext(ctx, query, email))
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrUserNotFound
		}
		return MapError(err)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// uuidArrayLiteral renders ids as a PostgreSQL array literal suitable for a
// $n::uuid[] parameter. UUID string forms contain no characters that need
// quoting inside an array literal.
func uuidArrayLiteral(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// CountExisting implements store.UserStore.CountExisting
func (s *UserStore) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `SELECT count(DISTINCT id) FROM users WHERE id = ANY($1::uuid[])`

	var count int
	err := withRetry(ctx, s.retryable(), "count_existing_users", func() error {
		err := s.db.QueryRowContext(ctx, query, uuidArrayLiteral(ids)).Scan(&count)
		return MapError(err)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// FilterExisting implements store.UserStore.FilterExisting
func (s *UserStore) FilterExisting(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id FROM users WHERE id = ANY($1::uuid[])`

	var existing []uuid.UUID
	err := withRetry(ctx, s.retryable(), "filter_existing_users", func() error {
		rows, err := s.db.QueryContext(ctx, query, uuidArrayLiteral(ids))
		if err != nil {
			return MapError(err)
		}
		defer func() { _ = rows.Close() }()

		existing = existing[:0]
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				return MapError(err)
			}
			existing = append(existing, id)
		}
		return MapError(rows.Err())
	})
	if err != nil {
		return nil, err
	}
	return existing, nil
}
