package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// Constraint names from the tasks migration.
const (
	tasksOwnerTitleConstraint = "ux_tasks_owner_title"
)

// TaskStore implements the store.TaskStore interface using a PostgreSQL
// database as the storage backend. Tags are stored as a jsonb array;
// collaborators and comments live in their own tables.
type TaskStore struct {
	db     store.DBTX
	sqlDB  *sql.DB // nil when bound to a transaction
	logger *slog.Logger
}

// NewTaskStore creates a new PostgreSQL implementation of the TaskStore
// interface. If logger is nil, the default logger is used.
func NewTaskStore(db *sql.DB, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		db:     db,
		sqlDB:  db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &TaskStore{
		db:     tx,
		sqlDB:  nil,
		logger: s.logger,
	}
}

// DB implements store.TaskStore.DB
// It panics when the store is already transaction-bound; nested atomic
// units are a programming error.
func (s *TaskStore) DB() *sql.DB {
	if s.sqlDB == nil {
		panic("DB() called on a transaction-bound task store")
	}
	return s.sqlDB
}

func (s *TaskStore) retryable() bool {
	return s.sqlDB != nil
}

const taskColumns = `t.id, t.owner_id, t.title, t.description, t.status, t.priority,
	t.tags, t.category, t.due_date, t.estimated_minutes,
	t.started_at, t.completed_at, t.created_at, t.updated_at`

// encodeTags renders the tag list as jsonb input, normalizing nil to [].
func encodeTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask scans one task row in taskColumns order. Collaborators and
// comments are loaded separately.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var status, priority string
	var rawTags []byte
	var dueDate, startedAt, completedAt sql.NullTime
	var estimated sql.NullInt64

	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&rawTags,
		&task.Category,
		&dueDate,
		&estimated,
		&startedAt,
		&completedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)

	if err := json.Unmarshal(rawTags, &task.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode task tags: %w", err)
	}
	if dueDate.Valid {
		ts := dueDate.Time.UTC()
		task.DueDate = &ts
	}
	if estimated.Valid {
		minutes := int(estimated.Int64)
		task.EstimatedTime = &minutes
	}
	if startedAt.Valid {
		ts := startedAt.Time.UTC()
		task.StartedAt = &ts
	}
	if completedAt.Valid {
		ts := completedAt.Time.UTC()
		task.CompletedAt = &ts
	}

	task.Collaborators = []uuid.UUID{}
	task.Comments = []domain.Comment{}
	return &task, nil
}

// Create implements store.TaskStore.Create
// The unique index on (owner_id, lower(title)) is the authoritative
// duplicate-title guard; its violation surfaces as store.ErrTitleExists so
// a losing concurrent creation fails cleanly.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tags, err := encodeTags(task.Tags)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (id, owner_id, title, description, status, priority,
			tags, category, due_date, estimated_minutes,
			started_at, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11, $12, $13, $14)
	`
	err = withRetry(ctx, s.retryable(), "create_task", func() error {
		_, err := s.db.ExecContext(
			ctx,
			query,
			task.ID,
			task.OwnerID,
			task.Title,
			task.Description,
			task.Status,
			task.Priority,
			tags,
			task.Category,
			task.DueDate,
			task.EstimatedTime,
			task.StartedAt,
			task.CompletedAt,
			task.CreatedAt,
			task.UpdatedAt,
		)
		if err != nil {
			return MapUniqueViolation(err, tasksOwnerTitleConstraint, store.ErrTitleExists)
		}
		return s.insertCollaborators(ctx, task.ID, task.Collaborators)
	})
	if err != nil {
		log.Warn("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("owner_id", task.OwnerID.String()))
		return err
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID.String()))
	return nil
}

// insertCollaborators adds one membership row per collaborator.
func (s *TaskStore) insertCollaborators(ctx context.Context, taskID uuid.UUID, collaborators []uuid.UUID) error {
	if len(collaborators) == 0 {
		return nil
	}

	query := `
		INSERT INTO task_collaborators (task_id, user_id, added_at)
		SELECT $1, x::uuid, now()
		FROM unnest(string_to_array($2, ',')) AS x
		ON CONFLICT (task_id, user_id) DO NOTHING
	`
	parts := make([]string, len(collaborators))
	for i, id := range collaborators {
		parts[i] = id.String()
	}
	_, err := s.db.ExecContext(ctx, query, taskID, strings.Join(parts, ","))
	return MapError(err)
}

// GetByID implements store.TaskStore.GetByID
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`

	var task *domain.Task
	err := withRetry(ctx, s.retryable(), "get_task_by_id", func() error {
		var err error
		task, err = scanTask(s.db.QueryRowContext(ctx, query, id))
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrTaskNotFound
		}
		if err != nil {
			return MapError(err)
		}
		return s.hydrate(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetForRequester implements store.TaskStore.GetForRequester
// A task the requester may not see is reported exactly like a missing task.
func (s *TaskStore) GetForRequester(
	ctx context.Context,
	id uuid.UUID,
	requesterID uuid.UUID,
	ownerOnly bool,
) (*domain.Task, error) {
	authz := `t.owner_id = $2`
	if !ownerOnly {
		authz = `(t.owner_id = $2 OR EXISTS (
			SELECT 1 FROM task_collaborators tc
			WHERE tc.task_id = t.id AND tc.user_id = $2
		))`
	}
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1 AND ` + authz

	var task *domain.Task
	err := withRetry(ctx, s.retryable(), "get_task_for_requester", func() error {
		var err error
		task, err = scanTask(s.db.QueryRowContext(ctx, query, id, requesterID))
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrTaskNotFound
		}
		if err != nil {
			return MapError(err)
		}
		return s.hydrate(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// FindByTitleAndOwner implements store.TaskStore.FindByTitleAndOwner
func (s *TaskStore) FindByTitleAndOwner(
	ctx context.Context,
	title string,
	ownerID uuid.UUID,
) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t
		WHERE t.owner_id = $1 AND lower(t.title) = lower($2)`

	var task *domain.Task
	err := withRetry(ctx, s.retryable(), "find_task_by_title", func() error {
		var err error
		task, err = scanTask(s.db.QueryRowContext(ctx, query, ownerID, title))
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrTaskNotFound
		}
		return MapError(err)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Update implements store.TaskStore.Update
// It rewrites all mutable columns and replaces the collaborator set. The
// owner and creation timestamp are immutable.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tags, err := encodeTags(task.Tags)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5,
			tags = $6::jsonb, category = $7, due_date = $8, estimated_minutes = $9,
			started_at = $10, completed_at = $11, updated_at = $12
		WHERE id = $1
	`
	err = withRetry(ctx, s.retryable(), "update_task", func() error {
		result, err := s.db.ExecContext(
			ctx,
			query,
			task.ID,
			task.Title,
			task.Description,
			task.Status,
			task.Priority,
			tags,
			task.Category,
			task.DueDate,
			task.EstimatedTime,
			task.StartedAt,
			task.CompletedAt,
			task.UpdatedAt,
		)
		if err != nil {
			return MapUniqueViolation(err, tasksOwnerTitleConstraint, store.ErrTitleExists)
		}
		if err := CheckRowsAffected(result, "task"); err != nil {
			return store.ErrTaskNotFound
		}

		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM task_collaborators WHERE task_id = $1`, task.ID); err != nil {
			return MapError(err)
		}
		return s.insertCollaborators(ctx, task.ID, task.Collaborators)
	})
	if err != nil {
		log.Warn("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	log.Debug("task updated", slog.String("task_id", task.ID.String()))
	return nil
}

// Delete implements store.TaskStore.Delete
// The owner check is part of the statement so that absence and lack of
// ownership are indistinguishable.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`

	err := withRetry(ctx, s.retryable(), "delete_task", func() error {
		result, err := s.db.ExecContext(ctx, query, id, ownerID)
		if err != nil {
			return MapError(err)
		}
		if err := CheckRowsAffected(result, "task"); err != nil {
			return store.ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("task deleted",
		slog.String("task_id", id.String()),
		slog.String("owner_id", ownerID.String()))
	return nil
}

// AddComment implements store.TaskStore.AddComment
func (s *TaskStore) AddComment(ctx context.Context, comment *domain.Comment) error {
	if err := comment.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO task_comments (id, task_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	return withRetry(ctx, s.retryable(), "add_comment", func() error {
		_, err := s.db.ExecContext(
			ctx,
			query,
			comment.ID,
			comment.TaskID,
			comment.AuthorID,
			comment.Body,
			comment.CreatedAt,
		)
		return MapError(err)
	})
}

// FindStaleInProgress implements store.TaskStore.FindStaleInProgress
func (s *TaskStore) FindStaleInProgress(ctx context.Context, cutoff time.Time) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t
		WHERE t.status = $1 AND t.started_at IS NOT NULL AND t.started_at < $2
		ORDER BY t.started_at ASC`

	var tasks []domain.Task
	err := withRetry(ctx, s.retryable(), "find_stale_tasks", func() error {
		rows, err := s.db.QueryContext(ctx, query, domain.StatusInProgress, cutoff)
		if err != nil {
			return MapError(err)
		}
		defer func() { _ = rows.Close() }()

		tasks = tasks[:0]
		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				return MapError(err)
			}
			tasks = append(tasks, *task)
		}
		return MapError(rows.Err())
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// hydrate loads collaborators and comments for a single task.
func (s *TaskStore) hydrate(ctx context.Context, task *domain.Task) error {
	tasks := []domain.Task{*task}
	if err := s.hydrateAll(ctx, tasks); err != nil {
		return err
	}
	*task = tasks[0]
	return nil
}

// hydrateAll loads collaborators and comments for a set of tasks with one
// query per relation.
func (s *TaskStore) hydrateAll(ctx context.Context, tasks []domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	index := make(map[uuid.UUID]int, len(tasks))
	ids := make([]uuid.UUID, len(tasks))
	for i := range tasks {
		index[tasks[i].ID] = i
		ids[i] = tasks[i].ID
	}
	idArg := uuidArrayLiteral(ids)

	collabRows, err := s.db.QueryContext(ctx, `
		SELECT task_id, user_id FROM task_collaborators
		WHERE task_id = ANY($1::uuid[])
		ORDER BY added_at ASC, user_id ASC`, idArg)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = collabRows.Close() }()
	for collabRows.Next() {
		var taskID, userID uuid.UUID
		if err := collabRows.Scan(&taskID, &userID); err != nil {
			return MapError(err)
		}
		if i, ok := index[taskID]; ok {
			tasks[i].Collaborators = append(tasks[i].Collaborators, userID)
		}
	}
	if err := collabRows.Err(); err != nil {
		return MapError(err)
	}

	commentRows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, author_id, body, created_at FROM task_comments
		WHERE task_id = ANY($1::uuid[])
		ORDER BY created_at ASC, id ASC`, idArg)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = commentRows.Close() }()
	for commentRows.Next() {
		var c domain.Comment
		if err := commentRows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return MapError(err)
		}
		c.CreatedAt = c.CreatedAt.UTC()
		if i, ok := index[c.TaskID]; ok {
			tasks[i].Comments = append(tasks[i].Comments, c)
		}
	}
	return MapError(commentRows.Err())
}
