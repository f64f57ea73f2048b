package service

import (
	"context"
	"database/sql"
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

// DefaultPageLimit is applied when a listing request carries no limit.
const DefaultPageLimit = 10

// CreateTaskParams are the inputs for TaskService.Create. Title and
// Description are required; everything else is optional and defaulted per
// the domain rules.
type CreateTaskParams struct {
	Title         string
	Description   string
	Priority      *domain.TaskPriority
	DueDate       *time.Time
	EstimatedTime *int
	Tags          []string
	Category      *string
	Collaborators []uuid.UUID
}

// UpdateTaskParams are the inputs for TaskService.UpdateDetails. Nil fields
// are left untouched (partial-update semantics, not full replace).
type UpdateTaskParams struct {
	Title         *string
	Description   *string
	Priority      *domain.TaskPriority
	DueDate       *time.Time
	EstimatedTime *int
	Tags          *[]string
	Category      *string
	Collaborators *[]uuid.UUID
}

// TaskService provides task mutation and query operations. Every operation
// takes the verified identity it runs as; authorization failures on a task
// are reported as store.ErrTaskNotFound so callers cannot probe for
// existence.
type TaskService interface {
	// Create creates a new pending task owned by the authenticated user.
	Create(ctx context.Context, auth AuthContext, params CreateTaskParams) (*domain.Task, error)

	// Get retrieves one task the requester owns or collaborates on.
	Get(ctx context.Context, auth AuthContext, taskID uuid.UUID) (*domain.Task, error)

	// List returns one page of tasks visible to the requester plus the
	// total count of matches ignoring pagination.
	List(
		ctx context.Context,
		auth AuthContext,
		filter store.TaskFilter,
		sort store.TaskSort,
		page store.Page,
	) ([]domain.Task, int64, error)

	// UpdateStatus transitions a task to newStatus, deriving timestamps.
	// Allowed for the owner and collaborators.
	UpdateStatus(
		ctx context.Context,
		auth AuthContext,
		taskID uuid.UUID,
		newStatus domain.TaskStatus,
	) (*domain.Task, error)

	// UpdateDetails applies a partial field update. Owner only.
	UpdateDetails(
		ctx context.Context,
		auth AuthContext,
		taskID uuid.UUID,
		params UpdateTaskParams,
	) (*domain.Task, error)

	// Delete removes a task. Owner only.
	Delete(ctx context.Context, auth AuthContext, taskID uuid.UUID) error

	// AddComment appends a comment to a task's comment list. Allowed for
	// the owner and collaborators.
	AddComment(
		ctx context.Context,
		auth AuthContext,
		taskID uuid.UUID,
		body string,
	) (*domain.Comment, error)
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	taskStore store.TaskStore
	userStore store.UserStore
	logger    *slog.Logger
	now       func() time.Time
}

// NewTaskService creates a new TaskService. The now function may be nil, in
// which case the wall clock is used; tests inject a fake clock.
func NewTaskService(
	taskStore store.TaskStore,
	userStore store.UserStore,
	logger *slog.Logger,
	now func() time.Time,
) TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &taskServiceImpl{
		taskStore: taskStore,
		userStore: userStore,
		logger:    logger.With(slog.String("component", "task_service")),
		now:       now,
	}
}

// dedupeIDs returns ids with duplicates removed, preserving order.
func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// checkCollaboratorsExist verifies every collaborator ID references an
// existing user, returning a MissingCollaboratorsError naming the offenders
// otherwise.
func checkCollaboratorsExist(
	ctx context.Context,
	users store.UserStore,
	ids []uuid.UUID,
) error {
	if len(ids) == 0 {
		return nil
	}

	unique := dedupeIDs(ids)
	count, err := users.CountExisting(ctx, unique)
	if err != nil {
		return err
	}
	if count == len(unique) {
		return nil
	}

	existing, err := users.FilterExisting(ctx, unique)
	if err != nil {
		return err
	}
	present := make(map[uuid.UUID]struct{}, len(existing))
	for _, id := range existing {
		present[id] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range unique {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return &MissingCollaboratorsError{IDs: missing}
}

// Create implements TaskService.Create
// The whole sequence (owner existence, duplicate pre-check, collaborator
// existence, insert) runs as one atomic unit. The pre-check is advisory:
// under a concurrent duplicate creation the unique index in the store is
// the authority, and the loser surfaces store.ErrTitleExists.
func (s *taskServiceImpl) Create(
	ctx context.Context,
	auth AuthContext,
	params CreateTaskParams,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var created *domain.Task
	err := store.RunInTransaction(ctx, s.taskStore.DB(), func(ctx context.Context, tx *sql.Tx) error {
		users := s.userStore.WithTx(tx)
		tasks := s.taskStore.WithTx(tx)

		if _, err := users.GetByID(ctx, auth.UserID); err != nil {
			return err
		}

		_, err := tasks.FindByTitleAndOwner(ctx, params.Title, auth.UserID)
		if err == nil {
			return store.ErrTitleExists
		}
		if !errors.Is(err, store.ErrTaskNotFound) {
			return err
		}

		if err := checkCollaboratorsExist(ctx, users, params.Collaborators); err != nil {
			return err
		}

		task, err := domain.NewTask(auth.UserID, params.Title, params.Description)
		if err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		if params.Priority != nil {
			task.Priority = *params.Priority
		}
		if params.DueDate != nil {
			due := params.DueDate.UTC()
			if !due.After(s.now()) {
				return ErrDueDateNotFuture
			}
			task.DueDate = &due
		}
		task.EstimatedTime = params.EstimatedTime
		if len(params.Tags) > 0 {
			task.Tags = params.Tags
		}
		if params.Category != nil {
			task.Category = *params.Category
		}
		task.Collaborators = dedupeIDs(params.Collaborators)

		if err := tasks.Create(ctx, task); err != nil {
			return err
		}
		created = task
		return nil
	})
	if err != nil {
		log.Debug("task creation failed",
			slog.String("owner_id", auth.UserID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("task created",
		slog.String("task_id", created.ID.String()),
		slog.String("owner_id", auth.UserID.String()))
	return created, nil
}

// Get implements TaskService.Get
func (s *taskServiceImpl) Get(
	ctx context.Context,
	auth AuthContext,
	taskID uuid.UUID,
) (*domain.Task, error) {
	return s.taskStore.GetForRequester(ctx, taskID, auth.UserID, false)
}

// List implements TaskService.List
// A nonexistent requester identity fails with store.ErrUserNotFound.
func (s *taskServiceImpl) List(
	ctx context.Context,
	auth AuthContext,
	filter store.TaskFilter,
	sort store.TaskSort,
	page store.Page,
) ([]domain.Task, int64, error) {
	if _, err := s.userStore.GetByID(ctx, auth.UserID); err != nil {
		return nil, 0, err
	}

	if sort.Field == "" {
		sort = store.DefaultSort()
	}
	if page.Number < 1 {
		page.Number = 1
	}
	if page.Limit < 1 {
		page.Limit = DefaultPageLimit
	}

	return s.taskStore.List(ctx, auth.UserID, filter, sort, page)
}

// UpdateStatus implements TaskService.UpdateStatus
// The transition side effects are recomputed from the persisted state read
// inside the same transaction, never from stale in-memory state, so
// concurrent updates each independently satisfy the timestamp invariants.
func (s *taskServiceImpl) UpdateStatus(
	ctx context.Context,
	auth AuthContext,
	taskID uuid.UUID,
	newStatus domain.TaskStatus,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidStatus)
	}

	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.taskStore.DB(), func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.taskStore.WithTx(tx)

		task, err := tasks.GetForRequester(ctx, taskID, auth.UserID, false)
		if err != nil {
			return err
		}

		next := domain.ApplyStatusTransition(*task, newStatus, s.now())
		if err := tasks.Update(ctx, &next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("task status updated",
		slog.String("task_id", taskID.String()),
		slog.String("requester_id", auth.UserID.String()),
		slog.String("status", string(newStatus)))
	return updated, nil
}

// UpdateDetails implements TaskService.UpdateDetails
// Owner only; nil params fields are untouched. A supplied collaborator set
// is re-validated for existence exactly like at creation. The future-date
// rule is deliberately not re-applied to due date changes here.
func (s *taskServiceImpl) UpdateDetails(
	ctx context.Context,
	auth AuthContext,
	taskID uuid.UUID,
	params UpdateTaskParams,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.taskStore.DB(), func(ctx context.Context, tx *sql.Tx) error {
		users := s.userStore.WithTx(tx)
		tasks := s.taskStore.WithTx(tx)

		task, err := tasks.GetForRequester(ctx, taskID, auth.UserID, true)
		if err != nil {
			return err
		}

		if params.Collaborators != nil {
			if err := checkCollaboratorsExist(ctx, users, *params.Collaborators); err != nil {
				return err
			}
			task.Collaborators = dedupeIDs(*params.Collaborators)
		}
		if params.Title != nil {
			task.Title = strings.TrimSpace(*params.Title)
		}
		if params.Description != nil {
			task.Description = strings.TrimSpace(*params.Description)
		}
		if params.Priority != nil {
			task.Priority = *params.Priority
		}
		if params.DueDate != nil {
			due := params.DueDate.UTC()
			task.DueDate = &due
		}
		if params.EstimatedTime != nil {
			task.EstimatedTime = params.EstimatedTime
		}
		if params.Tags != nil {
			task.Tags = *params.Tags
		}
		if params.Category != nil {
			task.Category = *params.Category
		}
		task.UpdatedAt = s.now()

		if err := tasks.Update(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		log.Debug("task details update failed",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("task details updated",
		slog.String("task_id", taskID.String()),
		slog.String("owner_id", auth.UserID.String()))
	return updated, nil
}

// Delete implements TaskService.Delete
// The find and delete are one statement, so absence and lack of ownership
// are indistinguishable.
func (s *taskServiceImpl) Delete(ctx context.Context, auth AuthContext, taskID uuid.UUID) error {
	return s.taskStore.Delete(ctx, taskID, auth.UserID)
}

// AddComment implements TaskService.AddComment
func (s *taskServiceImpl) AddComment(
	ctx context.Context,
	auth AuthContext,
	taskID uuid.UUID,
	body string,
) (*domain.Comment, error) {
	var comment *domain.Comment
	err := store.RunInTransaction(ctx, s.taskStore.DB(), func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.taskStore.WithTx(tx)

		if _, err := tasks.GetForRequester(ctx, taskID, auth.UserID, false); err != nil {
			return err
		}

		c, err := domain.NewComment(taskID, auth.UserID, body, s.now())
		if err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		if err := tasks.AddComment(ctx, c); err != nil {
			return err
		}
		comment = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}
