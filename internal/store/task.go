package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// Task list sort fields accepted by TaskStore.List. Anything else falls
// back to SortByCreatedAt.
const (
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"
	SortByDueDate   = "dueDate"
	SortByPriority  = "priority"
	SortByTitle     = "title"
	SortByStatus    = "status"
)

// TaskFilter narrows the set of tasks visible to a requester. All populated
// categories are combined with logical AND; Tags matches when any listed tag
// is present, and Search matches title or description case-insensitively.
type TaskFilter struct {
	Status                *domain.TaskStatus
	Priority              *domain.TaskPriority
	Tags                  []string
	Category              *string
	Search                string
	DueFrom               *time.Time
	DueTo                 *time.Time
	IncludeCollaborations bool
}

// TaskSort selects the ordering of a task listing. Ties are broken by
// insertion order so that pagination is stable.
type TaskSort struct {
	Field     string
	Ascending bool
}

// DefaultSort is the ordering applied when the caller specifies none:
// newest first.
func DefaultSort() TaskSort {
	return TaskSort{Field: SortByCreatedAt, Ascending: false}
}

// Page is a 1-indexed pagination request. The caller-facing layer bounds
// Limit; the store only applies skip/limit arithmetic.
type Page struct {
	Number int
	Limit  int
}

// Offset returns the number of rows to skip for this page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task, including its collaborator set. Returns
	// ErrTitleExists when the owner already has a task with the same title
	// (case-insensitive); this is the authoritative duplicate signal under
	// concurrent creation.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task with its collaborators and comments loaded.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetForRequester retrieves a task only if the requester is authorized:
	// the owner always, collaborators unless ownerOnly is set. An existing
	// task the requester may not touch yields ErrTaskNotFound, identical to
	// a missing task.
	GetForRequester(
		ctx context.Context,
		id uuid.UUID,
		requesterID uuid.UUID,
		ownerOnly bool,
	) (*domain.Task, error)

	// FindByTitleAndOwner retrieves the owner's task with the given title,
	// matched case-insensitively. Returns ErrTaskNotFound if there is none.
	FindByTitleAndOwner(ctx context.Context, title string, ownerID uuid.UUID) (*domain.Task, error)

	// Update persists all mutable task fields and replaces the collaborator
	// set with task.Collaborators. Returns ErrTaskNotFound if the task no
	// longer exists and ErrTitleExists on a duplicate title for the owner.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes the task if and only if ownerID owns it. Absence and
	// lack of ownership both return ErrTaskNotFound.
	Delete(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error

	// AddComment appends a comment to a task's comment list.
	AddComment(ctx context.Context, comment *domain.Comment) error

	// List returns one page of tasks visible to requesterID under the given
	// filter and sort, plus the total count of matching tasks ignoring
	// pagination. Collaborators and comments are loaded for each returned
	// task.
	List(
		ctx context.Context,
		requesterID uuid.UUID,
		filter TaskFilter,
		sort TaskSort,
		page Page,
	) ([]domain.Task, int64, error)

	// FindStaleInProgress returns tasks that are in-progress and were
	// started before the cutoff instant. Used by the stale-task reaper.
	FindStaleInProgress(ctx context.Context, cutoff time.Time) ([]domain.Task, error)

	// WithTx returns a TaskStore bound to the given transaction.
	WithTx(tx *sql.Tx) TaskStore

	// DB returns the underlying database connection, used by the service
	// layer to open transactions spanning multiple stores.
	DB() *sql.DB
}
