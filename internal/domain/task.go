package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Field limits for tasks and comments.
const (
	TitleMinLen       = 3
	TitleMaxLen       = 100
	DescriptionMaxLen = 1000
	TagMaxLen         = 20
	CategoryMaxLen    = 30
	CommentMaxLen     = 500
	MaxCollaborators  = 10
	EstimatedTimeMin  = 1
	EstimatedTimeMax  = 10080 // one week in minutes

	// DefaultCategory is applied when no category is supplied.
	DefaultCategory = "Uncategorized"
)

// Task-specific validation errors
var (
	ErrEmptyTaskID          = errors.New("task ID cannot be empty")
	ErrEmptyTaskOwner       = errors.New("task owner ID cannot be empty")
	ErrEmptyTitle           = errors.New("task title cannot be empty")
	ErrTitleTooShort        = fmt.Errorf("task title must be at least %d characters long", TitleMinLen)
	ErrTitleTooLong         = fmt.Errorf("task title must be at most %d characters long", TitleMaxLen)
	ErrEmptyDescription     = errors.New("task description cannot be empty")
	ErrDescriptionTooLong   = fmt.Errorf("task description must be at most %d characters long", DescriptionMaxLen)
	ErrTagTooLong           = fmt.Errorf("task tags must be at most %d characters long", TagMaxLen)
	ErrCategoryTooLong      = fmt.Errorf("task category must be at most %d characters long", CategoryMaxLen)
	ErrTooManyCollaborators = fmt.Errorf("a task can have at most %d collaborators", MaxCollaborators)
	ErrEstimatedTimeRange   = fmt.Errorf("estimated time must be between %d and %d minutes", EstimatedTimeMin, EstimatedTimeMax)
	ErrDueDateNotFuture     = errors.New("due date must be in the future")
	ErrEmptyCommentBody     = errors.New("comment body cannot be empty")
	ErrCommentTooLong       = fmt.Errorf("comment body must be at most %d characters long", CommentMaxLen)
)

// TaskStatus is the closed set of states a task moves through.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

// Valid reports whether the status is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// TaskPriority is the closed set of priorities a task may carry.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Valid reports whether the priority is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Comment is one entry in a task's append-only comment list.
// Comments are never edited or removed once written.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComment creates a new Comment on the given task, stamped with the
// caller-supplied clock reading so comment times stay deterministic in tests.
func NewComment(taskID, authorID uuid.UUID, body string, now time.Time) (*Comment, error) {
	c := &Comment{
		ID:        uuid.New(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Body:      strings.TrimSpace(body),
		CreatedAt: now.UTC(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks if the Comment has valid data.
func (c *Comment) Validate() error {
	if c.TaskID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if c.AuthorID == uuid.Nil {
		return ErrEmptyUserID
	}
	if c.Body == "" {
		return ErrEmptyCommentBody
	}
	if utf8.RuneCountInString(c.Body) > CommentMaxLen {
		return ErrCommentTooLong
	}
	return nil
}

// Task is the central entity of the tracker. A task is exclusively owned
// by OwnerID; collaborators hold shared read access plus status-change and
// comment rights. StartedAt and CompletedAt are derived exclusively by
// ApplyStatusTransition and must never be set directly by callers.
type Task struct {
	ID            uuid.UUID    `json:"id"`
	OwnerID       uuid.UUID    `json:"owner_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Status        TaskStatus   `json:"status"`
	Priority      TaskPriority `json:"priority"`
	Tags          []string     `json:"tags"`
	Category      string       `json:"category"`
	DueDate       *time.Time   `json:"due_date,omitempty"`
	EstimatedTime *int         `json:"estimated_time,omitempty"` // minutes
	Collaborators []uuid.UUID  `json:"collaborators"`
	Comments      []Comment    `json:"comments"`
	StartedAt     *time.Time   `json:"started_at,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewTask creates a new pending Task owned by ownerID with defaults applied:
// status pending, priority medium, category "Uncategorized", no derived
// timestamps. Returns an error if validation fails.
func NewTask(ownerID uuid.UUID, title, description string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      StatusPending,
		Priority:    PriorityMedium,
		Tags:        []string{},
		Category:    DefaultCategory,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.OwnerID == uuid.Nil {
		return ErrEmptyTaskOwner
	}

	// Limits count characters, not bytes, matching the request validators.
	switch {
	case t.Title == "":
		return ErrEmptyTitle
	case utf8.RuneCountInString(t.Title) < TitleMinLen:
		return ErrTitleTooShort
	case utf8.RuneCountInString(t.Title) > TitleMaxLen:
		return ErrTitleTooLong
	}

	switch {
	case t.Description == "":
		return ErrEmptyDescription
	case utf8.RuneCountInString(t.Description) > DescriptionMaxLen:
		return ErrDescriptionTooLong
	}

	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}

	for _, tag := range t.Tags {
		if utf8.RuneCountInString(tag) > TagMaxLen {
			return ErrTagTooLong
		}
	}
	if utf8.RuneCountInString(t.Category) > CategoryMaxLen {
		return ErrCategoryTooLong
	}

	if len(t.Collaborators) > MaxCollaborators {
		return ErrTooManyCollaborators
	}

	if t.EstimatedTime != nil {
		if *t.EstimatedTime < EstimatedTimeMin || *t.EstimatedTime > EstimatedTimeMax {
			return ErrEstimatedTimeRange
		}
	}

	return nil
}

// IsCollaborator reports whether userID is in the task's collaborator set.
func (t *Task) IsCollaborator(userID uuid.UUID) bool {
	for _, id := range t.Collaborators {
		if id == userID {
			return true
		}
	}
	return false
}

// CanModify reports whether userID may change the task's status or add
// comments: the owner and all collaborators may.
func (t *Task) CanModify(userID uuid.UUID) bool {
	return t.OwnerID == userID || t.IsCollaborator(userID)
}

// dueDateLayouts are the accepted input formats for due dates, tried in order.
var dueDateLayouts = []string{
	"02-01-2006", // DD-MM-YYYY
	time.RFC3339,
	"2006-01-02", // ISO-8601 date only
}

// ParseDueDate parses a due date in DD-MM-YYYY or ISO-8601 form and
// normalizes it to UTC. Date-only inputs resolve to midnight UTC.
func ParseDueDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dueDateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not DD-MM-YYYY or ISO-8601", ErrInvalidDueDate, value)
}
