package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title         string   `json:"title"                   validate:"required,min=3,max=100"`
	Description   string   `json:"description"             validate:"required,max=1000"`
	Priority      *string  `json:"priority,omitempty"      validate:"omitempty,oneof=low medium high urgent"`
	DueDate       *string  `json:"dueDate,omitempty"`
	EstimatedTime *int     `json:"estimatedTime,omitempty" validate:"omitempty,gte=1,lte=10080"`
	Tags          []string `json:"tags,omitempty"          validate:"omitempty,max=20,dive,min=1,max=20"`
	Category      *string  `json:"category,omitempty"      validate:"omitempty,min=1,max=30"`
	Collaborators []string `json:"collaborators,omitempty" validate:"omitempty,max=10,dive,uuid"`
}

// UpdateTaskRequest defines the payload for a partial task update.
// Absent fields are left untouched.
type UpdateTaskRequest struct {
	Title         *string   `json:"title,omitempty"         validate:"omitempty,min=3,max=100"`
	Description   *string   `json:"description,omitempty"   validate:"omitempty,max=1000"`
	Priority      *string   `json:"priority,omitempty"      validate:"omitempty,oneof=low medium high urgent"`
	DueDate       *string   `json:"dueDate,omitempty"`
	EstimatedTime *int      `json:"estimatedTime,omitempty" validate:"omitempty,gte=1,lte=10080"`
	Tags          *[]string `json:"tags,omitempty"          validate:"omitempty,max=20,dive,min=1,max=20"`
	Category      *string   `json:"category,omitempty"      validate:"omitempty,min=1,max=30"`
	Collaborators *[]string `json:"collaborators,omitempty" validate:"omitempty,max=10,dive,uuid"`
}

// UpdateStatusRequest defines the payload for a task status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in-progress done"`
}

// AddCommentRequest defines the payload for appending a comment to a task.
type AddCommentRequest struct {
	Body string `json:"body" validate:"required,max=500"`
}

// CommentResponse represents one comment on a task.
type CommentResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskResponse represents the response data for a task.
type TaskResponse struct {
	ID            string            `json:"id"`
	OwnerID       string            `json:"owner_id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Status        string            `json:"status"`
	Priority      string            `json:"priority"`
	Tags          []string          `json:"tags"`
	Category      string            `json:"category"`
	DueDate       *time.Time        `json:"due_date,omitempty"`
	EstimatedTime *int              `json:"estimated_time,omitempty"`
	Collaborators []string          `json:"collaborators"`
	Comments      []CommentResponse `json:"comments"`
	StartedAt     *time.Time        `json:"started_at,omitempty"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// PaginatedTasksResponse is the envelope for task listings.
type PaginatedTasksResponse struct {
	Items       []TaskResponse `json:"items"`
	Total       int64          `json:"total"`
	Page        int            `json:"page"`
	Limit       int            `json:"limit"`
	TotalPages  int            `json:"totalPages"`
	HasNextPage bool           `json:"hasNextPage"`
	HasPrevPage bool           `json:"hasPrevPage"`
}

// NewPaginatedTasksResponse builds the listing envelope. totalPages is
// computed from the total match count, so a client can page past the end
// and still learn where the end is.
func NewPaginatedTasksResponse(
	tasks []domain.Task,
	total int64,
	page, limit int,
) PaginatedTasksResponse {
	items := make([]TaskResponse, len(tasks))
	for i := range tasks {
		items[i] = taskToResponse(&tasks[i])
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return PaginatedTasksResponse{
		Items:       items,
		Total:       total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1 && total > 0,
	}
}

// taskToResponse transforms a domain task into its API representation.
func taskToResponse(task *domain.Task) TaskResponse {
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}

	collaborators := make([]string, len(task.Collaborators))
	for i, id := range task.Collaborators {
		collaborators[i] = id.String()
	}

	comments := make([]CommentResponse, len(task.Comments))
	for i, c := range task.Comments {
		comments[i] = CommentResponse{
			ID:        c.ID.String(),
			AuthorID:  c.AuthorID.String(),
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
		}
	}

	return TaskResponse{
		ID:            task.ID.String(),
		OwnerID:       task.OwnerID.String(),
		Title:         task.Title,
		Description:   task.Description,
		Status:        string(task.Status),
		Priority:      string(task.Priority),
		Tags:          tags,
		Category:      task.Category,
		DueDate:       task.DueDate,
		EstimatedTime: task.EstimatedTime,
		Collaborators: collaborators,
		Comments:      comments,
		StartedAt:     task.StartedAt,
		CompletedAt:   task.CompletedAt,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}
}
