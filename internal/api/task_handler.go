package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/taskdeck/taskdeck-api/internal/api/middleware"
	"github.com/taskdeck/taskdeck-api/internal/api/shared"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/service"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// maxPageLimit bounds how many tasks one listing request may return.
const maxPageLimit = 100

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// Create handles POST /tasks requests.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	authCtx, ok := middleware.GetAuthContext(r)
	if !ok {
		log.Warn("authenticated identity not found in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	params, err := h.createParams(req)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.taskService.Create(r.Context(), authCtx, params)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// createParams converts a validated CreateTaskRequest into service inputs.
func (h *TaskHandler) createParams(req CreateTaskRequest) (service.CreateTaskParams, error) {
	params := service.CreateTaskParams{
		Title:         req.Title,
		Description:   req.Description,
		EstimatedTime: req.EstimatedTime,
		Tags:          req.Tags,
		Category:      req.Category,
	}

	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		params.Priority = &priority
	}
	if req.DueDate != nil {
		due, err := domain.ParseDueDate(*req.DueDate)
		if err != nil {
			return service.CreateTaskParams{}, domain.NewValidationError(
				"dueDate", "must be DD-MM-YYYY or ISO-8601", err)
		}
		params.DueDate = &due
	}
	collaborators, err := parseUUIDs(req.Collaborators)
	if err != nil {
		return service.CreateTaskParams{}, err
	}
	params.Collaborators = collaborators

	return params, nil
}

// Get handles GET /tasks/{taskID} requests.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	authCtx, taskID, ok := handleAuthAndPathUUID(w, r, "taskID", log)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), authCtx, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// List handles GET /tasks requests with filtering, sorting and pagination.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	authCtx, ok := middleware.GetAuthContext(r)
	if !ok {
		log.Warn("authenticated identity not found in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	filter, sort, page, err := parseListQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, total, err := h.taskService.List(r.Context(), authCtx, filter, sort, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK,
		NewPaginatedTasksResponse(tasks, total, page.Number, page.Limit))
}

// UpdateDetails handles PATCH /tasks/{taskID} requests.
func (h *TaskHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	authCtx, taskID, ok := handleAuthAndPathUUID(w, r, "taskID", log)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	params := service.UpdateTaskParams{
		Title:         req.Title,
		Description:   req.Description,
		EstimatedTime: req.EstimatedTime,
		Tags:          req.Tags,
		Category:      req.Category,
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		params.Priority = &priority
	}
	if req.DueDate != nil {
		due, err := domain.ParseDueDate(*req.DueDate)
		if err != nil {
			HandleAPIError(w, r, domain.NewValidationError(
				"dueDate", "must be DD-MM-YYYY or ISO-8601", err), "")
			return
		}
		params.DueDate = &due
	}
	if req.Collaborators != nil {
		collaborators, err := parseUUIDs(*req.Collaborators)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		params.Collaborators = &collaborators
	}

	task, err := h.taskService.UpdateDetails(r.Context(), authCtx, taskID, params)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateStatus handles PATCH /tasks/{taskID}/status requests.
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	authCtx, taskID, ok := handleAuthAndPathUUID(w, r, "taskID", log)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.taskService.UpdateStatus(
		r.Context(), authCtx, taskID, domain.TaskStatus(req.Status))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task status")
		return
	}

	log.Debug("task status updated",
		slog.String("task_id", taskID.String()),
		slog.String("status", req.Status))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// Delete handles DELETE /tasks/{taskID} requests.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	authCtx, taskID, ok := handleAuthAndPathUUID(w, r, "taskID", log)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), authCtx, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddComment handles POST /tasks/{taskID}/comments requests.
func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	authCtx, taskID, ok := handleAuthAndPathUUID(w, r, "taskID", log)
	if !ok {
		return
	}

	var req AddCommentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	comment, err := h.taskService.AddComment(r.Context(), authCtx, taskID, req.Body)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add comment")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, CommentResponse{
		ID:        comment.ID.String(),
		AuthorID:  comment.AuthorID.String(),
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	})
}

// parseListQuery turns listing query parameters into store-level filter,
// sort and page values. Unknown sort fields fall back to the default order
// rather than failing; malformed enum or date values fail with a validation
// error.
func parseListQuery(r *http.Request) (store.TaskFilter, store.TaskSort, store.Page, error) {
	q := r.URL.Query()

	var filter store.TaskFilter

	if raw := q.Get("status"); raw != "" {
		status := domain.TaskStatus(raw)
		if !status.Valid() {
			return filter, store.TaskSort{}, store.Page{}, domain.NewValidationError(
				"status", "must be pending, in-progress or done", domain.ErrInvalidStatus)
		}
		filter.Status = &status
	}
	if raw := q.Get("priority"); raw != "" {
		priority := domain.TaskPriority(raw)
		if !priority.Valid() {
			return filter, store.TaskSort{}, store.Page{}, domain.NewValidationError(
				"priority", "must be low, medium, high or urgent", domain.ErrInvalidPriority)
		}
		filter.Priority = &priority
	}
	if raw := q.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}
	if raw := q.Get("category"); raw != "" {
		filter.Category = &raw
	}
	filter.Search = q.Get("search")
	if raw := q.Get("dueFrom"); raw != "" {
		from, err := domain.ParseDueDate(raw)
		if err != nil {
			return filter, store.TaskSort{}, store.Page{}, domain.NewValidationError(
				"dueFrom", "must be DD-MM-YYYY or ISO-8601", err)
		}
		filter.DueFrom = &from
	}
	if raw := q.Get("dueTo"); raw != "" {
		to, err := domain.ParseDueDate(raw)
		if err != nil {
			return filter, store.TaskSort{}, store.Page{}, domain.NewValidationError(
				"dueTo", "must be DD-MM-YYYY or ISO-8601", err)
		}
		filter.DueTo = &to
	}
	filter.IncludeCollaborations = q.Get("includeCollaborations") == "true"

	sort := store.DefaultSort()
	if raw := q.Get("sortBy"); raw != "" {
		sort.Field = raw
	}
	switch q.Get("sortOrder") {
	case "asc":
		sort.Ascending = true
	case "desc":
		sort.Ascending = false
	}

	page := store.Page{Number: 1, Limit: service.DefaultPageLimit}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return filter, sort, page, domain.NewValidationError(
				"page", "must be a positive integer", domain.ErrValidation)
		}
		page.Number = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageLimit {
			return filter, sort, page, domain.NewValidationError(
				"limit", "must be between 1 and 100", domain.ErrValidation)
		}
		page.Limit = n
	}

	return filter, sort, page, nil
}
