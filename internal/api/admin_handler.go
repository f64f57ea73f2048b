package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/api/middleware"
	"github.com/taskdeck/taskdeck-api/internal/api/shared"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/reaper"
)

// SweepRunner triggers a single stale-task sweep on demand.
type SweepRunner interface {
	RunOnce(ctx context.Context) (int, error)
}

// ReaperRunResponse reports the outcome of a manually triggered sweep.
type ReaperRunResponse struct {
	Closed int `json:"closed"`
}

// AdminHandler handles operational endpoints restricted to admins.
type AdminHandler struct {
	sweeper SweepRunner
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(sweeper SweepRunner, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		sweeper: sweeper,
		logger:  logger.With(slog.String("component", "admin_handler")),
	}
}

// RunReaper handles POST /admin/reaper/run requests. Only admins may
// trigger a sweep; an in-flight sweep yields 409.
func (h *AdminHandler) RunReaper(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	authCtx, ok := middleware.GetAuthContext(r)
	if !ok || authCtx.UserID == uuid.Nil {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}
	if !authCtx.IsAdmin() {
		log.Warn("non-admin attempted to trigger reaper",
			slog.String("user_id", authCtx.UserID.String()))
		shared.RespondWithError(w, r, http.StatusForbidden, "Admin role required")
		return
	}

	closed, err := h.sweeper.RunOnce(r.Context())
	if err != nil {
		if errors.Is(err, reaper.ErrAlreadyRunning) {
			shared.RespondWithError(w, r, http.StatusConflict, "A sweep is already running")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to run sweep", err)
		return
	}

	log.Info("manual reaper sweep finished",
		slog.String("user_id", authCtx.UserID.String()),
		slog.Int("closed", closed))
	shared.RespondWithJSON(w, r, http.StatusOK, ReaperRunResponse{Closed: closed})
}
