package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/api/middleware"
	"github.com/taskdeck/taskdeck-api/internal/api/shared"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/service"
)

// HandleAPIError maps an internal error to an HTTP error response. The
// fallbackMessage is used instead of the mapped safe message when the error
// maps to an internal server error, so handlers can keep operation-specific
// wording for their failure mode.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	statusCode := MapErrorToStatusCode(err)
	safeMessage := GetSafeErrorMessage(err)
	if statusCode == http.StatusInternalServerError && fallbackMessage != "" {
		safeMessage = fallbackMessage
	}
	shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
}

// getPathUUID extracts a UUID from the URL path parameters.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// handleAuthAndPathUUID is a composite helper that extracts the authenticated
// identity from the context and a UUID from the path parameters. It writes an
// error response if either extraction fails.
func handleAuthAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (service.AuthContext, uuid.UUID, bool) {
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}

	authCtx, ok := middleware.GetAuthContext(r)
	if !ok || authCtx.UserID == uuid.Nil {
		log.Warn("authenticated identity not found in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return service.AuthContext{}, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		log.Warn("invalid "+paramName,
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return service.AuthContext{}, uuid.Nil, false
	}

	return authCtx, pathID, true
}

// parseUUIDs converts a list of string IDs into UUIDs, reporting the first
// malformed entry by name.
func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, domain.NewValidationError("collaborators", "contains invalid ID "+s, domain.ErrInvalidID)
		}
		out[i] = id
	}
	return out, nil
}
