package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/reaper"
	"github.com/taskdeck/taskdeck-api/internal/service"
)

func adminAuth() service.AuthContext {
	return service.AuthContext{UserID: uuid.New(), Role: domain.RoleAdmin}
}

func TestAdminHandler_RunReaper(t *testing.T) {
	t.Parallel()

	t.Run("admin triggers a sweep and gets the closed count", func(t *testing.T) {
		sweeper := new(MockSweeper)
		sweeper.On("RunOnce", mock.Anything).Return(3, nil)
		handler := NewAdminHandler(sweeper, discardLogger())

		rec := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/admin/reaper/run", nil, adminAuth())
		handler.RunReaper(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp ReaperRunResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Closed)
	})

	t.Run("non-admin gets 403", func(t *testing.T) {
		sweeper := new(MockSweeper)
		handler := NewAdminHandler(sweeper, discardLogger())

		rec := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/admin/reaper/run", nil, userAuth())
		handler.RunReaper(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		sweeper.AssertNotCalled(t, "RunOnce", mock.Anything)
	})

	t.Run("unauthenticated request gets 401", func(t *testing.T) {
		sweeper := new(MockSweeper)
		handler := NewAdminHandler(sweeper, discardLogger())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/reaper/run", nil)
		handler.RunReaper(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("concurrent sweep maps to 409", func(t *testing.T) {
		sweeper := new(MockSweeper)
		sweeper.On("RunOnce", mock.Anything).Return(0, reaper.ErrAlreadyRunning)
		handler := NewAdminHandler(sweeper, discardLogger())

		rec := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/admin/reaper/run", nil, adminAuth())
		handler.RunReaper(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("sweep failure maps to 500", func(t *testing.T) {
		sweeper := new(MockSweeper)
		sweeper.On("RunOnce", mock.Anything).Return(0, errors.New("db down"))
		handler := NewAdminHandler(sweeper, discardLogger())

		rec := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/admin/reaper/run", nil, adminAuth())
		handler.RunReaper(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
	})
}
