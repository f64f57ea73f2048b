package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)

	RespondWithJSON(rec, req, http.StatusCreated, map[string]string{"id": "42"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"42"}`, rec.Body.String())
}

func TestRespondWithError(t *testing.T) {
	t.Parallel()

	t.Run("includes the trace ID when present", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		req = req.WithContext(SetTraceID(req.Context()))

		RespondWithError(rec, req, http.StatusNotFound, "Task not found")

		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Task not found", resp.Error)
		assert.Equal(t, GetTraceID(req.Context()), resp.TraceID)
	})

	t.Run("omits the trace ID when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)

		RespondWithError(rec, req, http.StatusBadRequest, "Invalid request data")

		assert.NotContains(t, rec.Body.String(), "trace_id")
	})
}

func TestRespondWithErrorAndLog(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tasks", nil)

	RespondWithErrorAndLog(rec, req, http.StatusInternalServerError,
		"Failed to create task", errors.New("pq: out of shared memory"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// The raw error stays in the logs; the client sees only the safe message.
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to create task", resp.Error)
	assert.NotContains(t, rec.Body.String(), "shared memory")
}
