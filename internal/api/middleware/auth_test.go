package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/service"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
)

const middlewareTestSecret = "middleware-test-secret-0123456789ab"

func newAuthTestFixture(t *testing.T) (*AuthMiddleware, auth.JWTService) {
	t.Helper()
	jwtService, err := auth.NewJWTService(middlewareTestSecret, 60)
	require.NoError(t, err)
	return NewAuthMiddleware(jwtService), jwtService
}

// capturingHandler records the identity the middleware placed in the context.
func capturingHandler(captured *service.AuthContext, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if authCtx, ok := GetAuthContext(r); ok {
			*captured = authCtx
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("valid token reaches the handler with the identity", func(t *testing.T) {
		mw, jwtService := newAuthTestFixture(t)

		userID := uuid.New()
		token, err := jwtService.GenerateToken(context.Background(), userID, domain.RoleManager)
		require.NoError(t, err)

		var captured service.AuthContext
		var called bool
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		mw.Authenticate(capturingHandler(&captured, &called)).ServeHTTP(rec, req)

		require.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, captured.UserID)
		assert.Equal(t, domain.RoleManager, captured.Role)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		mw, _ := newAuthTestFixture(t)

		var captured service.AuthContext
		var called bool
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)

		mw.Authenticate(capturingHandler(&captured, &called)).ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Authorization header required")
	})

	t.Run("non-bearer scheme is rejected", func(t *testing.T) {
		mw, _ := newAuthTestFixture(t)

		var captured service.AuthContext
		var called bool
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		mw.Authenticate(capturingHandler(&captured, &called)).ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid authorization format")
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		mw, _ := newAuthTestFixture(t)

		var captured service.AuthContext
		var called bool
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")

		mw.Authenticate(capturingHandler(&captured, &called)).ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid token")
	})

	t.Run("token signed with another key is rejected", func(t *testing.T) {
		mw, _ := newAuthTestFixture(t)

		otherService, err := auth.NewJWTService("another-secret-key-0123456789abcdef", 60)
		require.NoError(t, err)
		token, err := otherService.GenerateToken(context.Background(), uuid.New(), domain.RoleUser)
		require.NoError(t, err)

		var captured service.AuthContext
		var called bool
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		mw.Authenticate(capturingHandler(&captured, &called)).ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetAuthContext(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	_, ok := GetAuthContext(req)
	assert.False(t, ok)
}
