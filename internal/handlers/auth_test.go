package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/metro-telemetry/internal/auth"
	"github.com/ukydev/metro-telemetry/internal/db"
	"github.com/ukydev/metro-telemetry/internal/models"
)

// MockOperatorCollection is a mock implementation of OperatorCollection
type MockOperatorCollection struct {
	mock.Mock
}

func (m *MockOperatorCollection) FindOperatorByUsername(ctx context.Context, username string) (*models.Operator, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Operator), args.Error(1)
}

func (m *MockOperatorCollection) UpsertOperator(ctx context.Context, op models.Operator) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func newTestAuthService(t *testing.T) *auth.Service {
	t.Helper()
	s, err := auth.NewService("handler-secret", time.Hour)
	require.NoError(t, err)
	return s
}

func newOperatorStore(t *testing.T, s *auth.Service) *db.MemoryOperatorCollection {
	t.Helper()
	hash, err := s.HashPassword("password123")
	require.NoError(t, err)
	return db.NewMemoryOperatorCollection(
		models.Operator{Username: "dispatch", PasswordHash: hash, Role: models.RoleOperator, IsActive: true},
		models.Operator{Username: "wall", PasswordHash: hash, Role: models.RoleViewer, IsActive: true},
		models.Operator{Username: "retired", PasswordHash: hash, Role: models.RoleViewer, IsActive: false},
	)
}

func postToken(h *AuthHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.Token(w, req)
	return w
}

func TestAuthHandler_Token(t *testing.T) {
	authService := newTestAuthService(t)
	handler := NewAuthHandler(authService, newOperatorStore(t, authService))

	t.Run("successful login", func(t *testing.T) {
		w := postToken(handler, `{"username":"dispatch","password":"password123"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.TokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, models.RoleOperator, resp.Role)
		assert.Greater(t, resp.ExpiresAt, time.Now().Unix())

		claims, err := authService.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "dispatch", claims.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := postToken(handler, `{"username":"dispatch","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown operator", func(t *testing.T) {
		w := postToken(handler, `{"username":"ghost","password":"password123"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid credentials")
	})

	t.Run("inactive operator", func(t *testing.T) {
		w := postToken(handler, `{"username":"retired","password":"password123"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "deactivated")
	})

	t.Run("missing fields", func(t *testing.T) {
		w := postToken(handler, `{"username":"dispatch"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		w := postToken(handler, `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/token", nil)
		w := httptest.NewRecorder()
		handler.Token(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestAuthHandler_Token_StoreError(t *testing.T) {
	operators := new(MockOperatorCollection)
	operators.On("FindOperatorByUsername", mock.Anything, "dispatch").
		Return(nil, errors.New("connection refused"))

	handler := NewAuthHandler(newTestAuthService(t), operators)
	w := postToken(handler, `{"username":"dispatch","password":"password123"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	operators.AssertExpectations(t)
}
