package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/metro-telemetry/internal/auth"
	"github.com/ukydev/metro-telemetry/internal/db"
	"github.com/ukydev/metro-telemetry/internal/models"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService *auth.Service
	operators   db.OperatorCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, operators db.OperatorCollection) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		operators:   operators,
	}
}

// Token exchanges operator credentials for a signed API token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req models.TokenRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	// Validate input
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	op, err := h.operators.FindOperatorByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, db.ErrOperatorNotFound) {
			log.WithError(err).Error("Operator lookup failed")
		}
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := h.authService.Authenticate(op, req.Password); err != nil {
		log.WithFields(log.Fields{
			"username": req.Username,
			"reason":   err.Error(),
		}).Warn("Token request rejected")
		if errors.Is(err, auth.ErrOperatorInactive) {
			http.Error(w, "Account is deactivated", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := h.authService.GenerateToken(op)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		Role:      op.Role,
	})
}
