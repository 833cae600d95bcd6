// Package http provides the HTTP handlers and router of the calculator API.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/loancalc/internal/common"
	"github.com/atinyakov/loancalc/internal/middleware"
	"github.com/atinyakov/loancalc/internal/models"
	"go.uber.org/zap"
)

// AuthService defines the authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates an account and returns its token.
	Register(ctx context.Context, in models.RegisterInput) (string, error)
	// Login returns a token for valid credentials.
	Login(ctx context.Context, in models.LoginInput) (string, error)
	// Profile returns the account with the given id.
	Profile(ctx context.Context, userID string) (*models.User, error)
}

// AuthHandler handles HTTP requests for registration, login and the profile
// of the current user.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	Logger      *zap.Logger
}

// tokenResponse is returned by register and login.
type tokenResponse struct {
	Token string `json:"token"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	tok, err := h.AuthService.Register(r.Context(), in)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: tok})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	tok, err := h.AuthService.Login(r.Context(), in)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: tok})
}

// User handles GET /api/auth/user. The password hash is never serialized.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	u, err := h.AuthService.Profile(r.Context(), id.UserID)
	if errors.Is(err, common.ErrNotFound) {
		writeMsg(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
