package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"docvault/internal/domain"
	"docvault/internal/domain/services"
	"docvault/internal/httputil"
)

// AuthHandler handles registration, login and session endpoints
type AuthHandler struct {
	service services.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service services.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// Register creates a user account
// POST /register/
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, newUserResponse(user))
}

// Login exchanges form credentials for a bearer token
// POST /login/
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := r.ParseForm(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid form body")
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		httputil.RespondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresAt:   result.ExpiresAt,
	})
}

// Logout revokes the presented token
// POST /logout/
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	if claims == nil {
		handleError(w, h.logger, &domain.UnauthorizedError{Message: "Not authenticated"})
		return
	}

	if err := h.service.Logout(r.Context(), claims); err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			httputil.RespondError(w, http.StatusNotImplemented, "logout is not enabled on this server")
			return
		}
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user
// GET /users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUser(r)
	if user == nil {
		handleError(w, h.logger, &domain.UnauthorizedError{Message: "Not authenticated"})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, newUserResponse(user))
}
