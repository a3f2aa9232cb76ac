package handler

import (
	"log/slog"
	"net/http"

	"docvault/internal/domain"
	"docvault/internal/domain/services"
	"docvault/internal/httputil"
)

// AdminHandler exposes maintenance operations to admins
type AdminHandler struct {
	maintenance services.MaintenanceService
	authorizer  services.ResourceAuthorizer
	logger      *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(maintenance services.MaintenanceService, authorizer services.ResourceAuthorizer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		maintenance: maintenance,
		authorizer:  authorizer,
		logger:      logger,
	}
}

// Reset wipes all data and re-seeds the default departments
// POST /admin/reset/
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUser(r)
	if user == nil {
		handleError(w, h.logger, &domain.UnauthorizedError{Message: "Not authenticated"})
		return
	}

	if err := h.authorizer.CanRunMaintenance(r.Context(), user.ID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	h.logger.Warn("database reset requested", "user_id", user.ID, "email", user.Email)

	result, err := h.maintenance.Reset(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, ResetResponse{Status: result.Status, Message: result.Message})
}
