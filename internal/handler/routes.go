package handler

import (
	"log/slog"
	"net/http"

	"docvault/internal/middleware"
)

// Handlers groups everything RegisterRoutes mounts
type Handlers struct {
	Auth      *AuthHandler
	Documents *DocumentHandler
	Admin     *AdminHandler
}

// RegisterRoutes mounts every endpoint on mux. Collection-style paths answer
// both with and without a trailing slash.
func RegisterRoutes(mux *http.ServeMux, h Handlers, authn middleware.Authenticator, logger *slog.Logger) {
	protected := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAuthFunc(authn, logger, fn)
	}
	both := func(method, path string, handler http.Handler) {
		mux.Handle(method+" "+path, handler)
		mux.Handle(method+" "+path+"/{$}", handler)
	}

	mux.HandleFunc("GET /health", Health)

	// Public
	both("POST", "/register", http.HandlerFunc(h.Auth.Register))
	both("POST", "/login", http.HandlerFunc(h.Auth.Login))
	both("GET", "/departments", http.HandlerFunc(h.Documents.ListDepartments))

	// Session
	both("POST", "/logout", protected(h.Auth.Logout))
	both("GET", "/users/me", protected(h.Auth.Me))

	// Documents
	both("POST", "/documents/upload", protected(h.Documents.Upload))
	both("GET", "/documents/search", protected(h.Documents.Search))
	both("GET", "/documents/{id}", protected(h.Documents.GetDocument))
	both("GET", "/documents/{id}/download", protected(h.Documents.DownloadLatest))
	both("GET", "/documents/{id}/versions", protected(h.Documents.ListVersions))
	both("GET", "/documents/{id}/versions/{number}/download", protected(h.Documents.DownloadVersion))

	// Admin
	both("POST", "/admin/reset", protected(h.Admin.Reset))
}
