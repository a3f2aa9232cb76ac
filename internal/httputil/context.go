package httputil

import (
	"context"
	"net/http"

	"docvault/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	userKey   contextKey = "user"
	claimsKey contextKey = "claims"
)

// WithUser adds the authenticated user and its token claims to the request context
func WithUser(r *http.Request, user *models.User, claims *models.AccessClaims) *http.Request {
	ctx := context.WithValue(r.Context(), userKey, user)
	ctx = context.WithValue(ctx, claimsKey, claims)
	return r.WithContext(ctx)
}

// GetUser retrieves the authenticated user, or nil if the route is public
func GetUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userKey).(*models.User)
	return user
}

// GetClaims retrieves the token claims of the authenticated user
func GetClaims(r *http.Request) *models.AccessClaims {
	claims, _ := r.Context().Value(claimsKey).(*models.AccessClaims)
	return claims
}
