package auth

import (
	"context"
	"errors"
	"fmt"

	"docvault/internal/domain"
	"docvault/internal/domain/repositories"
	"docvault/internal/domain/services"
)

// RoleBasedAuthorizer implements ResourceAuthorizer using the user's role.
// Admins may run maintenance; everyone else is forbidden.
type RoleBasedAuthorizer struct {
	userRepo repositories.UserRepository
}

var _ services.ResourceAuthorizer = (*RoleBasedAuthorizer)(nil)

// NewRoleBasedAuthorizer creates a new role-based authorizer
func NewRoleBasedAuthorizer(userRepo repositories.UserRepository) *RoleBasedAuthorizer {
	return &RoleBasedAuthorizer{userRepo: userRepo}
}

// CanRunMaintenance checks the user's current role in the database,
// so a demotion takes effect before the token expires
func (a *RoleBasedAuthorizer) CanRunMaintenance(ctx context.Context, userID int64) error {
	user, err := a.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("user %d: %w", userID, domain.ErrForbidden)
		}
		return fmt.Errorf("get user for auth: %w", err)
	}

	if !user.IsAdmin() {
		return &domain.ForbiddenError{Message: "admin role required"}
	}
	return nil
}
