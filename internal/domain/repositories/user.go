package repositories

import (
	"context"

	"docvault/internal/domain/models"
)

// UserRepository defines data access operations for users
type UserRepository interface {
	// Create creates a new user. Returns a ConflictError if the email is taken.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdateRole changes a user's role
	UpdateRole(ctx context.Context, email, role string) error
}

// DepartmentRepository defines data access operations for departments
type DepartmentRepository interface {
	// List returns all departments ordered by id
	List(ctx context.Context) ([]models.Department, error)

	// Count returns the number of departments
	Count(ctx context.Context) (int, error)

	// CreateMany inserts departments by name, skipping names that already exist
	CreateMany(ctx context.Context, names []string) error
}
