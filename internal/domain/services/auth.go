package services

import (
	"context"
	"time"

	"docvault/internal/domain/models"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encodedHash string) (bool, error)
}

// TokenIssuer issues and validates bearer tokens. The subject is the user's email.
type TokenIssuer interface {
	Issue(subject, role string, ttl time.Duration) (string, *models.AccessClaims, error)

	// Validate checks signature and expiry. Returns domain.ErrUnauthorized on any failure.
	Validate(token string) (*models.AccessClaims, error)
}

// TokenRevoker remembers revoked token IDs until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// ResourceAuthorizer checks if a user may perform privileged operations.
//
// Design principle: Services call authorizer before operating on resources.
type ResourceAuthorizer interface {
	// CanRunMaintenance checks if the user may reset the database
	CanRunMaintenance(ctx context.Context, userID int64) error
}

// AuthService handles registration, login and token verification
type AuthService interface {
	// Register creates a new user with a hashed password.
	// Returns a ConflictError if the email is already registered.
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)

	// Login verifies credentials and issues an access token.
	// Unknown email and wrong password both return domain.ErrUnauthorized.
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// Authenticate validates a bearer token and loads its user
	Authenticate(ctx context.Context, token string) (*models.User, *models.AccessClaims, error)

	// Logout revokes the token identified by the claims.
	// Returns domain.ErrNotConfigured when no revoker is wired.
	Logout(ctx context.Context, claims *models.AccessClaims) error

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	// Promote grants the admin role to an existing user
	Promote(ctx context.Context, email string) error
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Password     string `json:"password"`
	DepartmentID *int64 `json:"department_id,omitempty"`
}

// LoginResult carries an issued access token
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        *models.User
}
