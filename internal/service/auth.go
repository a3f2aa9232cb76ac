package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/domain/repositories"
	"docvault/internal/domain/services"
)

// errBadCredentials is returned for both unknown users and wrong passwords
var errBadCredentials = &domain.UnauthorizedError{Message: "Incorrect username or password"}

type authService struct {
	userRepo    repositories.UserRepository
	hasher      services.PasswordHasher
	tokens      services.TokenIssuer
	revoker     services.TokenRevoker // nil disables logout
	tokenTTL    time.Duration
	adminEmails map[string]bool
	logger      *slog.Logger
}

// AuthServiceConfig configures the auth service
type AuthServiceConfig struct {
	Users       repositories.UserRepository
	Hasher      services.PasswordHasher
	Tokens      services.TokenIssuer
	Revoker     services.TokenRevoker
	TokenTTL    time.Duration
	AdminEmails []string
	Logger      *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) services.AuthService {
	admins := make(map[string]bool, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = true
		}
	}

	return &authService{
		userRepo:    cfg.Users,
		hasher:      cfg.Hasher,
		tokens:      cfg.Tokens,
		revoker:     cfg.Revoker,
		tokenTTL:    cfg.TokenTTL,
		adminEmails: admins,
		logger:      cfg.Logger,
	}
}

// Register creates a new user with a hashed password
func (s *authService) Register(ctx context.Context, req *services.RegisterRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if err := validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Password, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         models.RoleEmployee,
		DepartmentID: req.DepartmentID,
	}
	if s.adminEmails[strings.ToLower(req.Email)] {
		user.Role = models.RoleAdmin
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "id", user.ID, "email", user.Email, "role", user.Role)
	return user, nil
}

// Login verifies credentials and issues an access token
func (s *authService) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			s.logger.Warn("stored password hash unreadable", "user_id", user.ID)
			return nil, errBadCredentials
		}
		return nil, err
	}
	if !ok {
		return nil, errBadCredentials
	}

	token, claims, err := s.tokens.Issue(user.Email, user.Role, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &services.LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   claims.ExpiresAtTime(),
		User:        user,
	}, nil
}

// Authenticate validates a bearer token and loads its user
func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, *models.AccessClaims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, nil, err
	}

	if s.revoker != nil && claims.ID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, err
		}
		if revoked {
			return nil, nil, &domain.UnauthorizedError{Message: "token has been revoked"}
		}
	}

	user, err := s.userRepo.GetByEmail(ctx, claims.GetEmail())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// token outlived its user (e.g. after a reset)
			return nil, nil, &domain.UnauthorizedError{Message: "Could not validate credentials"}
		}
		return nil, nil, err
	}

	return user, claims, nil
}

// Logout revokes the presented token
func (s *authService) Logout(ctx context.Context, claims *models.AccessClaims) error {
	if s.revoker == nil {
		return fmt.Errorf("token revocation: %w", domain.ErrNotConfigured)
	}
	if claims == nil || claims.ID == "" {
		return fmt.Errorf("%w: token has no id", domain.ErrValidation)
	}

	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAtTime()); err != nil {
		return err
	}

	s.logger.Info("user logged out", "email", claims.GetEmail())
	return nil
}

// GetUser retrieves a user by ID
func (s *authService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// Promote grants the admin role to an existing user
func (s *authService) Promote(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	if err := s.userRepo.UpdateRole(ctx, email, models.RoleAdmin); err != nil {
		return err
	}

	s.logger.Info("user promoted", "email", email, "role", models.RoleAdmin)
	return nil
}
