package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
)

type stubUserRepo struct {
	users map[int64]*models.User
	err   error
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error { return nil }
func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, domain.ErrNotFound
}
func (s *stubUserRepo) UpdateRole(ctx context.Context, email, role string) error { return nil }

func (s *stubUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

func TestRoleBasedAuthorizer_CanRunMaintenance(t *testing.T) {
	repo := &stubUserRepo{users: map[int64]*models.User{
		1: {ID: 1, Email: "admin@example.com", Role: models.RoleAdmin},
		2: {ID: 2, Email: "emp@example.com", Role: models.RoleEmployee},
	}}
	a := NewRoleBasedAuthorizer(repo)

	tests := []struct {
		name    string
		userID  int64
		wantErr error
	}{
		{name: "admin allowed", userID: 1, wantErr: nil},
		{name: "employee forbidden", userID: 2, wantErr: domain.ErrForbidden},
		{name: "unknown user forbidden", userID: 99, wantErr: domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.CanRunMaintenance(context.Background(), tt.userID)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("CanRunMaintenance() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CanRunMaintenance() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRoleBasedAuthorizer_RepoFailure(t *testing.T) {
	boom := errors.New("connection refused")
	a := NewRoleBasedAuthorizer(&stubUserRepo{err: boom})

	err := a.CanRunMaintenance(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
	if errors.Is(err, domain.ErrForbidden) {
		t.Error("infrastructure failure must not look like a denial")
	}
}
