package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the JWT claim set issued at login.
// Subject carries the user's email.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// GetEmail returns the user email from the JWT subject claim.
func (c *AccessClaims) GetEmail() string {
	return c.Subject
}

// ExpiresAtTime returns the expiry, or the zero time when the claim is absent
func (c *AccessClaims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
