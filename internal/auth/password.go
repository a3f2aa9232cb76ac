package auth

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"

	"docvault/internal/domain"
)

// Argon2Hasher hashes passwords into the encoded $argon2id$v=19$... form.
type Argon2Hasher struct {
	params *argon2id.Params
}

// NewArgon2Hasher creates a hasher with the library's default parameters
func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{params: argon2id.DefaultParams}
}

// NewArgon2HasherWithParams creates a hasher with custom parameters (tests use cheap ones)
func NewArgon2HasherWithParams(p *argon2id.Params) *Argon2Hasher {
	return &Argon2Hasher{params: p}
}

// Hash returns the encoded hash to store alongside the user
func (h *Argon2Hasher) Hash(plain string) (string, error) {
	if h == nil || h.params == nil {
		return "", errors.New("argon2id params not set")
	}
	hash, err := argon2id.CreateHash(plain, h.params)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// Verify compares a password with a stored hash.
// A malformed stored hash is reported as a failed login, not a server error.
func (h *Argon2Hasher) Verify(plain, encodedHash string) (bool, error) {
	ok, err := argon2id.ComparePasswordAndHash(plain, encodedHash)
	if err != nil {
		if errors.Is(err, argon2id.ErrInvalidHash) || errors.Is(err, argon2id.ErrIncompatibleVersion) || errors.Is(err, argon2id.ErrIncompatibleVariant) {
			return false, fmt.Errorf("stored hash unreadable: %w", domain.ErrUnauthorized)
		}
		return false, fmt.Errorf("verify password: %w", err)
	}
	return ok, nil
}
