package auth

import (
	"docvault/internal/domain/services"
)

// Compile-time checks that the concrete types satisfy the service collaborators.
var (
	_ services.PasswordHasher = (*Argon2Hasher)(nil)
	_ services.TokenIssuer    = (*HMACTokenIssuer)(nil)
	_ services.TokenRevoker   = (*RedisRevoker)(nil)
)
