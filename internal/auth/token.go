package auth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
)

// HMACTokenIssuer signs and verifies self-issued HS256 access tokens.
type HMACTokenIssuer struct {
	secret []byte
	issuer string
	now    func() time.Time
	logger *slog.Logger
}

// NewHMACTokenIssuer creates a token issuer. The secret must not be empty.
func NewHMACTokenIssuer(secret, issuer string, logger *slog.Logger) (*HMACTokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	return &HMACTokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
		logger: logger,
	}, nil
}

// Issue signs a token for subject with a fresh jti
func (m *HMACTokenIssuer) Issue(subject, role string, ttl time.Duration) (string, *models.AccessClaims, error) {
	now := m.now().UTC()
	claims := &models.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Validate checks signature, algorithm, issuer and expiry
func (m *HMACTokenIssuer) Validate(tokenString string) (*models.AccessClaims, error) {
	claims := &models.AccessClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		m.logger.Debug("token rejected", "error", err.Error())
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		m.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}
