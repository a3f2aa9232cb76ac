package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "docvault:revoked:"

// RedisRevoker keeps revoked token IDs in Redis until the token would have expired.
type RedisRevoker struct {
	rdb    redis.Cmdable
	logger *slog.Logger
}

// NewRedisRevoker wraps a Redis client
func NewRedisRevoker(rdb redis.Cmdable, logger *slog.Logger) *RedisRevoker {
	return &RedisRevoker{rdb: rdb, logger: logger}
}

// NewRedisClient creates a client and verifies it answers PING
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func revokedKey(jti string) string { return revokedKeyPrefix + jti }

// Revoke marks jti revoked with TTL = expiresAt - now
func (r *RedisRevoker) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// already expired; nothing can present it again
		return nil
	}

	if err := r.rdb.SetNX(ctx, revokedKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	r.logger.Debug("token revoked", "jti", jti, "ttl", ttl)
	return nil
}

// IsRevoked reports whether jti was revoked
func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return n > 0, nil
}
