package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Requires a reachable Redis; set TEST_REDIS_ADDR to run.
func TestRedisRevoker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, addr, "", 0)
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	defer rdb.Close()

	r := NewRedisRevoker(rdb, testLogger())
	jti := uuid.NewString()

	revoked, err := r.IsRevoked(ctx, jti)
	if err != nil {
		t.Fatalf("IsRevoked() error = %v", err)
	}
	if revoked {
		t.Fatal("fresh jti reported revoked")
	}

	if err := r.Revoke(ctx, jti, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	revoked, err = r.IsRevoked(ctx, jti)
	if err != nil {
		t.Fatalf("IsRevoked() error = %v", err)
	}
	if !revoked {
		t.Error("revoked jti not reported revoked")
	}

	ttl, err := rdb.TTL(ctx, revokedKey(jti)).Result()
	if err != nil {
		t.Fatal(err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within (0, 1m]", ttl)
	}

	// already-expired tokens are not stored
	stale := uuid.NewString()
	if err := r.Revoke(ctx, stale, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if revoked, _ := r.IsRevoked(ctx, stale); revoked {
		t.Error("expired jti should not be stored")
	}
}
