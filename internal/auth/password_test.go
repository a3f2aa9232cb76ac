package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/alexedwards/argon2id"

	"docvault/internal/domain"
)

func cheapHasher() *Argon2Hasher {
	return NewArgon2HasherWithParams(&argon2id.Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

func TestArgon2Hasher_RoundTrip(t *testing.T) {
	h := cheapHasher()

	hash, err := h.Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("Hash() = %q, want $argon2id$ prefix", hash)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "correct password", password: "s3cret", want: true},
		{name: "wrong password", password: "S3cret", want: false},
		{name: "empty password", password: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Verify(tt.password, hash)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArgon2Hasher_SaltsDiffer(t *testing.T) {
	h := cheapHasher()
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
}

func TestArgon2Hasher_MalformedHash(t *testing.T) {
	ok, err := cheapHasher().Verify("pw", "not-a-hash")
	if ok {
		t.Error("Verify() = true for malformed hash")
	}
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Verify() error = %v, want ErrUnauthorized", err)
	}
}

func TestArgon2Hasher_NilParams(t *testing.T) {
	if _, err := NewArgon2HasherWithParams(nil).Hash("pw"); err == nil {
		t.Error("Hash() with nil params should fail")
	}
}
