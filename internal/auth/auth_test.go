// internal/auth/auth_test.go
package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	encoded, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected hash format %q", encoded)
	}

	ok, err := VerifyPassword("hunter2", encoded)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = VerifyPassword("wrong", encoded)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	a, err := HashPassword("same")
	if err != nil {
		t.Fatal(err)
	}
	b, err := HashPassword("same")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestVerifyPasswordBadEncoding(t *testing.T) {
	if _, err := VerifyPassword("x", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	token, err := CreateJWT("user-123")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sub, err := AuthenticateJWT(token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if sub != "user-123" {
		t.Fatalf("expected sub user-123, got %q", sub)
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := AuthenticateJWT("not.a.token"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}

func TestJWTRejectsTokenFromOldKey(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	token, err := CreateJWT("user-123")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Re-initializing rotates the key pair; old tokens stop verifying.
	if err := Init(); err != nil {
		t.Fatalf("re-init: %v", err)
	}
	if _, err := AuthenticateJWT(token); err == nil {
		t.Fatal("token from rotated key accepted")
	}
}
