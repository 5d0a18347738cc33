package helpers

import (
	"testing"
	"time"
)

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()

	m := NewJWTManager("super-secret", time.Hour)

	tok, exp, err := m.Generate("user-123", "alice@test.com")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if tok == "" {
		t.Fatal("empty token")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expiry already in the past")
	}

	claims, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Fatalf("uid = %q, want %q", claims.UserID, "user-123")
	}
	if claims.Email != "alice@test.com" {
		t.Fatalf("email = %q, want %q", claims.Email, "alice@test.com")
	}
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	m := NewJWTManager("secret", -1*time.Second)

	tok, _, err := m.Generate("u1", "u1@test.com")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if _, err := m.Parse(tok); err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewJWTManager("right-secret", time.Hour)
	verifier := NewJWTManager("wrong-secret", time.Hour)

	tok, _, err := issuer.Generate("u2", "u2@test.com")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if _, err := verifier.Parse(tok); err == nil {
		t.Fatal("expected error for invalid signature, got nil")
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	m := NewJWTManager("k", time.Hour)
	if _, err := m.Parse("not.a.jwt"); err == nil {
		t.Fatal("expected error for malformed token, got nil")
	}
}
