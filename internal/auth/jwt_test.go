package auth

import (
	"testing"
	"time"
)

func TestGenerateAndParse(t *testing.T) {
	m := NewManager("super-secret", 2*time.Hour)

	token, err := m.GenerateToken("alice")

	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	claims, err := m.ParseAndValidate(token)

	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if claims.Name != "alice" {
		t.Fatalf("claims.Name = %q, want alice", claims.Name)
	}
	if claims.Subject != "alice" {
		t.Fatalf("claims.Subject = %q, want alice", claims.Subject)
	}
	if claims.JTI == "" {
		t.Fatal("expected a token id")
	}

	exp := claims.ExpiresAt.Time
	iat := claims.IssuedAt.Time

	if got := exp.Sub(iat); got != 2*time.Hour {
		t.Fatalf("token lifetime = %v, want 2h", got)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour)
	verifier := NewManager("secret-b", time.Hour)

	token, err := issuer.GenerateToken("alice")

	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	if _, err := verifier.ParseAndValidate(token); err == nil {
		t.Fatal("expected verification to fail with the wrong secret")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := NewManager("super-secret", -time.Minute)

	token, err := m.GenerateToken("alice")

	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	if _, err := m.ParseAndValidate(token); err == nil {
		t.Fatal("expected an expired token to be rejected")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	m := NewManager("super-secret", time.Hour)

	if _, err := m.ParseAndValidate("not-a-token"); err == nil {
		t.Fatal("expected garbage input to be rejected")
	}
}

func TestTokensAreUniquePerIssue(t *testing.T) {
	m := NewManager("super-secret", time.Hour)

	a, err := m.GenerateToken("alice")

	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	b, err := m.GenerateToken("alice")

	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	if a == b {
		t.Fatal("two tokens for the same user should not be identical")
	}
}
