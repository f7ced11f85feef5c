package security

import (
	"errors"
	"testing"
	"time"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	now := time.Now()
	token, err := IssueSessionToken("secret", time.Hour, "42", "a@example.com", "credentials", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := ParseSessionToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "42" || claims.Email != "a@example.com" || claims.Provider != "credentials" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestSessionToken_RejectsWrongSecretAndExpired(t *testing.T) {
	token, err := IssueSessionToken("secret", time.Hour, "42", "a@example.com", "", time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errParse := ParseSessionToken("other", token); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", errParse)
	}

	expired, err := IssueSessionToken("secret", time.Minute, "42", "a@example.com", "", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	if _, errParse := ParseSessionToken("secret", expired); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", errParse)
	}
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "hunter22") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "hunter23") {
		t.Fatalf("expected wrong password to fail")
	}
	if CheckPassword("", "hunter22") {
		t.Fatalf("expected empty hash to fail")
	}
}
