package auth

import (
	"strings"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Sup3r-secret!")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$12$") {
		t.Fatalf("expected cost 12 bcrypt hash, got %q", hash[:7])
	}

	if err := CheckPassword(hash, "Sup3r-secret!"); err != nil {
		t.Fatalf("expected password to match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"
	token, err := GenerateToken(secret, SessionClaims{SessionID: "s1", Kind: "staff"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if parsed.SessionID != "s1" || parsed.Kind != "staff" {
		t.Fatalf("claims mismatch: %+v", parsed)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, _ := GenerateToken("a", SessionClaims{SessionID: "s1"}, time.Hour)
	if _, err := ParseToken("b", token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, _ := GenerateToken("a", SessionClaims{SessionID: "s1"}, -time.Minute)
	if _, err := ParseToken("a", token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestParseTokenRequiresSessionID(t *testing.T) {
	token, _ := GenerateToken("a", SessionClaims{Kind: "staff"}, time.Hour)
	if _, err := ParseToken("a", token); err == nil {
		t.Fatal("expected error for token without session id")
	}
}

func TestOpaqueTokenHash(t *testing.T) {
	token, hash, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(token))
	}
	if HashToken(token) != hash || hash == token {
		t.Fatal("hash must be deterministic and differ from token")
	}
	other, _, _ := NewOpaqueToken()
	if other == token {
		t.Fatal("tokens must be random")
	}
}
