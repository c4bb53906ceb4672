package auth

import (
	"testing"
	"time"

	"github.com/erazemk/auberge/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"
	sid := NewSessionID()

	token, err := GenerateToken(secret, sid, "chef@auberge.fr", "Chef", model.RoleStaff)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.SessionID() != sid {
		t.Errorf("expected session %q, got %q", sid, claims.SessionID())
	}
	if claims.Email != "chef@auberge.fr" {
		t.Errorf("expected email, got %q", claims.Email)
	}
	if claims.Role != model.RoleStaff {
		t.Errorf("expected role 'staff', got %q", claims.Role)
	}
}

func TestGenerateTokenRequiresSession(t *testing.T) {
	if _, err := GenerateToken("s", "", "a@b.c", "", model.RoleAdmin); err == nil {
		t.Error("expected error without session id")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", NewSessionID(), "a@b.c", "", model.RoleAdmin)

	_, err := ValidateToken("secret2", token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, _ := GenerateToken(secret, NewSessionID(), "a@b.c", "", model.RoleStaff)
	claims, _ := ValidateToken(secret, token)

	expiresAt := claims.ExpiresAt.Time
	expectedExpiry := time.Now().Add(TokenExpiry)

	diff := expectedExpiry.Sub(expiresAt)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
