package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestDecoder_Decode(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	raw := signToken(t, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})

	got, err := NewDecoder().Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.UserID != "u1" {
		t.Errorf("unexpected user: %s", got.UserID)
	}
	if !got.ExpiresAt.Equal(exp) {
		t.Errorf("unexpected expiry: %v vs %v", got.ExpiresAt, exp)
	}
}

func TestDecoder_MissingClaims(t *testing.T) {
	d := NewDecoder()

	noExp := signToken(t, jwt.MapClaims{"sub": "u1"})
	if _, err := d.Decode(noExp); err == nil {
		t.Error("expected error for token without exp")
	}

	noSub := signToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	if _, err := d.Decode(noSub); err == nil {
		t.Error("expected error for token without sub")
	}

	if _, err := d.Decode("not-a-jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}
