package utils

import (
	"strings"
	"testing"
)

func TestJwtGenerateValidateRoundTrip(t *testing.T) {
	token, err := JwtGenerate(42, "O")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token is not a JWT: %q", token)
	}

	parsed, err := JwtValidate(token)
	if err != nil {
		t.Fatalf("JwtValidate: %v", err)
	}
	if !parsed.Valid {
		t.Fatal("expected freshly minted token to be valid")
	}
	claims, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok {
		t.Fatalf("claims type = %T", parsed.Claims)
	}
	if claims.ID != 42 || claims.Role != "O" {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.ExpiresAt <= claims.IssuedAt {
		t.Fatalf("expiry %d not after issuance %d", claims.ExpiresAt, claims.IssuedAt)
	}
}

func TestJwtValidateRejectsTamperedToken(t *testing.T) {
	token, err := JwtGenerate(1, "A")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	tampered := token[:len(token)-2] + "xx"
	if _, err := JwtValidate(tampered); err == nil {
		t.Fatal("expected tampered token to fail validation")
	}
}

func TestJwtValidateRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if parsed, err := JwtValidate(token); err == nil && parsed.Valid {
			t.Fatalf("expected %q to be rejected", token)
		}
	}
}
