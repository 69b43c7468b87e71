package utils

import "testing"

func TestJwtRoundTrip(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	t.Setenv("TOKEN_HOUR_LIFESPAN", "2")

	token, err := JwtGenerate(42, "O", "biz-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := JwtClaims(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.ID != 42 || claims.Role != "O" || claims.BusinessId != "biz-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	t.Setenv("API_SECRET", "other-secret")
	if _, err := JwtClaims(token); err == nil {
		t.Fatalf("expected signature mismatch to fail")
	}
}

func TestJwtGenerateRejectsBadLifespan(t *testing.T) {
	t.Setenv("TOKEN_HOUR_LIFESPAN", "forever")
	if _, err := JwtGenerate(1, "A", ""); err == nil {
		t.Fatalf("expected error for non-numeric lifespan")
	}
}
