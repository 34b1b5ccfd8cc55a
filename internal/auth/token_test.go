package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer("super-secret")

	tok, err := issuer.Issue(42, "a@b.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("userID mismatch: got %d want 42", claims.UserID)
	}
	if claims.Email != "a@b.com" {
		t.Fatalf("email mismatch: got %q want %q", claims.Email, "a@b.com")
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	secret := "secret"
	issuer := NewIssuer(secret)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		UserID: 1,
		Email:  "x@y.com",
	})
	tok, err := expired.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	if _, err := issuer.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewIssuer("right-secret").Issue(7, "u@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := NewIssuer("wrong-secret").Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerify_MalformedString(t *testing.T) {
	t.Parallel()

	if _, err := NewIssuer("k").Verify("not.a.jwt"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for malformed token, got %v", err)
	}
}
