package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that are malformed, expired, or
// signed with a different secret.
var ErrInvalidToken = errors.New("invalid token")

// TokenTTL is how long an issued token stays valid. There is no revocation;
// logout is client-side token deletion, so a leaked token remains usable
// until expiry.
const TokenTTL = 24 * time.Hour

// Claims carries the identity assertion embedded in issued tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// Issuer signs and verifies identity tokens.
type Issuer struct {
	secret []byte
}

// NewIssuer creates an issuer using the given HMAC signing secret.
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// Issue produces a signed token asserting the user's id and email.
func (i *Issuer) Issue(userID int64, email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		UserID: userID,
		Email:  email,
	})
	return token.SignedString(i.secret)
}

// Verify parses and validates a token, returning its claims.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
