package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studentworks/freelancer-service/internal/auth"
)

func protectedHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok, "claims must be present behind the middleware")
		assert.Equal(t, int64(42), claims.UserID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	issuer := auth.NewIssuer("secret")
	token, err := issuer.Issue(42, "a@b.com")
	require.NoError(t, err)

	handler := AuthMiddleware(issuer)(protectedHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	issuer := auth.NewIssuer("secret")
	handler := AuthMiddleware(issuer)(protectedHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "No token provided")
}

func TestAuthMiddleware_BadToken(t *testing.T) {
	issuer := auth.NewIssuer("secret")
	handler := AuthMiddleware(issuer)(protectedHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid token")
}

func TestAuthMiddleware_TokenFromOtherSecret(t *testing.T) {
	issuer := auth.NewIssuer("secret")
	otherToken, err := auth.NewIssuer("other-secret").Issue(42, "a@b.com")
	require.NoError(t, err)

	handler := AuthMiddleware(issuer)(protectedHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
