package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/studentworks/freelancer-service/internal/auth"
)

type contextKey struct{}

var claimsKey contextKey

// ClaimsFromContext extracts the verified token claims stored by
// AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// AuthMiddleware rejects requests without a valid Bearer token and stores the
// verified claims in the request context.
func AuthMiddleware(issuer *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header {
				unauthorized(w, "Access denied. No token provided.")
				return
			}

			claims, err := issuer.Verify(token)
			if err != nil {
				unauthorized(w, "Invalid token.")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
