package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gatherly/gatherly/internal/models"
	pkghttp "github.com/gatherly/gatherly/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

// UserContextKey is the key for storing token claims in context
const UserContextKey contextKey = "user"

// Middleware validates bearer tokens and injects the claims into the request
// context. Every rejection uses the same 401 body regardless of cause.
func Middleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			claims, err := tm.Verify(parts[1])
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			// Reset tokens prove email ownership only; they never grant API access.
			if claims.Type == models.TokenTypeReset {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that rejects requests whose token does not
// carry the given role. Must run after Middleware.
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			for _, have := range claims.Roles {
				if have == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			pkghttp.WriteForbidden(w, "Access denied")
		})
	}
}

// ClaimsFromContext retrieves the validated token claims, or nil when the
// request did not pass through Middleware.
func ClaimsFromContext(ctx context.Context) *models.TokenClaims {
	claims, _ := ctx.Value(UserContextKey).(*models.TokenClaims)
	return claims
}
