package auth

import (
	"net/http"
	"strings"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// RequireAuth decodes the bearer token and places the principal in the
// request context. Requests without a valid token are rejected before any
// policy evaluation runs.
func RequireAuth(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthenticated", "missing bearer token")
				return
			}
			principal, err := tokens.Verify(raw)
			if err != nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthenticated", "invalid or expired token")
				return
			}
			ctx := abac.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
