package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/abac"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := User{ID: "USR-1", Email: "pm@example.com", Role: "project_manager"}

	raw, err := issuer.Issue(user, time.Now())
	require.NoError(t, err)

	principal, err := issuer.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "USR-1", principal.ID)
	require.Equal(t, "pm@example.com", principal.Email)
	require.Equal(t, abac.RoleProjectManager, principal.Role)
}

func TestTokenExpiryRejected(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := User{ID: "USR-1", Email: "pm@example.com", Role: "project_manager"}

	raw, err := issuer.Issue(user, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("different-secret", time.Hour)
	user := User{ID: "USR-1", Email: "pm@example.com", Role: "project_manager"}

	raw, err := issuer.Issue(user, time.Now())
	require.NoError(t, err)

	_, err = other.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenMissingSubjectRejected(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	raw, err := issuer.Issue(User{Email: "ghost@example.com", Role: "client"}, time.Now())
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireAuthPlacesPrincipal(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := User{ID: "USR-9", Email: "staff@example.com", Role: "staff"}
	raw, err := issuer.Issue(user, time.Now())
	require.NoError(t, err)

	var seen abac.Principal
	handler := RequireAuth(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = abac.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "USR-9", seen.ID)
	require.Equal(t, abac.RoleTeamMember, seen.Role)
}

func TestRequireAuthRejectsBadHeaders(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	handler := RequireAuth(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic dXNlcjpwYXNz",
		"malformed":    "Bearer",
		"garbage body": "Bearer not-a-jwt",
	} {
		req := httptest.NewRequest(http.MethodGet, "/projects", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}
