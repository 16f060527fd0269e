package abac

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T, stores map[Resource]Store) *Gate {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGate(DefaultPolicies(), NewResolver(stores), logger, nil)
}

func serveGuarded(t *testing.T, gate *Gate, resource Resource, action Action, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guarded := gate.Guard(resource, action)(next)
	r.Get("/{id}", guarded.ServeHTTP)
	r.Get("/", guarded.ServeHTTP)
	r.Post("/", guarded.ServeHTTP)
	r.Put("/{id}", guarded.ServeHTTP)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	return res
}

func TestGuardRejectsUnauthenticated(t *testing.T) {
	gate := newTestGate(t, map[Resource]Store{})
	req := httptest.NewRequest(http.MethodGet, "/PROJ-1", nil)
	res := serveGuarded(t, gate, ResourceProjects, ActionView, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func withPrincipal(req *http.Request, p Principal) *http.Request {
	return req.WithContext(ContextWithPrincipal(req.Context(), p))
}

func TestGuardNotFoundBeforePermission(t *testing.T) {
	projects := &fakeStore{instances: map[string]*ResourceInstance{}}
	gate := newTestGate(t, map[Resource]Store{ResourceProjects: projects})

	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/PROJ-404", nil), Principal{ID: "c1", Role: RoleClient})
	res := serveGuarded(t, gate, ResourceProjects, ActionView, req)
	require.Equal(t, http.StatusNotFound, res.Code)
}

func TestGuardDeniesForeignProject(t *testing.T) {
	projects := &fakeStore{instances: map[string]*ResourceInstance{
		"PROJ-1": {ID: "PROJ-1", ClientID: "other"},
	}}
	gate := newTestGate(t, map[Resource]Store{ResourceProjects: projects})

	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/PROJ-1", nil), Principal{ID: "c1", Role: RoleClient})
	res := serveGuarded(t, gate, ResourceProjects, ActionView, req)
	require.Equal(t, http.StatusForbidden, res.Code)
	// The denial body must not name the ownership field that failed.
	require.NotContains(t, res.Body.String(), "client_id")
}

func TestGuardAllowsAndAttachesResource(t *testing.T) {
	projects := &fakeStore{instances: map[string]*ResourceInstance{
		"PROJ-1": {ID: "PROJ-1", ClientID: "c1"},
	}}
	gate := newTestGate(t, map[Resource]Store{ResourceProjects: projects})

	var attached *ResourceInstance
	r := chi.NewRouter()
	r.With(gate.Guard(ResourceProjects, ActionView)).Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		attached = ResourceFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/PROJ-1", nil), Principal{ID: "c1", Role: RoleClient})
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, attached)
	require.Equal(t, "PROJ-1", attached.ID)
	require.Equal(t, 1, projects.calls)
}

func TestGuardResolvesParentForCreation(t *testing.T) {
	projects := &fakeStore{instances: map[string]*ResourceInstance{
		"PROJ-9": {ID: "PROJ-9", ManagerID: "pm1"},
	}}
	gate := newTestGate(t, map[Resource]Store{ResourceProjects: projects})

	body := strings.NewReader(`{"project_id":"PROJ-9","title":"Install cabinets"}`)
	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/", body), Principal{ID: "pm1", Role: RoleProjectManager})
	res := serveGuarded(t, gate, ResourceTasks, ActionCreate, req)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestGuardPassesOversizedBodyThrough(t *testing.T) {
	gate := newTestGate(t, map[Resource]Store{})

	payload := `{"note":"` + strings.Repeat("x", maxPeekBytes) + `"}`
	var received int
	r := chi.NewRouter()
	r.With(gate.Guard(ResourceExpenses, ActionCreate)).Post("/", func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		received = len(data)
		w.WriteHeader(http.StatusOK)
	})

	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload)),
		Principal{ID: "pm1", Role: RoleProjectManager})
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	// The peek must not truncate what the handler decodes.
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, len(payload), received)
}

func TestGuardAuditsDecision(t *testing.T) {
	projects := &fakeStore{instances: map[string]*ResourceInstance{
		"PROJ-1": {ID: "PROJ-1", ClientID: "other"},
	}}
	var audited []bool
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := NewGate(DefaultPolicies(), NewResolver(map[Resource]Store{ResourceProjects: projects}), logger,
		func(ctx context.Context, p Principal, resource Resource, action Action, targetID string, allowed bool) {
			audited = append(audited, allowed)
		})

	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/PROJ-1", nil), Principal{ID: "c1", Role: RoleClient})
	res := serveGuarded(t, gate, ResourceProjects, ActionView, req)
	require.Equal(t, http.StatusForbidden, res.Code)
	require.Equal(t, []bool{false}, audited)
}
