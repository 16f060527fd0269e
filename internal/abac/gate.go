package abac

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// maxPeekBytes bounds how much of a creation payload the gate reads while
// looking for a parent project id.
const maxPeekBytes = 1 << 20

// AuditFunc records an authorization decision out of band. Failures to
// audit never affect the decision itself.
type AuditFunc func(ctx context.Context, p Principal, resource Resource, action Action, targetID string, allowed bool)

// Gate composes the resolver and the policy table into a reusable
// endpoint guard.
type Gate struct {
	policies PolicyTable
	resolver *Resolver
	logger   *slog.Logger
	audit    AuditFunc
}

// NewGate builds a Gate. logger is required; audit is optional.
func NewGate(policies PolicyTable, resolver *Resolver, logger *slog.Logger, audit AuditFunc) *Gate {
	return &Gate{policies: policies, resolver: resolver, logger: logger, audit: audit}
}

// Evaluate exposes the raw evaluator for services that need a
// programmatic check without the HTTP guard.
func (g *Gate) Evaluate(p Principal, resource Resource, action Action, res *ResourceInstance) bool {
	return g.policies.Evaluate(p, resource, action, res)
}

// Guard returns middleware enforcing (resource, action) for the wrapped
// endpoint. The denial body stays generic; role, action, and resource go
// to the structured log and the audit trail only.
func (g *Gate) Guard(resource Resource, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthenticated", "")
				return
			}

			target := Target{ID: NormalizeID(chi.URLParam(r, "id"))}
			if target.ID == "" {
				target.ParentProjectID = g.peekParentProjectID(r)
			}

			res, err := g.resolver.Resolve(r.Context(), p, resource, target)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					httpx.Problem(w, http.StatusNotFound, "Not Found", "resource not found")
					return
				}
				g.logger.Error("abac resolve",
					slog.String("resource", string(resource)),
					slog.String("action", string(action)),
					slog.Any("error", err))
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}

			allowed := g.policies.Evaluate(p, resource, action, res)
			if g.audit != nil {
				g.audit(r.Context(), p, resource, action, target.ID, allowed)
			}
			if !allowed {
				g.logger.Warn("access denied",
					slog.String("user_id", p.ID),
					slog.String("role", string(p.Role)),
					slog.String("resource", string(resource)),
					slog.String("action", string(action)),
					slog.String("target_id", target.ID))
				httpx.Problem(w, http.StatusForbidden, "Access Denied", "")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithResource(r.Context(), res)))
		})
	}
}

type parentRef struct {
	ProjectID string `json:"project_id"`
}

// peekParentProjectID reads a project_id out of a JSON creation payload
// without consuming the body for the downstream handler. Payloads over
// the peek cap are handed through untouched and yield no parent id.
func (g *Gate) peekParentProjectID(r *http.Request) string {
	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes+1))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(data), r.Body))
	if err != nil || len(data) == 0 || len(data) > maxPeekBytes {
		return ""
	}
	var ref parentRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return ""
	}
	return NormalizeID(ref.ProjectID)
}
