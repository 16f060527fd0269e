package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atelier-erp/atelier-erp/internal/auth"
	"github.com/atelier-erp/atelier-erp/internal/catalog"
	"github.com/atelier-erp/atelier-erp/internal/expenses"
	"github.com/atelier-erp/atelier-erp/internal/observability"
	"github.com/atelier-erp/atelier-erp/internal/projects"
	"github.com/atelier-erp/atelier-erp/internal/schedules"
	"github.com/atelier-erp/atelier-erp/internal/tasks"
	"github.com/atelier-erp/atelier-erp/internal/timelogs"
	"github.com/atelier-erp/atelier-erp/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Tokens *auth.TokenIssuer

	AuthHandler      *auth.Handler
	ProjectsHandler  *projects.Handler
	TasksHandler     *tasks.Handler
	SchedulesHandler *schedules.Handler
	TimeLogsHandler  *timelogs.Handler
	ExpensesHandler  *expenses.Handler
	UsersHandler     *users.Handler
	CatalogHandler   *catalog.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router. The public catalog and the auth
// endpoints are open; everything else requires a bearer token and runs
// behind the per-route access gates.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	params.AuthHandler.MountRoutes(r)
	params.CatalogHandler.MountPublicRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(params.Tokens))

		params.AuthHandler.MountProtectedRoutes(r)
		r.Route("/projects", params.ProjectsHandler.MountRoutes)
		r.Route("/tasks", params.TasksHandler.MountRoutes)
		r.Route("/schedules", params.SchedulesHandler.MountRoutes)
		r.Route("/time-logs", params.TimeLogsHandler.MountRoutes)
		r.Route("/expenses", params.ExpensesHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/admin", params.CatalogHandler.MountAdminRoutes)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
