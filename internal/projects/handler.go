package projects

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler manages project endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	gate     *abac.Gate
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *abac.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, validate: validator.New()}
}

// MountRoutes registers project routes behind the access-control gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.gate.Guard(abac.ResourceProjects, abac.ActionView)).Get("/", h.list)
	r.With(h.gate.Guard(abac.ResourceProjects, abac.ActionCreate)).Post("/", h.create)
	r.With(h.gate.Guard(abac.ResourceProjects, abac.ActionView)).Get("/{id}", h.get)
	r.With(h.gate.Guard(abac.ResourceProjects, abac.ActionUpdate)).Put("/{id}", h.update)
	r.With(h.gate.Guard(abac.ResourceProjects, abac.ActionDelete)).Delete("/{id}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := abac.PrincipalFromContext(r.Context())
	views, err := h.service.List(r.Context(), p)
	if err != nil {
		h.logger.Error("list projects", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"data": views})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, _ := abac.PrincipalFromContext(r.Context())
	view, err := h.service.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, view)
}

type createRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	ClientID    string     `json:"client_id"`
	ClientName  string     `json:"client_name"`
	ManagerID   string     `json:"manager_id"`
	ManagerName string     `json:"manager_name"`
	TeamMembers []string   `json:"team_members"`
	Status      string     `json:"status"`
	ServiceType string     `json:"service_type" validate:"required,oneof=INTERIOR ARCHITECTURE RENOVATION CONSULTATION"`
	Location    Location   `json:"location"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	BudgetTotal float64    `json:"budget_total" validate:"gte=0"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, _ := abac.PrincipalFromContext(r.Context())
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	view, err := h.service.Create(r.Context(), p, CreateInput{
		Name:        req.Name,
		Description: req.Description,
		ClientID:    req.ClientID,
		ClientName:  req.ClientName,
		ManagerID:   req.ManagerID,
		ManagerName: req.ManagerName,
		TeamMembers: req.TeamMembers,
		Status:      req.Status,
		ServiceType: req.ServiceType,
		Location:    req.Location,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		BudgetTotal: req.BudgetTotal,
	})
	if err != nil {
		h.logger.Error("create project", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, view)
}

type updateRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	ManagerID   *string    `json:"manager_id"`
	ManagerName *string    `json:"manager_name"`
	TeamMembers []string   `json:"team_members"`
	Status      *string    `json:"status"`
	Progress    *int       `json:"progress"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	BudgetTotal *float64   `json:"budget_total"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, _ := abac.PrincipalFromContext(r.Context())
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}

	view, err := h.service.Update(r.Context(), p, chi.URLParam(r, "id"), UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		ManagerID:   req.ManagerID,
		ManagerName: req.ManagerName,
		TeamMembers: req.TeamMembers,
		Status:      req.Status,
		Progress:    req.Progress,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		BudgetTotal: req.BudgetTotal,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, view)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
