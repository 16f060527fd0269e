package schedules

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler manages schedule endpoints.
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

// MountRoutes registers schedule routes behind the access-control gate.
// Booking is a create on schedules: the project it opens belongs to the
// requesting client by construction.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.gate.Guard(abac.ResourceSchedules, abac.ActionView)).Get("/", h.list)
	r.With(h.gate.Guard(abac.ResourceSchedules, abac.ActionCreate)).Post("/", h.create)
	r.With(h.gate.Guard(abac.ResourceSchedules, abac.ActionCreate)).Post("/book", h.book)
	r.With(h.gate.Guard(abac.ResourceSchedules, abac.ActionView)).Get("/{id}", h.get)
	r.With(h.gate.Guard(abac.ResourceSchedules, abac.ActionUpdate)).Put("/{id}", h.update)
	r.With(h.gate.Guard(abac.ResourceSchedules, abac.ActionDelete)).Delete("/{id}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := abac.PrincipalFromContext(r.Context())
	views, err := h.service.List(r.Context(), p)
	if err != nil {
		h.logger.Error("list schedules", slog.Any("error", err))
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
	ProjectID   string    `json:"project_id" validate:"required"`
	ClientID    string    `json:"client_id"`
	ManagerID   string    `json:"manager_id"`
	Date        time.Time `json:"date" validate:"required"`
	Time        string    `json:"time" validate:"required"`
	Event       string    `json:"event" validate:"required"`
	Description string    `json:"description"`
	IsOnline    bool      `json:"is_online"`
	Location    string    `json:"location"`
	Link        string    `json:"link"`
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
		ProjectID:   req.ProjectID,
		ClientID:    req.ClientID,
		ManagerID:   req.ManagerID,
		Date:        req.Date,
		Time:        req.Time,
		Event:       req.Event,
		Description: req.Description,
		IsOnline:    req.IsOnline,
		Location:    req.Location,
		Link:        req.Link,
	})
	if err != nil {
		h.logger.Error("create schedule", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, view)
}

type bookRequest struct {
	ServiceType        string    `json:"service_type" validate:"required"`
	ClientName         string    `json:"client_name"`
	ProjectDescription string    `json:"project_description"`
	Date               time.Time `json:"date" validate:"required"`
	Time               string    `json:"time" validate:"required"`
	Event              string    `json:"event"`
	Description        string    `json:"description"`
	IsOnline           bool      `json:"is_online"`
	Location           string    `json:"location"`
	Link               string    `json:"link"`
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	p, _ := abac.PrincipalFromContext(r.Context())
	var req bookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	view, err := h.service.Book(r.Context(), p, BookInput{
		ServiceType:        req.ServiceType,
		ClientName:         req.ClientName,
		ProjectDescription: req.ProjectDescription,
		Date:               req.Date,
		Time:               req.Time,
		Event:              req.Event,
		Description:        req.Description,
		IsOnline:           req.IsOnline,
		Location:           req.Location,
		Link:               req.Link,
	})
	if err != nil {
		h.logger.Error("book consultation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, view)
}

type updateRequest struct {
	Date        *time.Time `json:"date"`
	Time        *string    `json:"time"`
	Event       *string    `json:"event"`
	Description *string    `json:"description"`
	IsOnline    *bool      `json:"is_online"`
	Location    *string    `json:"location"`
	Link        *string    `json:"link"`
	Status      *string    `json:"status"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, _ := abac.PrincipalFromContext(r.Context())
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}

	view, err := h.service.Update(r.Context(), p, chi.URLParam(r, "id"), UpdateInput{
		Date:        req.Date,
		Time:        req.Time,
		Event:       req.Event,
		Description: req.Description,
		IsOnline:    req.IsOnline,
		Location:    req.Location,
		Link:        req.Link,
		Status:      req.Status,
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
