package tasks

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// Handler manages task endpoints.
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

// MountRoutes registers task routes behind the access-control gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.gate.Guard(abac.ResourceTasks, abac.ActionView)).Get("/", h.list)
	r.With(h.gate.Guard(abac.ResourceTasks, abac.ActionCreate)).Post("/", h.create)
	r.With(h.gate.Guard(abac.ResourceTasks, abac.ActionView)).Get("/{id}", h.get)
	r.With(h.gate.Guard(abac.ResourceTasks, abac.ActionUpdate)).Put("/{id}", h.update)
	r.With(h.gate.Guard(abac.ResourceTasks, abac.ActionDelete)).Delete("/{id}", h.remove)
	r.With(h.gate.Guard(abac.ResourceTasks, abac.ActionApprove)).Post("/{id}/approve", h.approve)
	r.With(h.gate.Guard(abac.ResourceTasks, abac.ActionApprove)).Post("/{id}/reject", h.reject)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := abac.PrincipalFromContext(r.Context())
	page := shared.ParsePageRequest(r.URL.Query())
	result, err := h.service.List(r.Context(), p, r.URL.Query().Get("project_id"), page)
	if err != nil {
		h.logger.Error("list tasks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, result)
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

type attachmentRequest struct {
	Type string `json:"type" validate:"required,oneof=FILE IMAGE LINK"`
	URL  string `json:"url" validate:"required"`
	Name string `json:"name"`
}

type createRequest struct {
	ProjectID        string              `json:"project_id" validate:"required"`
	Title            string              `json:"title" validate:"required"`
	Description      string              `json:"description"`
	AssignedTo       []string            `json:"assigned_to"`
	BudgetAllocation float64             `json:"budget_allocation" validate:"gte=0"`
	DueDate          *time.Time          `json:"due_date"`
	Status           string              `json:"status"`
	Attachments      []attachmentRequest `json:"attachments" validate:"dive"`
	IsPunchItem      bool                `json:"is_punch_item"`
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

	attachments := make([]Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, Attachment{Type: a.Type, URL: a.URL, Name: a.Name})
	}

	view, err := h.service.Create(r.Context(), p, CreateInput{
		ProjectID:        req.ProjectID,
		Title:            req.Title,
		Description:      req.Description,
		AssignedTo:       req.AssignedTo,
		BudgetAllocation: req.BudgetAllocation,
		DueDate:          req.DueDate,
		Status:           req.Status,
		Attachments:      attachments,
		IsPunchItem:      req.IsPunchItem,
	})
	if err != nil {
		h.logger.Error("create task", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, view)
}

type updateRequest struct {
	Title            *string             `json:"title"`
	Description      *string             `json:"description"`
	AssignedTo       []string            `json:"assigned_to"`
	BudgetAllocation *float64            `json:"budget_allocation"`
	DueDate          *time.Time          `json:"due_date"`
	Status           *string             `json:"status"`
	Attachments      []attachmentRequest `json:"attachments" validate:"dive"`
	IsPunchItem      *bool               `json:"is_punch_item"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, _ := abac.PrincipalFromContext(r.Context())
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	var attachments []Attachment
	if req.Attachments != nil {
		attachments = make([]Attachment, 0, len(req.Attachments))
		for _, a := range req.Attachments {
			attachments = append(attachments, Attachment{Type: a.Type, URL: a.URL, Name: a.Name})
		}
	}

	view, err := h.service.Update(r.Context(), p, chi.URLParam(r, "id"), UpdateInput{
		Title:            req.Title,
		Description:      req.Description,
		AssignedTo:       req.AssignedTo,
		BudgetAllocation: req.BudgetAllocation,
		DueDate:          req.DueDate,
		Status:           req.Status,
		Attachments:      attachments,
		IsPunchItem:      req.IsPunchItem,
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

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	p, _ := abac.PrincipalFromContext(r.Context())
	view, err := h.service.Review(r.Context(), p, chi.URLParam(r, "id"), true, "")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, view)
}

type rejectRequest struct {
	Note string `json:"note" validate:"required"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	p, _ := abac.PrincipalFromContext(r.Context())
	var req rejectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	view, err := h.service.Review(r.Context(), p, chi.URLParam(r, "id"), false, req.Note)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, view)
}
