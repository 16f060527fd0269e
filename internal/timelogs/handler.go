package timelogs

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

// Handler manages time log endpoints.
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

// MountRoutes registers time log routes behind the access-control gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.gate.Guard(abac.ResourceTimeLogs, abac.ActionView)).Get("/", h.list)
	r.With(h.gate.Guard(abac.ResourceTimeLogs, abac.ActionCreate)).Post("/", h.create)
	r.With(h.gate.Guard(abac.ResourceTimeLogs, abac.ActionView)).Get("/{id}", h.get)
	r.With(h.gate.Guard(abac.ResourceTimeLogs, abac.ActionUpdate)).Put("/{id}", h.update)
	r.With(h.gate.Guard(abac.ResourceTimeLogs, abac.ActionDelete)).Delete("/{id}", h.remove)
	r.With(h.gate.Guard(abac.ResourceTimeLogs, abac.ActionApprove)).Post("/{id}/approve", h.approve)
	r.With(h.gate.Guard(abac.ResourceTimeLogs, abac.ActionApprove)).Post("/{id}/reject", h.reject)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := abac.PrincipalFromContext(r.Context())
	q := r.URL.Query()
	result, err := h.service.List(r.Context(), p, ListQuery{
		ProjectID: q.Get("project_id"),
		Status:    q.Get("status"),
		UserID:    q.Get("user_id"),
		Page:      shared.ParsePageRequest(q),
	})
	if err != nil {
		h.logger.Error("list time logs", slog.Any("error", err))
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

type createRequest struct {
	ProjectID   string    `json:"project_id" validate:"required"`
	TaskID      string    `json:"task_id"`
	StartAt     time.Time `json:"start_at" validate:"required"`
	EndAt       time.Time `json:"end_at" validate:"required"`
	Description string    `json:"description"`
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
		TaskID:      req.TaskID,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Description: req.Description,
	})
	if err != nil {
		h.logger.Error("create time log", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, view)
}

type updateRequest struct {
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	Description *string    `json:"description"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, _ := abac.PrincipalFromContext(r.Context())
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}

	view, err := h.service.Update(r.Context(), p, chi.URLParam(r, "id"), UpdateInput{
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Description: req.Description,
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
