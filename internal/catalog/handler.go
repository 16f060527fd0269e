package catalog

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler manages the catalog endpoints. The read side is public; the
// write side sits behind the access-control gate.
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

// MountPublicRoutes registers the unauthenticated catalog reads and the
// price calculator.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/services", h.listServices)
	r.Get("/materials", h.listMaterials)
	r.Get("/portfolios", h.listPortfolios)
	r.Get("/quiz-questions", h.listQuestions)
	r.Get("/calculator/settings", h.settings)
	r.Post("/calculator/estimate", h.estimate)
}

// MountAdminRoutes registers the catalog management routes behind the
// access-control gate.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.With(h.gate.Guard(abac.ResourceServices, abac.ActionView)).Get("/services", h.listAllServices)
	r.With(h.gate.Guard(abac.ResourceServices, abac.ActionCreate)).Post("/services", h.createService)
	r.With(h.gate.Guard(abac.ResourceServices, abac.ActionUpdate)).Put("/services/{id}", h.updateService)
	r.With(h.gate.Guard(abac.ResourceServices, abac.ActionDelete)).Delete("/services/{id}", h.deleteService)

	r.With(h.gate.Guard(abac.ResourceMaterials, abac.ActionCreate)).Post("/materials", h.createMaterial)
	r.With(h.gate.Guard(abac.ResourceMaterials, abac.ActionUpdate)).Put("/materials/{id}", h.updateMaterial)
	r.With(h.gate.Guard(abac.ResourceMaterials, abac.ActionDelete)).Delete("/materials/{id}", h.deleteMaterial)

	r.With(h.gate.Guard(abac.ResourcePortfolios, abac.ActionCreate)).Post("/portfolios", h.createPortfolio)
	r.With(h.gate.Guard(abac.ResourcePortfolios, abac.ActionUpdate)).Put("/portfolios/{id}", h.updatePortfolio)
	r.With(h.gate.Guard(abac.ResourcePortfolios, abac.ActionDelete)).Delete("/portfolios/{id}", h.deletePortfolio)

	r.With(h.gate.Guard(abac.ResourceQuizQuestions, abac.ActionCreate)).Post("/quiz-questions", h.createQuestion)
	r.With(h.gate.Guard(abac.ResourceQuizQuestions, abac.ActionUpdate)).Put("/quiz-questions/{id}", h.updateQuestion)
	r.With(h.gate.Guard(abac.ResourceQuizQuestions, abac.ActionDelete)).Delete("/quiz-questions/{id}", h.deleteQuestion)

	r.With(h.gate.Guard(abac.ResourceCalculatorSettings, abac.ActionUpdate)).Put("/calculator/settings", h.updateSettings)
}

// --- services ---

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context(), true)
	if err != nil {
		h.logger.Error("list services", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"data": services})
}

func (h *Handler) listAllServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context(), false)
	if err != nil {
		h.logger.Error("list services", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"data": services})
}

type serviceRequest struct {
	Title       string   `json:"title" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Price       string   `json:"price" validate:"required"`
	Image       string   `json:"image"`
	Description string   `json:"description" validate:"required"`
	Features    []string `json:"features"`
	IsPopular   bool     `json:"is_popular"`
	IsShown     bool     `json:"is_shown"`
}

func (h *Handler) createService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateService(r.Context(), ServiceInput(req))
	if err != nil {
		h.logger.Error("create service", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, created)
}

func (h *Handler) updateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.UpdateService(r.Context(), chi.URLParam(r, "id"), ServiceInput(req))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, updated)
}

func (h *Handler) deleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteService(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

// --- materials ---

func (h *Handler) listMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.service.ListMaterials(r.Context())
	if err != nil {
		h.logger.Error("list materials", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"data": materials})
}

type materialRequest struct {
	Name            string  `json:"name" validate:"required"`
	PriceMultiplier float64 `json:"price_multiplier" validate:"required,gt=0"`
	Unit            string  `json:"unit"`
}

func (h *Handler) createMaterial(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateMaterial(r.Context(), MaterialInput(req))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, created)
}

func (h *Handler) updateMaterial(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.UpdateMaterial(r.Context(), chi.URLParam(r, "id"), MaterialInput(req))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, updated)
}

func (h *Handler) deleteMaterial(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMaterial(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

// --- portfolios ---

func (h *Handler) listPortfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.service.ListPortfolios(r.Context())
	if err != nil {
		h.logger.Error("list portfolios", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"data": portfolios})
}

type portfolioRequest struct {
	DisplayName string    `json:"display_name" validate:"required"`
	Category    string    `json:"category" validate:"required"`
	Description string    `json:"description" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	PhotoURL    string    `json:"photo_url" validate:"required,url"`
}

func (h *Handler) createPortfolio(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreatePortfolio(r.Context(), PortfolioInput(req))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, created)
}

func (h *Handler) updatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.UpdatePortfolio(r.Context(), chi.URLParam(r, "id"), PortfolioInput(req))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, updated)
}

func (h *Handler) deletePortfolio(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePortfolio(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

// --- quiz questions ---

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.ListQuestions(r.Context())
	if err != nil {
		h.logger.Error("list quiz questions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"data": questions})
}

type questionRequest struct {
	Text         string `json:"text" validate:"required"`
	ImageURL     string `json:"image_url"`
	RelatedStyle string `json:"related_style" validate:"required,oneof=MODERN MINIMALIST INDUSTRIAL SCANDINAVIAN CLASSIC BOHEMIAN"`
}

func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.CreateQuestion(r.Context(), QuestionInput(req))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, created)
}

func (h *Handler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.UpdateQuestion(r.Context(), chi.URLParam(r, "id"), QuestionInput(req))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, updated)
}

func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuestion(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

// --- calculator ---

func (h *Handler) settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Settings(r.Context())
	if err != nil {
		h.logger.Error("calculator settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, settings)
}

type settingsRequest struct {
	BasePrice       *float64 `json:"base_price"`
	AreaMultiplier  *float64 `json:"area_multiplier"`
	FloorMultiplier *float64 `json:"floor_multiplier"`
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	updated, err := h.service.UpdateSettings(r.Context(), SettingsInput(req))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, updated)
}

type estimateRequest struct {
	Area       float64 `json:"area" validate:"required,gt=0"`
	Floors     int     `json:"floors" validate:"required,gt=0"`
	MaterialID string  `json:"material_id"`
}

func (h *Handler) estimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.PriceEstimate(r.Context(), EstimateInput(req))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, result)
}
