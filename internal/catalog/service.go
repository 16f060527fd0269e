package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort defines data access methods for the catalog.
type RepositoryPort interface {
	ListServices(ctx context.Context, shownOnly bool) ([]Offering, error)
	FindService(ctx context.Context, id string) (*Offering, error)
	CreateService(ctx context.Context, s Offering) (*Offering, error)
	UpdateService(ctx context.Context, s Offering) (*Offering, error)
	DeleteService(ctx context.Context, id string) error

	ListMaterials(ctx context.Context) ([]Material, error)
	FindMaterial(ctx context.Context, id string) (*Material, error)
	CreateMaterial(ctx context.Context, m Material) (*Material, error)
	UpdateMaterial(ctx context.Context, m Material) (*Material, error)
	DeleteMaterial(ctx context.Context, id string) error

	ListPortfolios(ctx context.Context) ([]Portfolio, error)
	FindPortfolio(ctx context.Context, id string) (*Portfolio, error)
	CreatePortfolio(ctx context.Context, p Portfolio) (*Portfolio, error)
	UpdatePortfolio(ctx context.Context, p Portfolio) (*Portfolio, error)
	DeletePortfolio(ctx context.Context, id string) error

	ListQuestions(ctx context.Context) ([]QuizQuestion, error)
	FindQuestion(ctx context.Context, id string) (*QuizQuestion, error)
	CreateQuestion(ctx context.Context, q QuizQuestion) (*QuizQuestion, error)
	UpdateQuestion(ctx context.Context, q QuizQuestion) (*QuizQuestion, error)
	DeleteQuestion(ctx context.Context, id string) error

	Settings(ctx context.Context) (*CalculatorSettings, error)
	UpdateSettings(ctx context.Context, c CalculatorSettings) (*CalculatorSettings, error)
}

// Service serves the public catalog (cached) and its admin management
// operations (write-through with cache invalidation).
type Service struct {
	repo  RepositoryPort
	cache *readCache
	now   func() time.Time
}

// NewService builds the catalog service. client may be nil; the catalog
// then reads straight from the repository.
func NewService(repo RepositoryPort, client *redis.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: newReadCache(client, logger), now: time.Now}
}

// --- services ---

// ListServices returns offerings. The public view (shownOnly) is served
// from cache.
func (s *Service) ListServices(ctx context.Context, shownOnly bool) ([]Offering, error) {
	if shownOnly {
		var cached []Offering
		if s.cache.get(ctx, cacheKeyServices, &cached) {
			return cached, nil
		}
	}
	services, err := s.repo.ListServices(ctx, shownOnly)
	if err != nil {
		return nil, err
	}
	if shownOnly {
		s.cache.set(ctx, cacheKeyServices, services)
	}
	return services, nil
}

// GetService returns one offering.
func (s *Service) GetService(ctx context.Context, id string) (*Offering, error) {
	return s.repo.FindService(ctx, id)
}

// ServiceInput carries an offering create or full update.
type ServiceInput struct {
	Title       string
	Category    string
	Price       string
	Image       string
	Description string
	Features    []string
	IsPopular   bool
	IsShown     bool
}

func (in ServiceInput) validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Category) == "" ||
		strings.TrimSpace(in.Price) == "" || strings.TrimSpace(in.Description) == "" {
		return shared.ErrValidation
	}
	return nil
}

// CreateService inserts an offering.
func (s *Service) CreateService(ctx context.Context, in ServiceInput) (*Offering, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	created, err := s.repo.CreateService(ctx, Offering{
		ID:          NewServiceID(s.now()),
		Title:       strings.TrimSpace(in.Title),
		Category:    in.Category,
		Price:       in.Price,
		Image:       in.Image,
		Description: in.Description,
		Features:    in.Features,
		IsPopular:   in.IsPopular,
		IsShown:     in.IsShown,
	})
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, cacheKeyServices)
	return created, nil
}

// UpdateService overwrites an offering.
func (s *Service) UpdateService(ctx context.Context, id string, in ServiceInput) (*Offering, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindService(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Title = strings.TrimSpace(in.Title)
	existing.Category = in.Category
	existing.Price = in.Price
	existing.Image = in.Image
	existing.Description = in.Description
	existing.Features = in.Features
	existing.IsPopular = in.IsPopular
	existing.IsShown = in.IsShown

	updated, err := s.repo.UpdateService(ctx, *existing)
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, cacheKeyServices)
	return updated, nil
}

// DeleteService removes an offering.
func (s *Service) DeleteService(ctx context.Context, id string) error {
	if err := s.repo.DeleteService(ctx, id); err != nil {
		return err
	}
	s.cache.invalidate(ctx, cacheKeyServices)
	return nil
}

// --- materials ---

// ListMaterials returns finish options from cache when warm.
func (s *Service) ListMaterials(ctx context.Context) ([]Material, error) {
	var cached []Material
	if s.cache.get(ctx, cacheKeyMaterials, &cached) {
		return cached, nil
	}
	materials, err := s.repo.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, cacheKeyMaterials, materials)
	return materials, nil
}

// MaterialInput carries a finish option create or full update.
type MaterialInput struct {
	Name            string
	PriceMultiplier float64
	Unit            string
}

// CreateMaterial inserts a finish option.
func (s *Service) CreateMaterial(ctx context.Context, in MaterialInput) (*Material, error) {
	if strings.TrimSpace(in.Name) == "" || in.PriceMultiplier <= 0 {
		return nil, shared.ErrValidation
	}
	unit := in.Unit
	if unit == "" {
		unit = "m2"
	}
	created, err := s.repo.CreateMaterial(ctx, Material{
		ID:              NewMaterialID(s.now()),
		Name:            strings.TrimSpace(in.Name),
		PriceMultiplier: in.PriceMultiplier,
		Unit:            unit,
	})
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, cacheKeyMaterials)
	return created, nil
}

// UpdateMaterial overwrites a finish option.
func (s *Service) UpdateMaterial(ctx context.Context, id string, in MaterialInput) (*Material, error) {
	if strings.TrimSpace(in.Name) == "" || in.PriceMultiplier <= 0 {
		return nil, shared.ErrValidation
	}
	existing, err := s.repo.FindMaterial(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Name = strings.TrimSpace(in.Name)
	existing.PriceMultiplier = in.PriceMultiplier
	if in.Unit != "" {
		existing.Unit = in.Unit
	}

	updated, err := s.repo.UpdateMaterial(ctx, *existing)
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, cacheKeyMaterials)
	return updated, nil
}

// DeleteMaterial removes a finish option.
func (s *Service) DeleteMaterial(ctx context.Context, id string) error {
	if err := s.repo.DeleteMaterial(ctx, id); err != nil {
		return err
	}
	s.cache.invalidate(ctx, cacheKeyMaterials)
	return nil
}

// --- portfolios ---

// ListPortfolios returns published projects from cache when warm.
func (s *Service) ListPortfolios(ctx context.Context) ([]Portfolio, error) {
	var cached []Portfolio
	if s.cache.get(ctx, cacheKeyPortfolios, &cached) {
		return cached, nil
	}
	portfolios, err := s.repo.ListPortfolios(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, cacheKeyPortfolios, portfolios)
	return portfolios, nil
}

// PortfolioInput carries a published project create or full update.
type PortfolioInput struct {
	DisplayName string
	Category    string
	Description string
	EndDate     time.Time
	PhotoURL    string
}

func (in PortfolioInput) validate() error {
	if strings.TrimSpace(in.DisplayName) == "" || strings.TrimSpace(in.Category) == "" ||
		strings.TrimSpace(in.Description) == "" || in.EndDate.IsZero() || strings.TrimSpace(in.PhotoURL) == "" {
		return shared.ErrValidation
	}
	return nil
}

// CreatePortfolio inserts a published project.
func (s *Service) CreatePortfolio(ctx context.Context, in PortfolioInput) (*Portfolio, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	created, err := s.repo.CreatePortfolio(ctx, Portfolio{
		ID:          NewPortfolioID(s.now()),
		DisplayName: strings.TrimSpace(in.DisplayName),
		Category:    in.Category,
		Description: in.Description,
		EndDate:     in.EndDate,
		PhotoURL:    in.PhotoURL,
	})
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, cacheKeyPortfolios)
	return created, nil
}

// UpdatePortfolio overwrites a published project.
func (s *Service) UpdatePortfolio(ctx context.Context, id string, in PortfolioInput) (*Portfolio, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindPortfolio(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.DisplayName = strings.TrimSpace(in.DisplayName)
	existing.Category = in.Category
	existing.Description = in.Description
	existing.EndDate = in.EndDate
	existing.PhotoURL = in.PhotoURL

	updated, err := s.repo.UpdatePortfolio(ctx, *existing)
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, cacheKeyPortfolios)
	return updated, nil
}

// DeletePortfolio removes a published project.
func (s *Service) DeletePortfolio(ctx context.Context, id string) error {
	if err := s.repo.DeletePortfolio(ctx, id); err != nil {
		return err
	}
	s.cache.invalidate(ctx, cacheKeyPortfolios)
	return nil
}

// --- quiz questions ---

// ListQuestions returns the style quiz from cache when warm.
func (s *Service) ListQuestions(ctx context.Context) ([]QuizQuestion, error) {
	var cached []QuizQuestion
	if s.cache.get(ctx, cacheKeyQuestions, &cached) {
		return cached, nil
	}
	questions, err := s.repo.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, cacheKeyQuestions, questions)
	return questions, nil
}

// QuestionInput carries a quiz question create or full update.
type QuestionInput struct {
	Text         string
	ImageURL     string
	RelatedStyle string
}

// CreateQuestion inserts a quiz question.
func (s *Service) CreateQuestion(ctx context.Context, in QuestionInput) (*QuizQuestion, error) {
	if strings.TrimSpace(in.Text) == "" || !ValidStyle(in.RelatedStyle) {
		return nil, shared.ErrValidation
	}
	created, err := s.repo.CreateQuestion(ctx, QuizQuestion{
		ID:           NewQuestionID(s.now()),
		Text:         strings.TrimSpace(in.Text),
		ImageURL:     in.ImageURL,
		RelatedStyle: in.RelatedStyle,
	})
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, cacheKeyQuestions)
	return created, nil
}

// UpdateQuestion overwrites a quiz question.
func (s *Service) UpdateQuestion(ctx context.Context, id string, in QuestionInput) (*QuizQuestion, error) {
	if strings.TrimSpace(in.Text) == "" || !ValidStyle(in.RelatedStyle) {
		return nil, shared.ErrValidation
	}
	existing, err := s.repo.FindQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Text = strings.TrimSpace(in.Text)
	existing.ImageURL = in.ImageURL
	existing.RelatedStyle = in.RelatedStyle

	updated, err := s.repo.UpdateQuestion(ctx, *existing)
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, cacheKeyQuestions)
	return updated, nil
}

// DeleteQuestion removes a quiz question.
func (s *Service) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.repo.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	s.cache.invalidate(ctx, cacheKeyQuestions)
	return nil
}

// --- calculator ---

// Settings returns the calculator coefficients from cache when warm.
func (s *Service) Settings(ctx context.Context) (*CalculatorSettings, error) {
	var cached CalculatorSettings
	if s.cache.get(ctx, cacheKeySettings, &cached) && cached.ID == SettingsID {
		return &cached, nil
	}
	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, cacheKeySettings, settings)
	return settings, nil
}

// SettingsInput carries a partial settings update; nil fields are left
// as-is.
type SettingsInput struct {
	BasePrice       *float64
	AreaMultiplier  *float64
	FloorMultiplier *float64
}

// UpdateSettings adjusts the singleton coefficients.
func (s *Service) UpdateSettings(ctx context.Context, in SettingsInput) (*CalculatorSettings, error) {
	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if in.BasePrice != nil {
		if *in.BasePrice < 0 {
			return nil, shared.ErrValidation
		}
		settings.BasePrice = *in.BasePrice
	}
	if in.AreaMultiplier != nil {
		if *in.AreaMultiplier <= 0 {
			return nil, shared.ErrValidation
		}
		settings.AreaMultiplier = *in.AreaMultiplier
	}
	if in.FloorMultiplier != nil {
		if *in.FloorMultiplier <= 0 {
			return nil, shared.ErrValidation
		}
		settings.FloorMultiplier = *in.FloorMultiplier
	}

	updated, err := s.repo.UpdateSettings(ctx, *settings)
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, cacheKeySettings)
	return updated, nil
}

// EstimateInput carries a price estimate request.
type EstimateInput struct {
	Area       float64
	Floors     int
	MaterialID string
}

// Estimate is the calculator output.
type Estimate struct {
	Total              float64 `json:"total"`
	BasePrice          float64 `json:"base_price"`
	Area               float64 `json:"area"`
	Floors             int     `json:"floors"`
	MaterialMultiplier float64 `json:"material_multiplier"`
}

// PriceEstimate computes an indicative project price from the singleton
// coefficients and an optional material choice.
func (s *Service) PriceEstimate(ctx context.Context, in EstimateInput) (*Estimate, error) {
	if in.Area <= 0 || in.Floors <= 0 {
		return nil, shared.ErrValidation
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	multiplier := 1.0
	if in.MaterialID != "" {
		material, err := s.repo.FindMaterial(ctx, in.MaterialID)
		if err != nil {
			return nil, err
		}
		multiplier = material.PriceMultiplier
	}

	return &Estimate{
		Total:              settings.Estimate(in.Area, in.Floors, multiplier),
		BasePrice:          settings.BasePrice,
		Area:               in.Area,
		Floors:             in.Floors,
		MaterialMultiplier: multiplier,
	}, nil
}
