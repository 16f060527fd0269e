package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

type stubRepo struct {
	offerings  []Offering
	materials  []Material
	portfolios []Portfolio
	questions  []QuizQuestion
	settings   CalculatorSettings

	serviceReads  int
	materialReads int
	settingsReads int
}

func (s *stubRepo) ListServices(ctx context.Context, shownOnly bool) ([]Offering, error) {
	s.serviceReads++
	if !shownOnly {
		return s.offerings, nil
	}
	var out []Offering
	for _, o := range s.offerings {
		if o.IsShown {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubRepo) FindService(ctx context.Context, id string) (*Offering, error) {
	for _, o := range s.offerings {
		if o.ID == id {
			copied := o
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) CreateService(ctx context.Context, o Offering) (*Offering, error) {
	s.offerings = append(s.offerings, o)
	return &o, nil
}

func (s *stubRepo) UpdateService(ctx context.Context, o Offering) (*Offering, error) {
	for i, row := range s.offerings {
		if row.ID == o.ID {
			s.offerings[i] = o
			return &o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) DeleteService(ctx context.Context, id string) error {
	for i, row := range s.offerings {
		if row.ID == id {
			s.offerings = append(s.offerings[:i], s.offerings[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (s *stubRepo) ListMaterials(ctx context.Context) ([]Material, error) {
	s.materialReads++
	return s.materials, nil
}

func (s *stubRepo) FindMaterial(ctx context.Context, id string) (*Material, error) {
	for _, m := range s.materials {
		if m.ID == id {
			copied := m
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) CreateMaterial(ctx context.Context, m Material) (*Material, error) {
	s.materials = append(s.materials, m)
	return &m, nil
}

func (s *stubRepo) UpdateMaterial(ctx context.Context, m Material) (*Material, error) {
	for i, row := range s.materials {
		if row.ID == m.ID {
			s.materials[i] = m
			return &m, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) DeleteMaterial(ctx context.Context, id string) error { return nil }

func (s *stubRepo) ListPortfolios(ctx context.Context) ([]Portfolio, error) {
	return s.portfolios, nil
}

func (s *stubRepo) FindPortfolio(ctx context.Context, id string) (*Portfolio, error) {
	for _, p := range s.portfolios {
		if p.ID == id {
			copied := p
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) CreatePortfolio(ctx context.Context, p Portfolio) (*Portfolio, error) {
	s.portfolios = append(s.portfolios, p)
	return &p, nil
}

func (s *stubRepo) UpdatePortfolio(ctx context.Context, p Portfolio) (*Portfolio, error) {
	return &p, nil
}

func (s *stubRepo) DeletePortfolio(ctx context.Context, id string) error { return nil }

func (s *stubRepo) ListQuestions(ctx context.Context) ([]QuizQuestion, error) {
	return s.questions, nil
}

func (s *stubRepo) FindQuestion(ctx context.Context, id string) (*QuizQuestion, error) {
	for _, q := range s.questions {
		if q.ID == id {
			copied := q
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) CreateQuestion(ctx context.Context, q QuizQuestion) (*QuizQuestion, error) {
	s.questions = append(s.questions, q)
	return &q, nil
}

func (s *stubRepo) UpdateQuestion(ctx context.Context, q QuizQuestion) (*QuizQuestion, error) {
	return &q, nil
}

func (s *stubRepo) DeleteQuestion(ctx context.Context, id string) error { return nil }

func (s *stubRepo) Settings(ctx context.Context) (*CalculatorSettings, error) {
	s.settingsReads++
	if s.settings.ID == "" {
		s.settings = DefaultSettings()
	}
	copied := s.settings
	return &copied, nil
}

func (s *stubRepo) UpdateSettings(ctx context.Context, c CalculatorSettings) (*CalculatorSettings, error) {
	c.ID = SettingsID
	s.settings = c
	return &c, nil
}

func testService(t *testing.T, repo *stubRepo) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPublicServicesReadThroughCache(t *testing.T) {
	repo := &stubRepo{offerings: []Offering{
		{ID: "SVC-1", Title: "Interior Design", IsShown: true},
		{ID: "SVC-2", Title: "Draft Package", IsShown: false},
	}}
	svc := testService(t, repo)
	ctx := context.Background()

	first, err := svc.ListServices(ctx, true)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, repo.serviceReads)

	// Second public read is served from redis.
	second, err := svc.ListServices(ctx, true)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, 1, repo.serviceReads)

	// The admin view bypasses the cache and sees hidden rows.
	all, err := svc.ListServices(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, 2, repo.serviceReads)
}

func TestWritesInvalidateServiceCache(t *testing.T) {
	repo := &stubRepo{offerings: []Offering{{ID: "SVC-1", Title: "Interior Design", IsShown: true}}}
	svc := testService(t, repo)
	ctx := context.Background()

	_, err := svc.ListServices(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 1, repo.serviceReads)

	_, err = svc.CreateService(ctx, ServiceInput{
		Title: "Renovation", Category: "CONSTRUCTION", Price: "from 25jt", Description: "Full renovation", IsShown: true,
	})
	require.NoError(t, err)

	refreshed, err := svc.ListServices(ctx, true)
	require.NoError(t, err)
	require.Len(t, refreshed, 2)
	require.Equal(t, 2, repo.serviceReads)
}

func TestCatalogWorksWithoutRedis(t *testing.T) {
	repo := &stubRepo{materials: []Material{{ID: "MAT-1", Name: "Teak", PriceMultiplier: 1.5, Unit: "m2"}}}
	svc := NewService(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	for range 3 {
		materials, err := svc.ListMaterials(ctx)
		require.NoError(t, err)
		require.Len(t, materials, 1)
	}
	require.Equal(t, 3, repo.materialReads)
}

func TestPriceEstimate(t *testing.T) {
	repo := &stubRepo{
		settings:  CalculatorSettings{ID: SettingsID, BasePrice: 1_000_000, AreaMultiplier: 1.2, FloorMultiplier: 1.1},
		materials: []Material{{ID: "MAT-1", Name: "Teak", PriceMultiplier: 1.5, Unit: "m2"}},
	}
	svc := testService(t, repo)
	ctx := context.Background()

	est, err := svc.PriceEstimate(ctx, EstimateInput{Area: 50, Floors: 2, MaterialID: "MAT-1"})
	require.NoError(t, err)
	require.InDelta(t, 1_000_000*50*1.2*2*1.1*1.5, est.Total, 0.01)
	require.Equal(t, 1.5, est.MaterialMultiplier)

	// Without a material the multiplier defaults to one.
	plain, err := svc.PriceEstimate(ctx, EstimateInput{Area: 50, Floors: 2})
	require.NoError(t, err)
	require.InDelta(t, 1_000_000*50*1.2*2*1.1, plain.Total, 0.01)

	_, err = svc.PriceEstimate(ctx, EstimateInput{Area: 0, Floors: 2})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.PriceEstimate(ctx, EstimateInput{Area: 50, Floors: 1, MaterialID: "MAT-404"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateSettingsValidatesAndInvalidates(t *testing.T) {
	repo := &stubRepo{settings: CalculatorSettings{ID: SettingsID, BasePrice: 500_000, AreaMultiplier: 1, FloorMultiplier: 1}}
	svc := testService(t, repo)
	ctx := context.Background()

	cached, err := svc.Settings(ctx)
	require.NoError(t, err)
	require.Equal(t, 500_000.0, cached.BasePrice)
	reads := repo.settingsReads

	bad := -1.0
	_, err = svc.UpdateSettings(ctx, SettingsInput{BasePrice: &bad})
	require.ErrorIs(t, err, shared.ErrValidation)

	price := 750_000.0
	updated, err := svc.UpdateSettings(ctx, SettingsInput{BasePrice: &price})
	require.NoError(t, err)
	require.Equal(t, 750_000.0, updated.BasePrice)
	require.Equal(t, 1.0, updated.AreaMultiplier)

	fresh, err := svc.Settings(ctx)
	require.NoError(t, err)
	require.Equal(t, 750_000.0, fresh.BasePrice)
	require.Greater(t, repo.settingsReads, reads)
}

func TestQuestionStyleValidation(t *testing.T) {
	repo := &stubRepo{}
	svc := testService(t, repo)
	ctx := context.Background()

	_, err := svc.CreateQuestion(ctx, QuestionInput{Text: "Pick a living room", RelatedStyle: "BAROQUE"})
	require.ErrorIs(t, err, shared.ErrValidation)

	created, err := svc.CreateQuestion(ctx, QuestionInput{Text: "Pick a living room", RelatedStyle: StyleScandinavian})
	require.NoError(t, err)
	require.Contains(t, created.ID, "QUIZ-")
	require.Equal(t, StyleScandinavian, created.RelatedStyle)
}
