package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the catalog
// entities.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	return err
}

// --- services ---

const serviceColumns = `id, title, category, price, COALESCE(image, ''), description, features,
is_popular, is_shown, created_at, updated_at`

func scanOffering(row pgx.Row) (*Offering, error) {
	var s Offering
	err := row.Scan(&s.ID, &s.Title, &s.Category, &s.Price, &s.Image, &s.Description, &s.Features,
		&s.IsPopular, &s.IsShown, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// ListServices returns offerings; shownOnly restricts to published ones.
func (r *Repository) ListServices(ctx context.Context, shownOnly bool) ([]Offering, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if shownOnly {
		query += ` WHERE is_shown`
	}
	query += ` ORDER BY is_popular DESC, title ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []Offering
	for rows.Next() {
		s, err := scanOffering(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, *s)
	}
	return services, rows.Err()
}

// FindService returns one offering.
func (r *Repository) FindService(ctx context.Context, id string) (*Offering, error) {
	return scanOffering(r.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
}

// CreateService inserts an offering.
func (r *Repository) CreateService(ctx context.Context, s Offering) (*Offering, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO services (id, title, category, price, image, description, features, is_popular, is_shown)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
RETURNING `+serviceColumns,
		s.ID, s.Title, s.Category, s.Price, s.Image, s.Description, s.Features, s.IsPopular, s.IsShown)
	return scanOffering(row)
}

// UpdateService overwrites an offering.
func (r *Repository) UpdateService(ctx context.Context, s Offering) (*Offering, error) {
	row := r.pool.QueryRow(ctx, `UPDATE services SET title=$2, category=$3, price=$4, image=NULLIF($5, ''), description=$6,
features=$7, is_popular=$8, is_shown=$9, updated_at=NOW()
WHERE id=$1
RETURNING `+serviceColumns,
		s.ID, s.Title, s.Category, s.Price, s.Image, s.Description, s.Features, s.IsPopular, s.IsShown)
	return scanOffering(row)
}

// DeleteService removes an offering.
func (r *Repository) DeleteService(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "services", id)
}

// --- materials ---

const materialColumns = `id, name, price_multiplier, unit, created_at, updated_at`

func scanMaterial(row pgx.Row) (*Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.Name, &m.PriceMultiplier, &m.Unit, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// ListMaterials returns all finish options.
func (r *Repository) ListMaterials(ctx context.Context) ([]Material, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+materialColumns+` FROM materials ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, *m)
	}
	return materials, rows.Err()
}

// FindMaterial returns one finish option.
func (r *Repository) FindMaterial(ctx context.Context, id string) (*Material, error) {
	return scanMaterial(r.pool.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id))
}

// CreateMaterial inserts a finish option.
func (r *Repository) CreateMaterial(ctx context.Context, m Material) (*Material, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO materials (id, name, price_multiplier, unit)
VALUES ($1, $2, $3, $4)
RETURNING `+materialColumns, m.ID, m.Name, m.PriceMultiplier, m.Unit)
	return scanMaterial(row)
}

// UpdateMaterial overwrites a finish option.
func (r *Repository) UpdateMaterial(ctx context.Context, m Material) (*Material, error) {
	row := r.pool.QueryRow(ctx, `UPDATE materials SET name=$2, price_multiplier=$3, unit=$4, updated_at=NOW()
WHERE id=$1
RETURNING `+materialColumns, m.ID, m.Name, m.PriceMultiplier, m.Unit)
	return scanMaterial(row)
}

// DeleteMaterial removes a finish option.
func (r *Repository) DeleteMaterial(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "materials", id)
}

// --- portfolios ---

const portfolioColumns = `id, display_name, category, description, end_date, photo_url, created_at, updated_at`

func scanPortfolio(row pgx.Row) (*Portfolio, error) {
	var p Portfolio
	err := row.Scan(&p.ID, &p.DisplayName, &p.Category, &p.Description, &p.EndDate, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListPortfolios returns published past projects, newest first.
func (r *Repository) ListPortfolios(ctx context.Context) ([]Portfolio, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+portfolioColumns+` FROM portfolios ORDER BY end_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var portfolios []Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, *p)
	}
	return portfolios, rows.Err()
}

// FindPortfolio returns one published project.
func (r *Repository) FindPortfolio(ctx context.Context, id string) (*Portfolio, error) {
	return scanPortfolio(r.pool.QueryRow(ctx, `SELECT `+portfolioColumns+` FROM portfolios WHERE id = $1`, id))
}

// CreatePortfolio inserts a published project.
func (r *Repository) CreatePortfolio(ctx context.Context, p Portfolio) (*Portfolio, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO portfolios (id, display_name, category, description, end_date, photo_url)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+portfolioColumns, p.ID, p.DisplayName, p.Category, p.Description, p.EndDate, p.PhotoURL)
	return scanPortfolio(row)
}

// UpdatePortfolio overwrites a published project.
func (r *Repository) UpdatePortfolio(ctx context.Context, p Portfolio) (*Portfolio, error) {
	row := r.pool.QueryRow(ctx, `UPDATE portfolios SET display_name=$2, category=$3, description=$4, end_date=$5, photo_url=$6, updated_at=NOW()
WHERE id=$1
RETURNING `+portfolioColumns, p.ID, p.DisplayName, p.Category, p.Description, p.EndDate, p.PhotoURL)
	return scanPortfolio(row)
}

// DeletePortfolio removes a published project.
func (r *Repository) DeletePortfolio(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "portfolios", id)
}

// --- quiz questions ---

const questionColumns = `id, text, COALESCE(image_url, ''), related_style, created_at, updated_at`

func scanQuestion(row pgx.Row) (*QuizQuestion, error) {
	var q QuizQuestion
	err := row.Scan(&q.ID, &q.Text, &q.ImageURL, &q.RelatedStyle, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

// ListQuestions returns all style quiz questions.
func (r *Repository) ListQuestions(ctx context.Context) ([]QuizQuestion, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM quiz_questions ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []QuizQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// FindQuestion returns one quiz question.
func (r *Repository) FindQuestion(ctx context.Context, id string) (*QuizQuestion, error) {
	return scanQuestion(r.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM quiz_questions WHERE id = $1`, id))
}

// CreateQuestion inserts a quiz question.
func (r *Repository) CreateQuestion(ctx context.Context, q QuizQuestion) (*QuizQuestion, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO quiz_questions (id, text, image_url, related_style)
VALUES ($1, $2, NULLIF($3, ''), $4)
RETURNING `+questionColumns, q.ID, q.Text, q.ImageURL, q.RelatedStyle)
	return scanQuestion(row)
}

// UpdateQuestion overwrites a quiz question.
func (r *Repository) UpdateQuestion(ctx context.Context, q QuizQuestion) (*QuizQuestion, error) {
	row := r.pool.QueryRow(ctx, `UPDATE quiz_questions SET text=$2, image_url=NULLIF($3, ''), related_style=$4, updated_at=NOW()
WHERE id=$1
RETURNING `+questionColumns, q.ID, q.Text, q.ImageURL, q.RelatedStyle)
	return scanQuestion(row)
}

// DeleteQuestion removes a quiz question.
func (r *Repository) DeleteQuestion(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "quiz_questions", id)
}

// --- calculator settings (singleton) ---

// Settings returns the singleton row, creating it with defaults on first
// read.
func (r *Repository) Settings(ctx context.Context) (*CalculatorSettings, error) {
	var c CalculatorSettings
	err := r.pool.QueryRow(ctx, `SELECT id, base_price, area_multiplier, floor_multiplier, updated_at
FROM calculator_settings WHERE id = $1`, SettingsID).
		Scan(&c.ID, &c.BasePrice, &c.AreaMultiplier, &c.FloorMultiplier, &c.UpdatedAt)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	def := DefaultSettings()
	err = r.pool.QueryRow(ctx, `INSERT INTO calculator_settings (id, base_price, area_multiplier, floor_multiplier)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
RETURNING id, base_price, area_multiplier, floor_multiplier, updated_at`,
		def.ID, def.BasePrice, def.AreaMultiplier, def.FloorMultiplier).
		Scan(&c.ID, &c.BasePrice, &c.AreaMultiplier, &c.FloorMultiplier, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateSettings overwrites the singleton coefficients.
func (r *Repository) UpdateSettings(ctx context.Context, c CalculatorSettings) (*CalculatorSettings, error) {
	if _, err := r.Settings(ctx); err != nil {
		return nil, err
	}
	var out CalculatorSettings
	err := r.pool.QueryRow(ctx, `UPDATE calculator_settings SET base_price=$2, area_multiplier=$3, floor_multiplier=$4, updated_at=NOW()
WHERE id=$1
RETURNING id, base_price, area_multiplier, floor_multiplier, updated_at`,
		SettingsID, c.BasePrice, c.AreaMultiplier, c.FloorMultiplier).
		Scan(&out.ID, &out.BasePrice, &out.AreaMultiplier, &out.FloorMultiplier, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repository) deleteByID(ctx context.Context, table, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// instanceStore adapts one catalog table to the authorization store.
// Catalog rows have no ownership; only existence matters to the gate.
type instanceStore struct {
	pool  *pgxpool.Pool
	table string
}

func (s instanceStore) FindInstance(ctx context.Context, id string) (*abac.ResourceInstance, error) {
	var res abac.ResourceInstance
	err := s.pool.QueryRow(ctx, `SELECT id FROM `+s.table+` WHERE id = $1`, id).Scan(&res.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, abac.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

// Stores exposes the per-resource authorization stores backed by this
// repository.
func (r *Repository) Stores() map[abac.Resource]abac.Store {
	return map[abac.Resource]abac.Store{
		abac.ResourceServices:           instanceStore{pool: r.pool, table: "services"},
		abac.ResourceMaterials:          instanceStore{pool: r.pool, table: "materials"},
		abac.ResourcePortfolios:         instanceStore{pool: r.pool, table: "portfolios"},
		abac.ResourceQuizQuestions:      instanceStore{pool: r.pool, table: "quiz_questions"},
		abac.ResourceCalculatorSettings: instanceStore{pool: r.pool, table: "calculator_settings"},
	}
}
