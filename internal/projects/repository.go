package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `id, name, description, admin_id, client_id, client_name, manager_id, manager_name,
team_members, status, service_type, address, lat, lng, progress, start_date, end_date,
budget_total, cost_actual, value_planned, value_earned, cpi, spi, created_at, updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.AdminID, &p.ClientID, &p.ClientName, &p.ManagerID, &p.ManagerName,
		&p.TeamMembers, &p.Status, &p.ServiceType, &p.Location.Address, &p.Location.Lat, &p.Location.Lng,
		&p.Progress, &p.StartDate, &p.EndDate,
		&p.Financials.BudgetTotal, &p.Financials.CostActual, &p.Financials.ValuePlanned,
		&p.Financials.ValueEarned, &p.Financials.CPI, &p.Financials.SPI,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// scopeClause translates a row filter into a WHERE fragment. args must
// already hold the positional parameters preceding the scope.
func scopeClause(filter abac.RowFilter, args *[]any) string {
	clause := ""
	if filter.ManagerID != "" {
		*args = append(*args, filter.ManagerID)
		clause += fmt.Sprintf(" AND manager_id = $%d", len(*args))
	}
	if filter.ClientID != "" {
		*args = append(*args, filter.ClientID)
		clause += fmt.Sprintf(" AND client_id = $%d", len(*args))
	}
	return clause
}

// List returns projects visible under the row filter, newest first.
func (r *Repository) List(ctx context.Context, filter abac.RowFilter) ([]Project, error) {
	args := []any{}
	query := `SELECT ` + projectColumns + ` FROM projects WHERE true` + scopeClause(filter, &args) + ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

// FindByID returns one project if the row filter admits it. A row hidden
// by the filter is indistinguishable from an absent one.
func (r *Repository) FindByID(ctx context.Context, id string, filter abac.RowFilter) (*Project, error) {
	args := []any{id}
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1` + scopeClause(filter, &args)
	return scanProject(r.pool.QueryRow(ctx, query, args...))
}

// Create inserts a project.
func (r *Repository) Create(ctx context.Context, p Project) (*Project, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO projects (id, name, description, admin_id, client_id, client_name, manager_id, manager_name,
team_members, status, service_type, address, lat, lng, progress, start_date, end_date,
budget_total, cost_actual, value_planned, value_earned, cpi, spi)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
RETURNING `+projectColumns,
		p.ID, p.Name, p.Description, p.AdminID, p.ClientID, p.ClientName, p.ManagerID, p.ManagerName,
		p.TeamMembers, p.Status, p.ServiceType, p.Location.Address, p.Location.Lat, p.Location.Lng,
		p.Progress, p.StartDate, p.EndDate,
		p.Financials.BudgetTotal, p.Financials.CostActual, p.Financials.ValuePlanned,
		p.Financials.ValueEarned, p.Financials.CPI, p.Financials.SPI,
	)
	return scanProject(row)
}

// Update overwrites mutable fields.
func (r *Repository) Update(ctx context.Context, p Project) (*Project, error) {
	row := r.pool.QueryRow(ctx, `UPDATE projects SET name=$2, description=$3, client_name=$4, manager_id=$5, manager_name=$6,
team_members=$7, status=$8, service_type=$9, address=$10, lat=$11, lng=$12, progress=$13,
start_date=$14, end_date=$15, budget_total=$16, updated_at=NOW()
WHERE id=$1
RETURNING `+projectColumns,
		p.ID, p.Name, p.Description, p.ClientName, p.ManagerID, p.ManagerName,
		p.TeamMembers, p.Status, p.ServiceType, p.Location.Address, p.Location.Lat, p.Location.Lng,
		p.Progress, p.StartDate, p.EndDate, p.Financials.BudgetTotal,
	)
	return scanProject(row)
}

// Delete removes a project.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateFinancials stores recomputed earned-value aggregates.
func (r *Repository) UpdateFinancials(ctx context.Context, id string, f Financials) error {
	tag, err := r.pool.Exec(ctx, `UPDATE projects SET cost_actual=$2, value_planned=$3, value_earned=$4, cpi=$5, spi=$6, updated_at=NOW() WHERE id=$1`,
		id, f.CostActual, f.ValuePlanned, f.ValueEarned, f.CPI, f.SPI)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindInstance implements the authorization store: a minimal ownership
// view with every id already in string form.
func (r *Repository) FindInstance(ctx context.Context, id string) (*abac.ResourceInstance, error) {
	var (
		res         abac.ResourceInstance
		teamMembers []string
	)
	err := r.pool.QueryRow(ctx, `SELECT id, COALESCE(manager_id, ''), COALESCE(client_id, ''), team_members, status, budget_total
FROM projects WHERE id = $1`, id).Scan(&res.ID, &res.ManagerID, &res.ClientID, &teamMembers, &res.Status, &res.BudgetTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, abac.ErrNotFound
		}
		return nil, err
	}
	res.TeamMembers = abac.CompactIDs(teamMembers)
	return &res, nil
}
