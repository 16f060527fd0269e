package schedules

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/platform/db"
	"github.com/atelier-erp/atelier-erp/internal/projects"
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

const scheduleColumns = `id, client_id, manager_id, project_id, date, time, event, description,
is_online, COALESCE(location, ''), COALESCE(link, ''), status, created_at, updated_at`

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	err := row.Scan(
		&s.ID, &s.ClientID, &s.ManagerID, &s.ProjectID, &s.Date, &s.Time, &s.Event, &s.Description,
		&s.IsOnline, &s.Location, &s.Link, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

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

// List returns schedules visible under the row filter, soonest first.
func (r *Repository) List(ctx context.Context, filter abac.RowFilter) ([]Schedule, error) {
	args := []any{}
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE true` + scopeClause(filter, &args) + ` ORDER BY date ASC, time ASC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schedules, nil
}

// FindByID returns one schedule if the row filter admits it.
func (r *Repository) FindByID(ctx context.Context, id string, filter abac.RowFilter) (*Schedule, error) {
	args := []any{id}
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1` + scopeClause(filter, &args)
	return scanSchedule(r.pool.QueryRow(ctx, query, args...))
}

const insertSchedule = `INSERT INTO schedules (id, client_id, manager_id, project_id, date, time, event, description,
is_online, location, link, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), $12)`

// Create inserts a schedule against an existing project.
func (r *Repository) Create(ctx context.Context, s Schedule) (*Schedule, error) {
	_, err := r.pool.Exec(ctx, insertSchedule,
		s.ID, s.ClientID, s.ManagerID, s.ProjectID, s.Date, s.Time, s.Event, s.Description,
		s.IsOnline, s.Location, s.Link, s.Status,
	)
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, s.ID, abac.RowFilter{})
}

// CreateBooking inserts a new project and its consultation schedule in one
// transaction. Either both rows land or neither does.
func (r *Repository) CreateBooking(ctx context.Context, project projects.Project, s Schedule) (*Schedule, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO projects (id, name, description, admin_id, client_id, client_name, manager_id, manager_name,
team_members, status, service_type, address, lat, lng, progress, start_date, end_date,
budget_total, cost_actual, value_planned, value_earned, cpi, spi)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
			project.ID, project.Name, project.Description, project.AdminID, project.ClientID, project.ClientName,
			project.ManagerID, project.ManagerName, project.TeamMembers, project.Status, project.ServiceType,
			project.Location.Address, project.Location.Lat, project.Location.Lng, project.Progress,
			project.StartDate, project.EndDate,
			project.Financials.BudgetTotal, project.Financials.CostActual, project.Financials.ValuePlanned,
			project.Financials.ValueEarned, project.Financials.CPI, project.Financials.SPI,
		)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, insertSchedule,
			s.ID, s.ClientID, s.ManagerID, s.ProjectID, s.Date, s.Time, s.Event, s.Description,
			s.IsOnline, s.Location, s.Link, s.Status,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, s.ID, abac.RowFilter{})
}

// Update overwrites mutable fields.
func (r *Repository) Update(ctx context.Context, s Schedule) (*Schedule, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE schedules SET date=$2, time=$3, event=$4, description=$5,
is_online=$6, location=NULLIF($7, ''), link=NULLIF($8, ''), status=$9, updated_at=NOW()
WHERE id=$1`,
		s.ID, s.Date, s.Time, s.Event, s.Description, s.IsOnline, s.Location, s.Link, s.Status,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.FindByID(ctx, s.ID, abac.RowFilter{})
}

// Delete removes a schedule.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindInstance implements the authorization store.
func (r *Repository) FindInstance(ctx context.Context, id string) (*abac.ResourceInstance, error) {
	var res abac.ResourceInstance
	err := r.pool.QueryRow(ctx, `SELECT id, COALESCE(manager_id, ''), COALESCE(client_id, ''), status
FROM schedules WHERE id = $1`, id).Scan(&res.ID, &res.ManagerID, &res.ClientID, &res.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, abac.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}
