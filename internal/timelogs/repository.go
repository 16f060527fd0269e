package timelogs

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

const timeLogColumns = `id, project_id, COALESCE(manager_id, ''), COALESCE(task_id, ''), user_id,
start_at, end_at, duration_minutes, description, status,
COALESCE(rejection_note, ''), COALESCE(approved_by, ''), approved_at, created_at, updated_at`

func scanTimeLog(row pgx.Row) (*TimeLog, error) {
	var l TimeLog
	err := row.Scan(
		&l.ID, &l.ProjectID, &l.ManagerID, &l.TaskID, &l.UserID,
		&l.StartAt, &l.EndAt, &l.DurationMinutes, &l.Description, &l.Status,
		&l.RejectionNote, &l.ApprovedBy, &l.ApprovedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ListFilter scopes a time log listing.
type ListFilter struct {
	UserID    string
	ManagerID string
	ProjectID string
	Status    string
}

func (f ListFilter) clause(args *[]any) string {
	clause := ""
	if f.UserID != "" {
		*args = append(*args, f.UserID)
		clause += fmt.Sprintf(" AND user_id = $%d", len(*args))
	}
	if f.ManagerID != "" {
		*args = append(*args, f.ManagerID)
		clause += fmt.Sprintf(" AND manager_id = $%d", len(*args))
	}
	if f.ProjectID != "" {
		*args = append(*args, f.ProjectID)
		clause += fmt.Sprintf(" AND project_id = $%d", len(*args))
	}
	if f.Status != "" {
		*args = append(*args, f.Status)
		clause += fmt.Sprintf(" AND status = $%d", len(*args))
	}
	return clause
}

// List returns one page of time logs under the filter plus the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]TimeLog, int, error) {
	args := []any{}
	where := ` FROM time_logs WHERE true` + filter.clause(&args)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.PerPage, page.Offset())
	query := `SELECT ` + timeLogColumns + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logs []TimeLog
	for rows.Next() {
		l, err := scanTimeLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// FindByID returns one time log if the filter admits it.
func (r *Repository) FindByID(ctx context.Context, id string, filter ListFilter) (*TimeLog, error) {
	args := []any{id}
	query := `SELECT ` + timeLogColumns + ` FROM time_logs WHERE id = $1` + filter.clause(&args)
	return scanTimeLog(r.pool.QueryRow(ctx, query, args...))
}

// Create inserts a time log.
func (r *Repository) Create(ctx context.Context, l TimeLog) (*TimeLog, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO time_logs (id, project_id, manager_id, task_id, user_id,
start_at, end_at, duration_minutes, description, status, approved_by, approved_at)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12)
RETURNING `+timeLogColumns,
		l.ID, l.ProjectID, l.ManagerID, l.TaskID, l.UserID,
		l.StartAt, l.EndAt, l.DurationMinutes, l.Description, l.Status, l.ApprovedBy, l.ApprovedAt,
	)
	return scanTimeLog(row)
}

// Update overwrites mutable fields.
func (r *Repository) Update(ctx context.Context, l TimeLog) (*TimeLog, error) {
	row := r.pool.QueryRow(ctx, `UPDATE time_logs SET start_at=$2, end_at=$3, duration_minutes=$4, description=$5,
status=$6, rejection_note=NULLIF($7, ''), approved_by=NULLIF($8, ''), approved_at=$9, updated_at=NOW()
WHERE id=$1
RETURNING `+timeLogColumns,
		l.ID, l.StartAt, l.EndAt, l.DurationMinutes, l.Description,
		l.Status, l.RejectionNote, l.ApprovedBy, l.ApprovedAt,
	)
	return scanTimeLog(row)
}

// Delete removes a time log.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM time_logs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SumApprovedMinutes totals approved minutes per project, used by the
// financials refresh job.
func (r *Repository) SumApprovedMinutes(ctx context.Context, projectID string) (int, error) {
	var minutes int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(duration_minutes), 0) FROM time_logs
WHERE project_id = $1 AND status = $2`, projectID, StatusApproved).Scan(&minutes)
	return minutes, err
}

// FindInstance implements the authorization store.
func (r *Repository) FindInstance(ctx context.Context, id string) (*abac.ResourceInstance, error) {
	var res abac.ResourceInstance
	err := r.pool.QueryRow(ctx, `SELECT id, COALESCE(manager_id, ''), user_id, status
FROM time_logs WHERE id = $1`, id).Scan(&res.ID, &res.ManagerID, &res.UserID, &res.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, abac.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}
