package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence. Every read joins the
// parent project so the ownership columns travel with the task row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `t.id, t.project_id, COALESCE(p.manager_id, ''), COALESCE(p.client_id, ''),
t.assigned_to, COALESCE(t.created_by, ''), t.title, t.description, t.budget_allocation, t.due_date,
t.status, t.attachments, t.is_punch_item,
t.approval_is_approved, COALESCE(t.approval_approved_by, ''), COALESCE(t.approval_rejection_note, ''), t.approval_approved_at,
t.created_at, t.updated_at`

const taskFrom = ` FROM tasks t JOIN projects p ON p.id = t.project_id`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.ProjectManagerID, &t.ProjectClientID,
		&t.AssignedTo, &t.CreatedBy, &t.Title, &t.Description, &t.BudgetAllocation, &t.DueDate,
		&t.Status, &t.Attachments, &t.IsPunchItem,
		&t.Approval.IsApproved, &t.Approval.ApprovedBy, &t.Approval.RejectionNote, &t.Approval.ApprovedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListFilter scopes a task listing. Manager and client scopes resolve
// through the parent project; AssigneeID matches the assigned_to array.
type ListFilter struct {
	ProjectID  string
	ManagerID  string
	ClientID   string
	AssigneeID string
}

func (f ListFilter) clause(args *[]any) string {
	clause := ""
	if f.ProjectID != "" {
		*args = append(*args, f.ProjectID)
		clause += fmt.Sprintf(" AND t.project_id = $%d", len(*args))
	}
	if f.ManagerID != "" {
		*args = append(*args, f.ManagerID)
		clause += fmt.Sprintf(" AND p.manager_id = $%d", len(*args))
	}
	if f.ClientID != "" {
		*args = append(*args, f.ClientID)
		clause += fmt.Sprintf(" AND p.client_id = $%d", len(*args))
	}
	if f.AssigneeID != "" {
		*args = append(*args, f.AssigneeID)
		clause += fmt.Sprintf(" AND $%d = ANY(t.assigned_to)", len(*args))
	}
	return clause
}

// List returns one page of tasks under the filter plus the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Task, int, error) {
	args := []any{}
	where := ` WHERE true` + filter.clause(&args)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+taskFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.PerPage, page.Offset())
	query := `SELECT ` + taskColumns + taskFrom + where +
		fmt.Sprintf(` ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// FindByID returns one task if the filter admits it.
func (r *Repository) FindByID(ctx context.Context, id string, filter ListFilter) (*Task, error) {
	args := []any{id}
	query := `SELECT ` + taskColumns + taskFrom + ` WHERE t.id = $1` + filter.clause(&args)
	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

// Create inserts a task.
func (r *Repository) Create(ctx context.Context, t Task) (*Task, error) {
	_, err := r.pool.Exec(ctx, `INSERT INTO tasks (id, project_id, assigned_to, created_by, title, description,
budget_allocation, due_date, status, attachments, is_punch_item)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.ProjectID, t.AssignedTo, t.CreatedBy, t.Title, t.Description,
		t.BudgetAllocation, t.DueDate, t.Status, t.Attachments, t.IsPunchItem,
	)
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, t.ID, ListFilter{})
}

// Update overwrites mutable fields.
func (r *Repository) Update(ctx context.Context, t Task) (*Task, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET assigned_to=$2, title=$3, description=$4, budget_allocation=$5,
due_date=$6, status=$7, attachments=$8, is_punch_item=$9,
approval_is_approved=$10, approval_approved_by=NULLIF($11, ''), approval_rejection_note=NULLIF($12, ''), approval_approved_at=$13,
updated_at=NOW()
WHERE id=$1`,
		t.ID, t.AssignedTo, t.Title, t.Description, t.BudgetAllocation,
		t.DueDate, t.Status, t.Attachments, t.IsPunchItem,
		t.Approval.IsApproved, t.Approval.ApprovedBy, t.Approval.RejectionNote, t.Approval.ApprovedAt,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.FindByID(ctx, t.ID, ListFilter{})
}

// Delete removes a task.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ProjectOf returns the parent project id of a task.
func (r *Repository) ProjectOf(ctx context.Context, id string) (string, error) {
	var projectID string
	err := r.pool.QueryRow(ctx, `SELECT project_id FROM tasks WHERE id = $1`, id).Scan(&projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return projectID, nil
}

// FindInstance implements the authorization store. The parent project's
// manager and client ids carry the ownership the predicates check.
func (r *Repository) FindInstance(ctx context.Context, id string) (*abac.ResourceInstance, error) {
	var (
		res        abac.ResourceInstance
		assignedTo []string
	)
	err := r.pool.QueryRow(ctx, `SELECT t.id, COALESCE(p.manager_id, ''), COALESCE(p.client_id, ''), t.assigned_to, t.status`+
		taskFrom+` WHERE t.id = $1`, id).Scan(&res.ID, &res.ManagerID, &res.ClientID, &assignedTo, &res.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, abac.ErrNotFound
		}
		return nil, err
	}
	res.AssignedTo = abac.CompactIDs(assignedTo)
	return &res, nil
}
