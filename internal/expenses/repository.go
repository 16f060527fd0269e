package expenses

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

const expenseColumns = `id, project_id, COALESCE(manager_id, ''), user_id, title, amount, currency, category,
date, COALESCE(receipt_url, ''), status, COALESCE(rejection_note, ''), COALESCE(approved_by, ''), approved_at,
created_at, updated_at`

func scanExpense(row pgx.Row) (*Expense, error) {
	var e Expense
	err := row.Scan(
		&e.ID, &e.ProjectID, &e.ManagerID, &e.UserID, &e.Title, &e.Amount, &e.Currency, &e.Category,
		&e.Date, &e.ReceiptURL, &e.Status, &e.RejectionNote, &e.ApprovedBy, &e.ApprovedAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListFilter scopes an expense listing.
type ListFilter struct {
	UserID    string
	ManagerID string
	ProjectID string
	Status    string
	Category  string
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
	if f.Category != "" {
		*args = append(*args, f.Category)
		clause += fmt.Sprintf(" AND category = $%d", len(*args))
	}
	return clause
}

// List returns one page of expenses under the filter plus the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Expense, int, error) {
	args := []any{}
	where := ` FROM expenses WHERE true` + filter.clause(&args)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.PerPage, page.Offset())
	query := `SELECT ` + expenseColumns + where +
		fmt.Sprintf(` ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, err
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

// FindByID returns one expense if the filter admits it.
func (r *Repository) FindByID(ctx context.Context, id string, filter ListFilter) (*Expense, error) {
	args := []any{id}
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1` + filter.clause(&args)
	return scanExpense(r.pool.QueryRow(ctx, query, args...))
}

// Create inserts an expense.
func (r *Repository) Create(ctx context.Context, e Expense) (*Expense, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO expenses (id, project_id, manager_id, user_id, title, amount, currency, category,
date, receipt_url, status, approved_by, approved_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, NULLIF($12, ''), $13)
RETURNING `+expenseColumns,
		e.ID, e.ProjectID, e.ManagerID, e.UserID, e.Title, e.Amount, e.Currency, e.Category,
		e.Date, e.ReceiptURL, e.Status, e.ApprovedBy, e.ApprovedAt,
	)
	return scanExpense(row)
}

// Update overwrites mutable fields.
func (r *Repository) Update(ctx context.Context, e Expense) (*Expense, error) {
	row := r.pool.QueryRow(ctx, `UPDATE expenses SET title=$2, amount=$3, currency=$4, category=$5, date=$6,
receipt_url=NULLIF($7, ''), status=$8, rejection_note=NULLIF($9, ''), approved_by=NULLIF($10, ''), approved_at=$11,
updated_at=NOW()
WHERE id=$1
RETURNING `+expenseColumns,
		e.ID, e.Title, e.Amount, e.Currency, e.Category, e.Date,
		e.ReceiptURL, e.Status, e.RejectionNote, e.ApprovedBy, e.ApprovedAt,
	)
	return scanExpense(row)
}

// Delete removes an expense.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SumApproved totals approved spending per project, used by the
// financials refresh job.
func (r *Repository) SumApproved(ctx context.Context, projectID string) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM expenses
WHERE project_id = $1 AND status = $2`, projectID, StatusApproved).Scan(&total)
	return total, err
}

// FindInstance implements the authorization store.
func (r *Repository) FindInstance(ctx context.Context, id string) (*abac.ResourceInstance, error) {
	var res abac.ResourceInstance
	err := r.pool.QueryRow(ctx, `SELECT id, COALESCE(manager_id, ''), user_id, status
FROM expenses WHERE id = $1`, id).Scan(&res.ID, &res.ManagerID, &res.UserID, &res.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, abac.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}
