package users

import (
	"context"
	"errors"

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

const userColumns = `id, email, name, password_hash, role, COALESCE(profile_picture, ''), is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.ProfilePicture, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns all accounts, optionally narrowed to one role.
func (r *Repository) List(ctx context.Context, role string) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// FindByID returns one account.
func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// Create inserts an account.
func (r *Repository) Create(ctx context.Context, u User) (*User, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO users (id, email, name, password_hash, role, profile_picture, is_active)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
RETURNING `+userColumns,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.ProfilePicture, u.IsActive,
	)
	return scanUser(row)
}

// Update overwrites mutable fields.
func (r *Repository) Update(ctx context.Context, u User) (*User, error) {
	row := r.pool.QueryRow(ctx, `UPDATE users SET name=$2, password_hash=$3, role=$4, profile_picture=NULLIF($5, ''), is_active=$6, updated_at=NOW()
WHERE id=$1
RETURNING `+userColumns,
		u.ID, u.Name, u.PasswordHash, u.Role, u.ProfilePicture, u.IsActive,
	)
	return scanUser(row)
}

// Delete removes an account.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// firstByRole returns the oldest active account holding a role.
func (r *Repository) firstByRole(ctx context.Context, role abac.Role) (string, string, error) {
	var id, name string
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM users WHERE role = $1 AND is_active
ORDER BY created_at ASC LIMIT 1`, string(role)).Scan(&id, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", shared.ErrNotFound
		}
		return "", "", err
	}
	return id, name, nil
}

// DefaultAdmin returns the account that receives unassigned bookings.
func (r *Repository) DefaultAdmin(ctx context.Context) (string, string, error) {
	return r.firstByRole(ctx, abac.RoleAdmin)
}

// DefaultManager returns the manager assigned to new leads.
func (r *Repository) DefaultManager(ctx context.Context) (string, string, error) {
	return r.firstByRole(ctx, abac.RoleProjectManager)
}

// FindInstance implements the authorization store. A user instance is
// its own owner: the self-service predicates compare against the id.
func (r *Repository) FindInstance(ctx context.Context, id string) (*abac.ResourceInstance, error) {
	var res abac.ResourceInstance
	err := r.pool.QueryRow(ctx, `SELECT id FROM users WHERE id = $1`, id).Scan(&res.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, abac.ErrNotFound
		}
		return nil, err
	}
	res.UserID = res.ID
	return &res, nil
}
