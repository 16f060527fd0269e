package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	List(ctx context.Context, role string) ([]User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u User) (*User, error)
	Update(ctx context.Context, u User) (*User, error)
	Delete(ctx context.Context, id string) error
}

// Service handles account management. Listing and creation are admin
// operations; reads and updates of a single account are also open to the
// account holder through the gate's self-service rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// View is the account representation returned to callers.
type View struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func view(u User) View {
	return View{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		ProfilePicture: u.ProfilePicture,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// List returns all accounts, optionally narrowed to one role.
func (s *Service) List(ctx context.Context, role string) ([]View, error) {
	if role != "" && !abac.ParseRole(role).Known() {
		return nil, shared.ErrValidation
	}
	rows, err := s.repo.List(ctx, role)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(rows))
	for _, row := range rows {
		views = append(views, view(row))
	}
	return views, nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := view(*u)
	return &v, nil
}

// CreateInput carries a new account.
type CreateInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// Create provisions an account with the given role. Reaching here
// requires the admin-only create permission at the gate.
func (s *Service) Create(ctx context.Context, in CreateInput) (*View, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || strings.TrimSpace(in.Name) == "" || len(in.Password) < 8 {
		return nil, shared.ErrValidation
	}
	role := abac.ParseRole(in.Role)
	if !role.Known() {
		return nil, shared.ErrValidation
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hash),
		Role:         string(role),
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}
	v := view(*created)
	return &v, nil
}

// UpdateInput carries a partial account update; nil fields are left
// as-is.
type UpdateInput struct {
	Name           *string
	Password       *string
	Role           *string
	ProfilePicture *string
	IsActive       *bool
}

// Update applies profile changes. Role and activation changes are
// reserved for admins even when the account holder edits their own
// profile.
func (s *Service) Update(ctx context.Context, p abac.Principal, id string, in UpdateInput) (*View, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, shared.ErrValidation
		}
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return nil, shared.ErrValidation
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hash)
	}
	if in.ProfilePicture != nil {
		u.ProfilePicture = *in.ProfilePicture
	}
	if in.Role != nil {
		if p.Role != abac.RoleAdmin {
			return nil, shared.ErrForbidden
		}
		role := abac.ParseRole(*in.Role)
		if !role.Known() {
			return nil, shared.ErrValidation
		}
		u.Role = string(role)
	}
	if in.IsActive != nil {
		if p.Role != abac.RoleAdmin {
			return nil, shared.ErrForbidden
		}
		u.IsActive = *in.IsActive
	}

	updated, err := s.repo.Update(ctx, *u)
	if err != nil {
		return nil, err
	}
	v := view(*updated)
	return &v, nil
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
