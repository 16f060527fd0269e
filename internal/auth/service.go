package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort defines the account persistence the service needs.
type RepositoryPort interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u User) (*User, error)
}

// Service handles registration and login.
type Service struct {
	repo   RepositoryPort
	tokens *TokenIssuer
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, tokens *TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Session is the result of a successful authentication.
type Session struct {
	Token string
	User  *User
}

// Register creates a new client account. Staff and manager accounts are
// provisioned through user administration, not self-registration.
func (s *Service) Register(ctx context.Context, email, name, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, shared.ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		Role:         string(abac.RoleClient),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrEmailTaken
		}
		return nil, err
	}
	return s.newSession(created)
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive || user.PasswordHash == "" {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return s.newSession(user)
}

// Whoami resolves the stored account behind a principal.
func (s *Service) Whoami(ctx context.Context, p abac.Principal) (*User, error) {
	return s.repo.FindByID(ctx, p.ID)
}

func (s *Service) newSession(user *User) (*Session, error) {
	token, err := s.tokens.Issue(*user, time.Now())
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}
