package expenses

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort defines data access methods for expenses.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Expense, int, error)
	FindByID(ctx context.Context, id string, filter ListFilter) (*Expense, error)
	Create(ctx context.Context, e Expense) (*Expense, error)
	Update(ctx context.Context, e Expense) (*Expense, error)
	Delete(ctx context.Context, id string) error
}

// ApprovalSink records approval history entries.
type ApprovalSink interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// Service handles expense workflows.
type Service struct {
	repo      RepositoryPort
	projects  abac.Store
	approvals ApprovalSink
	now       func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, projects abac.Store, approvals ApprovalSink) *Service {
	return &Service{repo: repo, projects: projects, approvals: approvals, now: time.Now}
}

// View is the expense representation returned to callers.
type View struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"project_id"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	AmountDisplay string     `json:"amount_display"`
	Category      string     `json:"category"`
	Date          time.Time  `json:"date"`
	ReceiptURL    string     `json:"receipt_url,omitempty"`
	Status        string     `json:"status"`
	RejectionNote string     `json:"rejection_note,omitempty"`
	ApprovedBy    string     `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func view(e Expense) View {
	return View{
		ID:            e.ID,
		ProjectID:     e.ProjectID,
		UserID:        e.UserID,
		Title:         e.Title,
		Amount:        e.Amount,
		Currency:      e.Currency,
		AmountDisplay: DisplayAmount(e.Currency, e.Amount),
		Category:      e.Category,
		Date:          e.Date,
		ReceiptURL:    e.ReceiptURL,
		Status:        e.Status,
		RejectionNote: e.RejectionNote,
		ApprovedBy:    e.ApprovedBy,
		ApprovedAt:    e.ApprovedAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// ListQuery narrows a listing on top of the role scope.
type ListQuery struct {
	ProjectID string
	Status    string
	Category  string
	UserID    string
	Page      shared.PageRequest
}

// ListResult is one page of expenses.
type ListResult struct {
	Data []View            `json:"data"`
	Meta shared.Pagination `json:"meta"`
}

// List returns the expenses the principal's role admits.
func (s *Service) List(ctx context.Context, p abac.Principal, q ListQuery) (*ListResult, error) {
	scope := abac.SubmitterRowFilterFor(p.Role, p.ID)
	filter := ListFilter{
		UserID:    scope.UserID,
		ManagerID: scope.ManagerID,
		ProjectID: q.ProjectID,
		Status:    q.Status,
		Category:  q.Category,
	}
	if q.UserID != "" && (p.Role == abac.RoleAdmin || p.Role == abac.RoleProjectManager) {
		filter.UserID = q.UserID
	}

	rows, total, err := s.repo.List(ctx, filter, q.Page)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(rows))
	for _, row := range rows {
		views = append(views, view(row))
	}
	return &ListResult{Data: views, Meta: shared.NewPagination(q.Page.Page, q.Page.PerPage, total)}, nil
}

// Get returns one expense under the same row scope as List.
func (s *Service) Get(ctx context.Context, p abac.Principal, id string) (*View, error) {
	scope := abac.SubmitterRowFilterFor(p.Role, p.ID)
	e, err := s.repo.FindByID(ctx, id, ListFilter{UserID: scope.UserID, ManagerID: scope.ManagerID})
	if err != nil {
		return nil, err
	}
	v := view(*e)
	return &v, nil
}

// CreateInput carries a new expense submission.
type CreateInput struct {
	ProjectID  string
	Title      string
	Amount     float64
	Currency   string
	Category   string
	Date       time.Time
	ReceiptURL string
}

// Create submits an expense. Manager and admin submissions auto-approve;
// the amount is normalized to two decimal places before it is stored.
func (s *Service) Create(ctx context.Context, p abac.Principal, in CreateInput) (*View, error) {
	if in.ProjectID == "" || strings.TrimSpace(in.Title) == "" || in.Amount < 0 || in.Date.IsZero() {
		return nil, shared.ErrValidation
	}
	currency := in.Currency
	if currency == "" {
		currency = CurrencyIDR
	}
	if !ValidCurrency(currency) || !ValidCategory(in.Category) {
		return nil, shared.ErrValidation
	}

	project, err := s.projects.FindInstance(ctx, in.ProjectID)
	if err != nil {
		if errors.Is(err, abac.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	now := s.now()
	e := Expense{
		ID:         NewID(now),
		ProjectID:  in.ProjectID,
		ManagerID:  project.ManagerID,
		UserID:     p.ID,
		Title:      strings.TrimSpace(in.Title),
		Amount:     RoundAmount(in.Amount),
		Currency:   currency,
		Category:   in.Category,
		Date:       in.Date,
		ReceiptURL: in.ReceiptURL,
		Status:     StatusPending,
	}
	if p.Role == abac.RoleAdmin || p.Role == abac.RoleProjectManager {
		e.Status = StatusApproved
		e.ApprovedBy = p.ID
		e.ApprovedAt = &now
	}

	created, err := s.repo.Create(ctx, e)
	if err != nil {
		return nil, err
	}
	if s.approvals != nil {
		_ = s.approvals.Record(ctx, shared.ApprovalLog{
			Module: "expenses", RefID: created.ID, ActorID: p.ID, Action: shared.ApprovalSubmit, At: now,
		})
		if e.Status == StatusApproved {
			_ = s.approvals.Record(ctx, shared.ApprovalLog{
				Module: "expenses", RefID: created.ID, ActorID: p.ID, Action: shared.ApprovalApprove, At: now,
			})
		}
	}
	v := view(*created)
	return &v, nil
}

// UpdateInput carries a partial expense update; nil fields are left
// as-is. Status changes go through Review, not here.
type UpdateInput struct {
	Title      *string
	Amount     *float64
	Currency   *string
	Category   *string
	Date       *time.Time
	ReceiptURL *string
}

// Update edits a submission's fields. Staff may only touch their own
// expenses.
func (s *Service) Update(ctx context.Context, p abac.Principal, id string, in UpdateInput) (*View, error) {
	e, err := s.repo.FindByID(ctx, id, ListFilter{})
	if err != nil {
		return nil, err
	}
	if p.Role == abac.RoleTeamMember && e.UserID != p.ID {
		return nil, shared.ErrForbidden
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, shared.ErrValidation
		}
		e.Title = strings.TrimSpace(*in.Title)
	}
	if in.Amount != nil {
		if *in.Amount < 0 {
			return nil, shared.ErrValidation
		}
		e.Amount = RoundAmount(*in.Amount)
	}
	if in.Currency != nil {
		if !ValidCurrency(*in.Currency) {
			return nil, shared.ErrValidation
		}
		e.Currency = *in.Currency
	}
	if in.Category != nil {
		if !ValidCategory(*in.Category) {
			return nil, shared.ErrValidation
		}
		e.Category = *in.Category
	}
	if in.Date != nil {
		if in.Date.IsZero() {
			return nil, shared.ErrValidation
		}
		e.Date = *in.Date
	}
	if in.ReceiptURL != nil {
		e.ReceiptURL = *in.ReceiptURL
	}

	updated, err := s.repo.Update(ctx, *e)
	if err != nil {
		return nil, err
	}
	v := view(*updated)
	return &v, nil
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Review approves or rejects a submission. The endpoint gate restricts
// this to managers and admins.
func (s *Service) Review(ctx context.Context, p abac.Principal, id string, approve bool, note string) (*View, error) {
	e, err := s.repo.FindByID(ctx, id, ListFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	action := shared.ApprovalApprove
	if approve {
		e.Status = StatusApproved
		e.ApprovedBy = p.ID
		e.ApprovedAt = &now
		e.RejectionNote = ""
	} else {
		if strings.TrimSpace(note) == "" {
			return nil, shared.ErrValidation
		}
		e.Status = StatusRejected
		e.RejectionNote = note
		e.ApprovedBy = ""
		e.ApprovedAt = nil
		action = shared.ApprovalReject
	}

	updated, err := s.repo.Update(ctx, *e)
	if err != nil {
		return nil, err
	}
	if s.approvals != nil {
		_ = s.approvals.Record(ctx, shared.ApprovalLog{
			Module: "expenses", RefID: e.ID, ActorID: p.ID, Action: action, Note: note, At: now,
		})
	}
	v := view(*updated)
	return &v, nil
}
