package tasks

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort defines data access methods for tasks.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Task, int, error)
	FindByID(ctx context.Context, id string, filter ListFilter) (*Task, error)
	Create(ctx context.Context, t Task) (*Task, error)
	Update(ctx context.Context, t Task) (*Task, error)
	Delete(ctx context.Context, id string) error
}

// ApprovalSink records approval history entries.
type ApprovalSink interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// Service handles task workflows on top of the repository.
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

// View is the task representation returned to callers.
type View struct {
	ID               string       `json:"id"`
	ProjectID        string       `json:"project_id"`
	AssignedTo       []string     `json:"assigned_to"`
	CreatedBy        string       `json:"created_by,omitempty"`
	Title            string       `json:"title"`
	Description      string       `json:"description,omitempty"`
	BudgetAllocation float64      `json:"budget_allocation"`
	DueDate          *time.Time   `json:"due_date,omitempty"`
	Status           string       `json:"status"`
	Attachments      []Attachment `json:"attachments"`
	IsPunchItem      bool         `json:"is_punch_item"`
	Approval         Approval     `json:"approval"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func view(t Task) View {
	return View{
		ID:               t.ID,
		ProjectID:        t.ProjectID,
		AssignedTo:       abac.CompactIDs(t.AssignedTo),
		CreatedBy:        t.CreatedBy,
		Title:            t.Title,
		Description:      t.Description,
		BudgetAllocation: t.BudgetAllocation,
		DueDate:          t.DueDate,
		Status:           t.Status,
		Attachments:      t.Attachments,
		IsPunchItem:      t.IsPunchItem,
		Approval:         t.Approval,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// scopeFor translates a principal into the task row scope: managers and
// clients see their projects' tasks, team members see tasks assigned to
// them, admins see everything.
func scopeFor(p abac.Principal) ListFilter {
	switch p.Role {
	case abac.RoleProjectManager:
		return ListFilter{ManagerID: p.ID}
	case abac.RoleClient:
		return ListFilter{ClientID: p.ID}
	case abac.RoleTeamMember:
		return ListFilter{AssigneeID: p.ID}
	}
	return ListFilter{}
}

// ListResult is one page of tasks.
type ListResult struct {
	Data []View            `json:"data"`
	Meta shared.Pagination `json:"meta"`
}

// List returns the tasks the principal's role admits, optionally narrowed
// to one project.
func (s *Service) List(ctx context.Context, p abac.Principal, projectID string, page shared.PageRequest) (*ListResult, error) {
	filter := scopeFor(p)
	filter.ProjectID = projectID

	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(rows))
	for _, row := range rows {
		views = append(views, view(row))
	}
	return &ListResult{Data: views, Meta: shared.NewPagination(page.Page, page.PerPage, total)}, nil
}

// Get returns one task under the same row scope as List.
func (s *Service) Get(ctx context.Context, p abac.Principal, id string) (*View, error) {
	task, err := s.repo.FindByID(ctx, id, scopeFor(p))
	if err != nil {
		return nil, err
	}
	v := view(*task)
	return &v, nil
}

// CreateInput carries a new task request.
type CreateInput struct {
	ProjectID        string
	Title            string
	Description      string
	AssignedTo       []string
	BudgetAllocation float64
	DueDate          *time.Time
	Status           string
	Attachments      []Attachment
	IsPunchItem      bool
}

// Create inserts a task under an existing project. The parent must exist;
// a missing parent reads as not found, never as a silent insert.
func (s *Service) Create(ctx context.Context, p abac.Principal, in CreateInput) (*View, error) {
	if strings.TrimSpace(in.Title) == "" || in.ProjectID == "" || in.BudgetAllocation < 0 {
		return nil, shared.ErrValidation
	}
	status := in.Status
	if status == "" {
		status = StatusTodo
	}
	if !ValidStatus(status) {
		return nil, shared.ErrValidation
	}
	for _, a := range in.Attachments {
		if !ValidAttachmentType(a.Type) || a.URL == "" {
			return nil, shared.ErrValidation
		}
	}

	if _, err := s.projects.FindInstance(ctx, in.ProjectID); err != nil {
		if errors.Is(err, abac.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	attachments := make([]Attachment, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		if a.UploadedAt.IsZero() {
			a.UploadedAt = s.now()
		}
		attachments = append(attachments, a)
	}

	created, err := s.repo.Create(ctx, Task{
		ID:               NewID(s.now()),
		ProjectID:        in.ProjectID,
		AssignedTo:       abac.CompactIDs(in.AssignedTo),
		CreatedBy:        p.ID,
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		BudgetAllocation: in.BudgetAllocation,
		DueDate:          in.DueDate,
		Status:           status,
		Attachments:      attachments,
		IsPunchItem:      in.IsPunchItem,
	})
	if err != nil {
		return nil, err
	}
	v := view(*created)
	return &v, nil
}

// UpdateInput carries a partial task update; nil fields are left as-is.
type UpdateInput struct {
	Title            *string
	Description      *string
	AssignedTo       []string
	BudgetAllocation *float64
	DueDate          *time.Time
	Status           *string
	Attachments      []Attachment
	IsPunchItem      *bool
}

// Update applies the changes. The gate has already enforced the
// role-specific update predicate against the live task.
func (s *Service) Update(ctx context.Context, p abac.Principal, id string, in UpdateInput) (*View, error) {
	task, err := s.repo.FindByID(ctx, id, ListFilter{})
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, shared.ErrValidation
		}
		task.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.AssignedTo != nil {
		task.AssignedTo = abac.CompactIDs(in.AssignedTo)
	}
	if in.BudgetAllocation != nil {
		if *in.BudgetAllocation < 0 {
			return nil, shared.ErrValidation
		}
		task.BudgetAllocation = *in.BudgetAllocation
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
	}
	if in.Status != nil {
		if !ValidStatus(*in.Status) {
			return nil, shared.ErrValidation
		}
		task.Status = *in.Status
	}
	if in.Attachments != nil {
		for i, a := range in.Attachments {
			if !ValidAttachmentType(a.Type) || a.URL == "" {
				return nil, shared.ErrValidation
			}
			if a.UploadedAt.IsZero() {
				in.Attachments[i].UploadedAt = s.now()
			}
		}
		task.Attachments = in.Attachments
	}
	if in.IsPunchItem != nil {
		task.IsPunchItem = *in.IsPunchItem
	}

	updated, err := s.repo.Update(ctx, *task)
	if err != nil {
		return nil, err
	}
	v := view(*updated)
	return &v, nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Review records an approve or reject decision. The policy table admits
// managers broadly here, so ownership of the parent project is re-checked
// against the live row.
func (s *Service) Review(ctx context.Context, p abac.Principal, id string, approve bool, note string) (*View, error) {
	task, err := s.repo.FindByID(ctx, id, ListFilter{})
	if err != nil {
		return nil, err
	}
	if p.Role != abac.RoleAdmin && task.ProjectManagerID != p.ID {
		return nil, shared.ErrForbidden
	}

	now := s.now()
	action := shared.ApprovalApprove
	if approve {
		task.Approval = Approval{IsApproved: true, ApprovedBy: p.ID, ApprovedAt: &now}
	} else {
		if strings.TrimSpace(note) == "" {
			return nil, shared.ErrValidation
		}
		task.Approval = Approval{IsApproved: false, RejectionNote: note}
		action = shared.ApprovalReject
	}

	updated, err := s.repo.Update(ctx, *task)
	if err != nil {
		return nil, err
	}
	if s.approvals != nil {
		_ = s.approvals.Record(ctx, shared.ApprovalLog{
			Module:  "tasks",
			RefID:   task.ID,
			ActorID: p.ID,
			Action:  action,
			Note:    note,
			At:      now,
		})
	}
	v := view(*updated)
	return &v, nil
}
