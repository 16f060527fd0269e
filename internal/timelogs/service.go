package timelogs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort defines data access methods for time logs.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]TimeLog, int, error)
	FindByID(ctx context.Context, id string, filter ListFilter) (*TimeLog, error)
	Create(ctx context.Context, l TimeLog) (*TimeLog, error)
	Update(ctx context.Context, l TimeLog) (*TimeLog, error)
	Delete(ctx context.Context, id string) error
}

// TaskDirectory resolves a task to its parent project.
type TaskDirectory interface {
	ProjectOf(ctx context.Context, taskID string) (string, error)
}

// ApprovalSink records approval history entries.
type ApprovalSink interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// Service handles time tracking workflows.
type Service struct {
	repo      RepositoryPort
	projects  abac.Store
	tasks     TaskDirectory
	approvals ApprovalSink
	now       func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, projects abac.Store, tasks TaskDirectory, approvals ApprovalSink) *Service {
	return &Service{repo: repo, projects: projects, tasks: tasks, approvals: approvals, now: time.Now}
}

// View is the time log representation returned to callers.
type View struct {
	ID              string     `json:"id"`
	ProjectID       string     `json:"project_id"`
	TaskID          string     `json:"task_id,omitempty"`
	UserID          string     `json:"user_id"`
	StartAt         time.Time  `json:"start_at"`
	EndAt           time.Time  `json:"end_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Description     string     `json:"description,omitempty"`
	Status          string     `json:"status"`
	RejectionNote   string     `json:"rejection_note,omitempty"`
	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func view(l TimeLog) View {
	return View{
		ID:              l.ID,
		ProjectID:       l.ProjectID,
		TaskID:          l.TaskID,
		UserID:          l.UserID,
		StartAt:         l.StartAt,
		EndAt:           l.EndAt,
		DurationMinutes: l.DurationMinutes,
		Description:     l.Description,
		Status:          l.Status,
		RejectionNote:   l.RejectionNote,
		ApprovedBy:      l.ApprovedBy,
		ApprovedAt:      l.ApprovedAt,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

// ListQuery narrows a listing on top of the role scope.
type ListQuery struct {
	ProjectID string
	Status    string
	UserID    string
	Page      shared.PageRequest
}

// ListResult is one page of time logs.
type ListResult struct {
	Data []View            `json:"data"`
	Meta shared.Pagination `json:"meta"`
}

// List returns the time logs the principal's role admits: staff their own
// submissions, managers the rows under their projects, admins everything.
func (s *Service) List(ctx context.Context, p abac.Principal, q ListQuery) (*ListResult, error) {
	scope := abac.SubmitterRowFilterFor(p.Role, p.ID)
	filter := ListFilter{
		UserID:    scope.UserID,
		ManagerID: scope.ManagerID,
		ProjectID: q.ProjectID,
		Status:    q.Status,
	}
	// Managers and admins may narrow to one submitter; staff are already
	// pinned to themselves.
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

// Get returns one time log under the same row scope as List.
func (s *Service) Get(ctx context.Context, p abac.Principal, id string) (*View, error) {
	scope := abac.SubmitterRowFilterFor(p.Role, p.ID)
	l, err := s.repo.FindByID(ctx, id, ListFilter{UserID: scope.UserID, ManagerID: scope.ManagerID})
	if err != nil {
		return nil, err
	}
	v := view(*l)
	return &v, nil
}

// CreateInput carries a new time log submission.
type CreateInput struct {
	ProjectID   string
	TaskID      string
	StartAt     time.Time
	EndAt       time.Time
	Description string
}

// Create submits a time log. Manager and admin submissions auto-approve;
// staff submissions start pending.
func (s *Service) Create(ctx context.Context, p abac.Principal, in CreateInput) (*View, error) {
	if in.ProjectID == "" || in.StartAt.IsZero() || in.EndAt.IsZero() || !in.EndAt.After(in.StartAt) {
		return nil, shared.ErrValidation
	}

	project, err := s.projects.FindInstance(ctx, in.ProjectID)
	if err != nil {
		if errors.Is(err, abac.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if in.TaskID != "" {
		parent, err := s.tasks.ProjectOf(ctx, in.TaskID)
		if err != nil {
			return nil, err
		}
		if parent != in.ProjectID {
			return nil, shared.ErrValidation
		}
	}

	now := s.now()
	l := TimeLog{
		ID:              NewID(now),
		ProjectID:       in.ProjectID,
		ManagerID:       project.ManagerID,
		TaskID:          in.TaskID,
		UserID:          p.ID,
		StartAt:         in.StartAt,
		EndAt:           in.EndAt,
		DurationMinutes: DurationMinutes(in.StartAt, in.EndAt),
		Description:     in.Description,
		Status:          StatusPending,
	}
	if p.Role == abac.RoleAdmin || p.Role == abac.RoleProjectManager {
		l.Status = StatusApproved
		l.ApprovedBy = p.ID
		l.ApprovedAt = &now
	}

	created, err := s.repo.Create(ctx, l)
	if err != nil {
		return nil, err
	}
	if s.approvals != nil {
		_ = s.approvals.Record(ctx, shared.ApprovalLog{
			Module: "time_logs", RefID: created.ID, ActorID: p.ID, Action: shared.ApprovalSubmit, At: now,
		})
		if l.Status == StatusApproved {
			_ = s.approvals.Record(ctx, shared.ApprovalLog{
				Module: "time_logs", RefID: created.ID, ActorID: p.ID, Action: shared.ApprovalApprove, At: now,
			})
		}
	}
	v := view(*created)
	return &v, nil
}

// UpdateInput carries a partial time log update; nil fields are left
// as-is. Status changes go through Review, not here.
type UpdateInput struct {
	StartAt     *time.Time
	EndAt       *time.Time
	Description *string
}

// Update edits a submission's fields. Staff may only touch their own
// logs; the duration follows the interval.
func (s *Service) Update(ctx context.Context, p abac.Principal, id string, in UpdateInput) (*View, error) {
	l, err := s.repo.FindByID(ctx, id, ListFilter{})
	if err != nil {
		return nil, err
	}
	if p.Role == abac.RoleTeamMember && l.UserID != p.ID {
		return nil, shared.ErrForbidden
	}

	if in.StartAt != nil {
		l.StartAt = *in.StartAt
	}
	if in.EndAt != nil {
		l.EndAt = *in.EndAt
	}
	if !l.EndAt.After(l.StartAt) {
		return nil, shared.ErrValidation
	}
	l.DurationMinutes = DurationMinutes(l.StartAt, l.EndAt)
	if in.Description != nil {
		l.Description = *in.Description
	}

	updated, err := s.repo.Update(ctx, *l)
	if err != nil {
		return nil, err
	}
	v := view(*updated)
	return &v, nil
}

// Delete removes a time log.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Review approves or rejects a submission. The endpoint gate restricts
// this to managers and admins.
func (s *Service) Review(ctx context.Context, p abac.Principal, id string, approve bool, note string) (*View, error) {
	l, err := s.repo.FindByID(ctx, id, ListFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	action := shared.ApprovalApprove
	if approve {
		l.Status = StatusApproved
		l.ApprovedBy = p.ID
		l.ApprovedAt = &now
		l.RejectionNote = ""
	} else {
		if strings.TrimSpace(note) == "" {
			return nil, shared.ErrValidation
		}
		l.Status = StatusRejected
		l.RejectionNote = note
		l.ApprovedBy = ""
		l.ApprovedAt = nil
		action = shared.ApprovalReject
	}

	updated, err := s.repo.Update(ctx, *l)
	if err != nil {
		return nil, err
	}
	if s.approvals != nil {
		_ = s.approvals.Record(ctx, shared.ApprovalLog{
			Module: "time_logs", RefID: l.ID, ActorID: p.ID, Action: action, Note: note, At: now,
		})
	}
	v := view(*updated)
	return &v, nil
}
