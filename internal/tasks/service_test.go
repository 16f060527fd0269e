package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

type stubRepo struct {
	rows []Task
}

func (s *stubRepo) admits(t Task, f ListFilter) bool {
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.ManagerID != "" && t.ProjectManagerID != f.ManagerID {
		return false
	}
	if f.ClientID != "" && t.ProjectClientID != f.ClientID {
		return false
	}
	if f.AssigneeID != "" {
		found := false
		for _, id := range t.AssignedTo {
			if id == f.AssigneeID {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *stubRepo) List(ctx context.Context, f ListFilter, page shared.PageRequest) ([]Task, int, error) {
	var all []Task
	for _, row := range s.rows {
		if s.admits(row, f) {
			all = append(all, row)
		}
	}
	total := len(all)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.PerPage
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id string, f ListFilter) (*Task, error) {
	for _, row := range s.rows {
		if row.ID == id && s.admits(row, f) {
			copied := row
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) Create(ctx context.Context, t Task) (*Task, error) {
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	s.rows = append(s.rows, t)
	return &t, nil
}

func (s *stubRepo) Update(ctx context.Context, t Task) (*Task, error) {
	for i, row := range s.rows {
		if row.ID == t.ID {
			s.rows[i] = t
			return &t, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	for i, row := range s.rows {
		if row.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

type stubProjects struct {
	known map[string]bool
}

func (s *stubProjects) FindInstance(ctx context.Context, id string) (*abac.ResourceInstance, error) {
	if !s.known[id] {
		return nil, abac.ErrNotFound
	}
	return &abac.ResourceInstance{ID: id}, nil
}

type recordedApprovals struct {
	logs []shared.ApprovalLog
}

func (r *recordedApprovals) Record(ctx context.Context, log shared.ApprovalLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func seededService() (*Service, *stubRepo, *recordedApprovals) {
	repo := &stubRepo{rows: []Task{
		{ID: "TASK-1", ProjectID: "PROJ-1", ProjectManagerID: "pm1", ProjectClientID: "c1",
			AssignedTo: []string{"tm1"}, Title: "Demolition", Status: StatusInProgress},
		{ID: "TASK-2", ProjectID: "PROJ-1", ProjectManagerID: "pm1", ProjectClientID: "c1",
			AssignedTo: []string{"tm2"}, Title: "Framing", Status: StatusTodo},
		{ID: "TASK-3", ProjectID: "PROJ-2", ProjectManagerID: "pm2", ProjectClientID: "c2",
			AssignedTo: []string{"tm1"}, Title: "Painting", Status: StatusDone},
	}}
	approvals := &recordedApprovals{}
	svc := NewService(repo, &stubProjects{known: map[string]bool{"PROJ-1": true, "PROJ-2": true}}, approvals)
	return svc, repo, approvals
}

func page(n, size int) shared.PageRequest { return shared.PageRequest{Page: n, PerPage: size} }

func TestListScopesByRole(t *testing.T) {
	svc, _, _ := seededService()
	ctx := context.Background()

	admin, err := svc.List(ctx, abac.Principal{ID: "a1", Role: abac.RoleAdmin}, "", page(1, 20))
	require.NoError(t, err)
	require.Equal(t, 3, admin.Meta.Total)

	pm, err := svc.List(ctx, abac.Principal{ID: "pm1", Role: abac.RoleProjectManager}, "", page(1, 20))
	require.NoError(t, err)
	require.Equal(t, 2, pm.Meta.Total)

	assignee, err := svc.List(ctx, abac.Principal{ID: "tm1", Role: abac.RoleTeamMember}, "", page(1, 20))
	require.NoError(t, err)
	require.Equal(t, 2, assignee.Meta.Total)
	for _, v := range assignee.Data {
		require.Contains(t, v.AssignedTo, "tm1")
	}

	client, err := svc.List(ctx, abac.Principal{ID: "c2", Role: abac.RoleClient}, "", page(1, 20))
	require.NoError(t, err)
	require.Equal(t, 1, client.Meta.Total)
	require.Equal(t, "TASK-3", client.Data[0].ID)
}

func TestListPaginates(t *testing.T) {
	svc, _, _ := seededService()

	first, err := svc.List(context.Background(), abac.Principal{ID: "a1", Role: abac.RoleAdmin}, "", page(1, 2))
	require.NoError(t, err)
	require.Len(t, first.Data, 2)
	require.Equal(t, 3, first.Meta.Total)
	require.True(t, first.Meta.HasNext)
	require.False(t, first.Meta.HasPrev)

	second, err := svc.List(context.Background(), abac.Principal{ID: "a1", Role: abac.RoleAdmin}, "", page(2, 2))
	require.NoError(t, err)
	require.Len(t, second.Data, 1)
	require.True(t, second.Meta.HasPrev)
}

func TestCreateRequiresExistingProject(t *testing.T) {
	svc, _, _ := seededService()
	pm := abac.Principal{ID: "pm1", Role: abac.RoleProjectManager}

	_, err := svc.Create(context.Background(), pm, CreateInput{ProjectID: "PROJ-404", Title: "Ghost"})
	require.ErrorIs(t, err, shared.ErrNotFound)

	view, err := svc.Create(context.Background(), pm, CreateInput{ProjectID: "PROJ-1", Title: "Tiling"})
	require.NoError(t, err)
	require.Equal(t, StatusTodo, view.Status)
	require.Equal(t, "pm1", view.CreatedBy)
	require.Contains(t, view.ID, "TASK-")
}

func TestCreateValidatesAttachments(t *testing.T) {
	svc, _, _ := seededService()
	pm := abac.Principal{ID: "pm1", Role: abac.RoleProjectManager}

	_, err := svc.Create(context.Background(), pm, CreateInput{
		ProjectID:   "PROJ-1",
		Title:       "Docs",
		Attachments: []Attachment{{Type: "VIDEO", URL: "https://example.com/clip"}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	view, err := svc.Create(context.Background(), pm, CreateInput{
		ProjectID:   "PROJ-1",
		Title:       "Docs",
		Attachments: []Attachment{{Type: AttachmentLink, URL: "https://example.com/plan"}},
	})
	require.NoError(t, err)
	require.Len(t, view.Attachments, 1)
	require.False(t, view.Attachments[0].UploadedAt.IsZero())
}

func TestReviewRequiresManagingTheParentProject(t *testing.T) {
	svc, _, approvals := seededService()

	// A manager who does not own the parent project is refused even though
	// the endpoint-level policy admits managers.
	_, err := svc.Review(context.Background(), abac.Principal{ID: "pm2", Role: abac.RoleProjectManager}, "TASK-1", true, "")
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.Empty(t, approvals.logs)

	view, err := svc.Review(context.Background(), abac.Principal{ID: "pm1", Role: abac.RoleProjectManager}, "TASK-1", true, "")
	require.NoError(t, err)
	require.True(t, view.Approval.IsApproved)
	require.Equal(t, "pm1", view.Approval.ApprovedBy)
	require.NotNil(t, view.Approval.ApprovedAt)

	require.Len(t, approvals.logs, 1)
	require.Equal(t, shared.ApprovalApprove, approvals.logs[0].Action)
	require.Equal(t, "tasks", approvals.logs[0].Module)
}

func TestRejectNeedsNote(t *testing.T) {
	svc, _, approvals := seededService()
	admin := abac.Principal{ID: "a1", Role: abac.RoleAdmin}

	_, err := svc.Review(context.Background(), admin, "TASK-1", false, "   ")
	require.ErrorIs(t, err, shared.ErrValidation)

	view, err := svc.Review(context.Background(), admin, "TASK-1", false, "missing fire rating")
	require.NoError(t, err)
	require.False(t, view.Approval.IsApproved)
	require.Equal(t, "missing fire rating", view.Approval.RejectionNote)
	require.Equal(t, shared.ApprovalReject, approvals.logs[0].Action)
}

func TestUpdatePartial(t *testing.T) {
	svc, repo, _ := seededService()
	status := StatusInReview

	view, err := svc.Update(context.Background(), abac.Principal{ID: "tm1", Role: abac.RoleTeamMember}, "TASK-1", UpdateInput{Status: &status})
	require.NoError(t, err)
	require.Equal(t, StatusInReview, view.Status)
	require.Equal(t, "Demolition", view.Title, "unset fields stay put")
	require.Equal(t, StatusInReview, repo.rows[0].Status)

	bad := "SHIPPED"
	_, err = svc.Update(context.Background(), abac.Principal{ID: "tm1", Role: abac.RoleTeamMember}, "TASK-1", UpdateInput{Status: &bad})
	require.ErrorIs(t, err, shared.ErrValidation)
}
