package expenses

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

type stubRepo struct {
	rows []Expense
}

func (s *stubRepo) admits(e Expense, f ListFilter) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.ManagerID != "" && e.ManagerID != f.ManagerID {
		return false
	}
	if f.ProjectID != "" && e.ProjectID != f.ProjectID {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	return true
}

func (s *stubRepo) List(ctx context.Context, f ListFilter, page shared.PageRequest) ([]Expense, int, error) {
	var all []Expense
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

func (s *stubRepo) FindByID(ctx context.Context, id string, f ListFilter) (*Expense, error) {
	for _, row := range s.rows {
		if row.ID == id && s.admits(row, f) {
			copied := row
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) Create(ctx context.Context, e Expense) (*Expense, error) {
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	s.rows = append(s.rows, e)
	return &e, nil
}

func (s *stubRepo) Update(ctx context.Context, e Expense) (*Expense, error) {
	for i, row := range s.rows {
		if row.ID == e.ID {
			s.rows[i] = e
			return &e, nil
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
	managers map[string]string
}

func (s *stubProjects) FindInstance(ctx context.Context, id string) (*abac.ResourceInstance, error) {
	manager, ok := s.managers[id]
	if !ok {
		return nil, abac.ErrNotFound
	}
	return &abac.ResourceInstance{ID: id, ManagerID: manager}, nil
}

type recordedApprovals struct {
	logs []shared.ApprovalLog
}

func (r *recordedApprovals) Record(ctx context.Context, log shared.ApprovalLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func newService(repo *stubRepo) (*Service, *recordedApprovals) {
	approvals := &recordedApprovals{}
	svc := NewService(repo, &stubProjects{managers: map[string]string{"PROJ-1": "pm1"}}, approvals)
	return svc, approvals
}

var expenseDate = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func TestCreateRoundsAmountAndDenormalizesManager(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newService(repo)

	view, err := svc.Create(context.Background(), abac.Principal{ID: "tm1", Role: abac.RoleTeamMember}, CreateInput{
		ProjectID: "PROJ-1",
		Title:     "Paint",
		Amount:    150000.456,
		Category:  CategoryMaterial,
		Date:      expenseDate,
	})
	require.NoError(t, err)
	require.Equal(t, 150000.46, view.Amount)
	require.Equal(t, CurrencyIDR, view.Currency, "currency defaults to IDR")
	require.Equal(t, StatusPending, view.Status)
	require.Equal(t, "pm1", repo.rows[0].ManagerID)
	require.Contains(t, view.ID, "EXPENSE-")
	require.NotEmpty(t, view.AmountDisplay)
}

func TestAdminSubmissionAutoApproves(t *testing.T) {
	svc, approvals := newService(&stubRepo{})

	view, err := svc.Create(context.Background(), abac.Principal{ID: "a1", Role: abac.RoleAdmin}, CreateInput{
		ProjectID: "PROJ-1", Title: "Crane rental", Amount: 220.5, Currency: CurrencyUSD,
		Category: CategoryEquipment, Date: expenseDate,
	})
	require.NoError(t, err)
	require.Equal(t, StatusApproved, view.Status)
	require.Equal(t, "a1", view.ApprovedBy)
	require.Len(t, approvals.logs, 2)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(&stubRepo{})
	staff := abac.Principal{ID: "tm1", Role: abac.RoleTeamMember}

	_, err := svc.Create(context.Background(), staff, CreateInput{
		ProjectID: "PROJ-1", Title: "Bad currency", Amount: 10, Currency: "EUR",
		Category: CategoryOther, Date: expenseDate,
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), staff, CreateInput{
		ProjectID: "PROJ-1", Title: "Bad category", Amount: 10, Category: "FOOD", Date: expenseDate,
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), staff, CreateInput{
		ProjectID: "PROJ-404", Title: "Ghost project", Amount: 10, Category: CategoryOther, Date: expenseDate,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListScopesAndFilters(t *testing.T) {
	repo := &stubRepo{rows: []Expense{
		{ID: "EXPENSE-1", ProjectID: "PROJ-1", ManagerID: "pm1", UserID: "tm1", Category: CategoryMaterial, Status: StatusPending},
		{ID: "EXPENSE-2", ProjectID: "PROJ-1", ManagerID: "pm1", UserID: "tm2", Category: CategoryLabor, Status: StatusApproved},
		{ID: "EXPENSE-3", ProjectID: "PROJ-2", ManagerID: "pm2", UserID: "tm1", Category: CategoryMaterial, Status: StatusApproved},
	}}
	svc, _ := newService(repo)
	page := shared.PageRequest{Page: 1, PerPage: 20}

	own, err := svc.List(context.Background(), abac.Principal{ID: "tm1", Role: abac.RoleTeamMember}, ListQuery{Page: page})
	require.NoError(t, err)
	require.Equal(t, 2, own.Meta.Total)

	managed, err := svc.List(context.Background(), abac.Principal{ID: "pm1", Role: abac.RoleProjectManager}, ListQuery{Category: CategoryLabor, Page: page})
	require.NoError(t, err)
	require.Equal(t, 1, managed.Meta.Total)
	require.Equal(t, "EXPENSE-2", managed.Data[0].ID)

	narrowed, err := svc.List(context.Background(), abac.Principal{ID: "a1", Role: abac.RoleAdmin}, ListQuery{UserID: "tm2", Page: page})
	require.NoError(t, err)
	require.Equal(t, 1, narrowed.Meta.Total)
}

func TestStaffEditsOnlyOwnExpenses(t *testing.T) {
	repo := &stubRepo{rows: []Expense{
		{ID: "EXPENSE-1", ProjectID: "PROJ-1", UserID: "tm1", Title: "Paint", Amount: 100, Currency: CurrencyIDR,
			Category: CategoryMaterial, Date: expenseDate, Status: StatusPending},
	}}
	svc, _ := newService(repo)

	_, err := svc.Update(context.Background(), abac.Principal{ID: "tm2", Role: abac.RoleTeamMember}, "EXPENSE-1", UpdateInput{})
	require.ErrorIs(t, err, shared.ErrForbidden)

	amount := 123.456
	view, err := svc.Update(context.Background(), abac.Principal{ID: "tm1", Role: abac.RoleTeamMember}, "EXPENSE-1", UpdateInput{Amount: &amount})
	require.NoError(t, err)
	require.Equal(t, 123.46, view.Amount)
}

func TestReviewTransitions(t *testing.T) {
	repo := &stubRepo{rows: []Expense{
		{ID: "EXPENSE-1", ProjectID: "PROJ-1", ManagerID: "pm1", UserID: "tm1", Title: "Paint", Amount: 100,
			Currency: CurrencyIDR, Category: CategoryMaterial, Date: expenseDate, Status: StatusPending},
	}}
	svc, approvals := newService(repo)
	pm := abac.Principal{ID: "pm1", Role: abac.RoleProjectManager}

	rejected, err := svc.Review(context.Background(), pm, "EXPENSE-1", false, "no receipt")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.Equal(t, "no receipt", rejected.RejectionNote)

	approved, err := svc.Review(context.Background(), pm, "EXPENSE-1", true, "")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Empty(t, approved.RejectionNote)

	require.Equal(t, shared.ApprovalReject, approvals.logs[0].Action)
	require.Equal(t, shared.ApprovalApprove, approvals.logs[1].Action)
}

func TestDisplayAmount(t *testing.T) {
	require.NotEmpty(t, DisplayAmount(CurrencyUSD, 12.5))
	require.Contains(t, DisplayAmount("XQQ", 12.5), "XQQ", "unknown codes fall back to a plain rendering")
}
