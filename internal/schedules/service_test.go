package schedules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/projects"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

type stubRepo struct {
	rows           []Schedule
	bookedProjects []projects.Project
	failBooking    error
}

func (s *stubRepo) admits(row Schedule, f abac.RowFilter) bool {
	if f.ManagerID != "" && row.ManagerID != f.ManagerID {
		return false
	}
	if f.ClientID != "" && row.ClientID != f.ClientID {
		return false
	}
	return true
}

func (s *stubRepo) List(ctx context.Context, f abac.RowFilter) ([]Schedule, error) {
	var out []Schedule
	for _, row := range s.rows {
		if s.admits(row, f) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id string, f abac.RowFilter) (*Schedule, error) {
	for _, row := range s.rows {
		if row.ID == id && s.admits(row, f) {
			copied := row
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) Create(ctx context.Context, row Schedule) (*Schedule, error) {
	row.CreatedAt = time.Now()
	row.UpdatedAt = row.CreatedAt
	s.rows = append(s.rows, row)
	return &row, nil
}

func (s *stubRepo) CreateBooking(ctx context.Context, project projects.Project, row Schedule) (*Schedule, error) {
	if s.failBooking != nil {
		return nil, s.failBooking
	}
	s.bookedProjects = append(s.bookedProjects, project)
	return s.Create(ctx, row)
}

func (s *stubRepo) Update(ctx context.Context, row Schedule) (*Schedule, error) {
	for i, existing := range s.rows {
		if existing.ID == row.ID {
			s.rows[i] = row
			return &row, nil
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

type stubDirectory struct {
	adminID   string
	managerID string
}

func (d *stubDirectory) DefaultAdmin(ctx context.Context) (string, string, error) {
	if d.adminID == "" {
		return "", "", shared.ErrNotFound
	}
	return d.adminID, "Admin", nil
}

func (d *stubDirectory) DefaultManager(ctx context.Context) (string, string, error) {
	if d.managerID == "" {
		return "", "", shared.ErrNotFound
	}
	return d.managerID, "Manager", nil
}

func seededService() (*Service, *stubRepo) {
	repo := &stubRepo{rows: []Schedule{
		{ID: "SCH-1", ClientID: "c1", ManagerID: "pm1", ProjectID: "PROJ-1",
			Date: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), Time: "10:00", Event: "Site visit", Status: StatusUpcoming},
		{ID: "SCH-2", ClientID: "c2", ManagerID: "pm2", ProjectID: "PROJ-2",
			Date: time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC), Time: "14:30", Event: "Kickoff", Status: StatusUpcoming},
	}}
	return NewService(repo, &stubDirectory{adminID: "admin1", managerID: "pm9"}), repo
}

func TestListScopedPerRole(t *testing.T) {
	svc, _ := seededService()
	ctx := context.Background()

	all, err := svc.List(ctx, abac.Principal{ID: "a1", Role: abac.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, err := svc.List(ctx, abac.Principal{ID: "c1", Role: abac.RoleClient})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "SCH-1", mine[0].ID)

	managed, err := svc.List(ctx, abac.Principal{ID: "pm2", Role: abac.RoleProjectManager})
	require.NoError(t, err)
	require.Len(t, managed, 1)
	require.Equal(t, "SCH-2", managed[0].ID)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := seededService()
	client := abac.Principal{ID: "c1", Role: abac.RoleClient}
	date := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), client, CreateInput{ProjectID: "PROJ-1", Date: date, Time: "25:99", Event: "x"})
	require.ErrorIs(t, err, shared.ErrValidation)

	// Online appointments need a link.
	_, err = svc.Create(context.Background(), client, CreateInput{ProjectID: "PROJ-1", Date: date, Time: "09:00", Event: "Call", IsOnline: true})
	require.ErrorIs(t, err, shared.ErrValidation)

	view, err := svc.Create(context.Background(), client, CreateInput{
		ProjectID: "PROJ-1", ClientID: "ignored", Date: date, Time: "09:00", Event: "Call",
		IsOnline: true, Link: "https://meet.example.com/abc", Location: "office",
	})
	require.NoError(t, err)
	require.Equal(t, StatusUpcoming, view.Status)
	require.Equal(t, "c1", view.ClientID)
	require.Empty(t, view.Location, "online appointments drop the physical location")
}

func TestBookOpensLeadProjectAtomically(t *testing.T) {
	svc, repo := seededService()
	client := abac.Principal{ID: "c7", Email: "c7@example.com", Role: abac.RoleClient}
	date := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)

	view, err := svc.Book(context.Background(), client, BookInput{
		ServiceType: projects.ServiceInterior,
		ClientName:  "Dewi",
		Date:        date,
		Time:        "11:00",
	})
	require.NoError(t, err)
	require.Equal(t, "Initial Consultation", view.Event)
	require.Equal(t, "c7", view.ClientID)
	require.Equal(t, "pm9", view.ManagerID)

	require.Len(t, repo.bookedProjects, 1)
	project := repo.bookedProjects[0]
	require.Equal(t, view.ProjectID, project.ID)
	require.Equal(t, projects.StatusLead, project.Status)
	require.Equal(t, "c7", project.ClientID)
	require.Equal(t, "admin1", project.AdminID)
	require.Equal(t, date, project.StartDate)
	require.Zero(t, project.Financials.BudgetTotal)
	require.Equal(t, "INTERIOR - Dewi", project.Name)
}

func TestBookRequiresAdminOnStaff(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, &stubDirectory{})

	_, err := svc.Book(context.Background(), abac.Principal{ID: "c7", Role: abac.RoleClient}, BookInput{
		ServiceType: projects.ServiceInterior,
		Date:        time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
		Time:        "11:00",
	})
	require.ErrorIs(t, err, ErrNoAdmin)
	require.Empty(t, repo.bookedProjects)
}

func TestBookFallsBackToAdminAsManager(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, &stubDirectory{adminID: "admin1"})

	view, err := svc.Book(context.Background(), abac.Principal{ID: "c7", Role: abac.RoleClient}, BookInput{
		ServiceType: projects.ServiceRenovation,
		Date:        time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
		Time:        "11:00",
	})
	require.NoError(t, err)
	require.Equal(t, "admin1", view.ManagerID)
}

func TestUpdateStatusAndVenueSwitch(t *testing.T) {
	svc, _ := seededService()
	status := StatusCancelled
	online := true
	link := "https://meet.example.com/xyz"

	view, err := svc.Update(context.Background(), abac.Principal{ID: "pm1", Role: abac.RoleProjectManager}, "SCH-1", UpdateInput{
		Status:   &status,
		IsOnline: &online,
		Link:     &link,
	})
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, view.Status)
	require.True(t, view.IsOnline)
	require.Empty(t, view.Location)

	bad := "POSTPONED"
	_, err = svc.Update(context.Background(), abac.Principal{ID: "pm1", Role: abac.RoleProjectManager}, "SCH-1", UpdateInput{Status: &bad})
	require.ErrorIs(t, err, shared.ErrValidation)
}
