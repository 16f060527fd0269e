package schedules

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/projects"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort defines data access methods for schedules.
type RepositoryPort interface {
	List(ctx context.Context, filter abac.RowFilter) ([]Schedule, error)
	FindByID(ctx context.Context, id string, filter abac.RowFilter) (*Schedule, error)
	Create(ctx context.Context, s Schedule) (*Schedule, error)
	CreateBooking(ctx context.Context, project projects.Project, s Schedule) (*Schedule, error)
	Update(ctx context.Context, s Schedule) (*Schedule, error)
	Delete(ctx context.Context, id string) error
}

// Directory resolves the default staff assignment for bookings.
type Directory interface {
	DefaultAdmin(ctx context.Context) (id, name string, err error)
	DefaultManager(ctx context.Context) (id, name string, err error)
}

// ErrNoAdmin indicates a booking could not be assigned because no admin
// account exists.
var ErrNoAdmin = errors.New("schedules: no admin account configured")

// Service handles appointment workflows.
type Service struct {
	repo      RepositoryPort
	directory Directory
	now       func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, directory Directory) *Service {
	return &Service{repo: repo, directory: directory, now: time.Now}
}

// View is the schedule representation returned to callers.
type View struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	ManagerID   string    `json:"manager_id"`
	ProjectID   string    `json:"project_id"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time"`
	Event       string    `json:"event"`
	Description string    `json:"description,omitempty"`
	IsOnline    bool      `json:"is_online"`
	Location    string    `json:"location,omitempty"`
	Link        string    `json:"link,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func view(s Schedule) View {
	return View{
		ID:          s.ID,
		ClientID:    s.ClientID,
		ManagerID:   s.ManagerID,
		ProjectID:   s.ProjectID,
		Date:        s.Date,
		Time:        s.Time,
		Event:       s.Event,
		Description: s.Description,
		IsOnline:    s.IsOnline,
		Location:    s.Location,
		Link:        s.Link,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// List returns the schedules the principal's role admits.
func (s *Service) List(ctx context.Context, p abac.Principal) ([]View, error) {
	rows, err := s.repo.List(ctx, abac.RowFilterFor(p.Role, p.ID))
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(rows))
	for _, row := range rows {
		views = append(views, view(row))
	}
	return views, nil
}

// Get returns one schedule under the same row scope as List.
func (s *Service) Get(ctx context.Context, p abac.Principal, id string) (*View, error) {
	schedule, err := s.repo.FindByID(ctx, id, abac.RowFilterFor(p.Role, p.ID))
	if err != nil {
		return nil, err
	}
	v := view(*schedule)
	return &v, nil
}

// CreateInput carries an appointment on an existing project.
type CreateInput struct {
	ProjectID   string
	ClientID    string
	ManagerID   string
	Date        time.Time
	Time        string
	Event       string
	Description string
	IsOnline    bool
	Location    string
	Link        string
}

func normalizeVenue(isOnline bool, location, link string) (string, string, error) {
	if isOnline {
		if strings.TrimSpace(link) == "" {
			return "", "", shared.ErrValidation
		}
		return "", link, nil
	}
	return location, "", nil
}

// Create adds a schedule to an existing project.
func (s *Service) Create(ctx context.Context, p abac.Principal, in CreateInput) (*View, error) {
	if in.ProjectID == "" || in.Date.IsZero() || !ValidClock(in.Time) || strings.TrimSpace(in.Event) == "" {
		return nil, shared.ErrValidation
	}
	location, link, err := normalizeVenue(in.IsOnline, in.Location, in.Link)
	if err != nil {
		return nil, err
	}
	clientID := in.ClientID
	if p.Role == abac.RoleClient {
		clientID = p.ID
	}

	created, err := s.repo.Create(ctx, Schedule{
		ID:          NewID(s.now()),
		ClientID:    clientID,
		ManagerID:   in.ManagerID,
		ProjectID:   in.ProjectID,
		Date:        in.Date,
		Time:        in.Time,
		Event:       strings.TrimSpace(in.Event),
		Description: in.Description,
		IsOnline:    in.IsOnline,
		Location:    location,
		Link:        link,
		Status:      StatusUpcoming,
	})
	if err != nil {
		return nil, err
	}
	v := view(*created)
	return &v, nil
}

// BookInput carries a consultation request from a client. The project the
// booking opens does not exist yet.
type BookInput struct {
	ServiceType        string
	ClientName         string
	ProjectDescription string
	Date               time.Time
	Time               string
	Event              string
	Description        string
	IsOnline           bool
	Location           string
	Link               string
}

// Book opens a new lead project and its first consultation in a single
// transaction. The lead is assigned to the default admin and manager.
func (s *Service) Book(ctx context.Context, p abac.Principal, in BookInput) (*View, error) {
	if !projects.ValidServiceType(in.ServiceType) || in.Date.IsZero() || !ValidClock(in.Time) {
		return nil, shared.ErrValidation
	}
	location, link, err := normalizeVenue(in.IsOnline, in.Location, in.Link)
	if err != nil {
		return nil, err
	}

	adminID, _, err := s.directory.DefaultAdmin(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrNoAdmin
		}
		return nil, err
	}
	managerID, managerName, err := s.directory.DefaultManager(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		// No manager on staff yet: the admin holds the lead.
		managerID, managerName = adminID, ""
	}

	clientName := strings.TrimSpace(in.ClientName)
	if clientName == "" {
		clientName = p.Email
	}
	description := in.ProjectDescription
	if description == "" {
		description = fmt.Sprintf("Booking via %s", in.ServiceType)
	}
	event := strings.TrimSpace(in.Event)
	if event == "" {
		event = "Initial Consultation"
	}

	now := s.now()
	project := projects.Project{
		ID:          projects.NewID(now),
		Name:        fmt.Sprintf("%s - %s", in.ServiceType, clientName),
		Description: description,
		AdminID:     adminID,
		ClientID:    p.ID,
		ClientName:  clientName,
		ManagerID:   managerID,
		ManagerName: managerName,
		Status:      projects.StatusLead,
		ServiceType: in.ServiceType,
		Progress:    0,
		StartDate:   in.Date,
	}
	booked, err := s.repo.CreateBooking(ctx, project, Schedule{
		ID:          NewID(now),
		ClientID:    p.ID,
		ManagerID:   managerID,
		ProjectID:   project.ID,
		Date:        in.Date,
		Time:        in.Time,
		Event:       event,
		Description: in.Description,
		IsOnline:    in.IsOnline,
		Location:    location,
		Link:        link,
		Status:      StatusUpcoming,
	})
	if err != nil {
		return nil, err
	}
	v := view(*booked)
	return &v, nil
}

// UpdateInput carries a partial schedule update; nil fields are left as-is.
type UpdateInput struct {
	Date        *time.Time
	Time        *string
	Event       *string
	Description *string
	IsOnline    *bool
	Location    *string
	Link        *string
	Status      *string
}

// Update applies the changes. Ownership has already been enforced at the
// gate.
func (s *Service) Update(ctx context.Context, p abac.Principal, id string, in UpdateInput) (*View, error) {
	schedule, err := s.repo.FindByID(ctx, id, abac.RowFilter{})
	if err != nil {
		return nil, err
	}

	if in.Date != nil {
		if in.Date.IsZero() {
			return nil, shared.ErrValidation
		}
		schedule.Date = *in.Date
	}
	if in.Time != nil {
		if !ValidClock(*in.Time) {
			return nil, shared.ErrValidation
		}
		schedule.Time = *in.Time
	}
	if in.Event != nil {
		if strings.TrimSpace(*in.Event) == "" {
			return nil, shared.ErrValidation
		}
		schedule.Event = strings.TrimSpace(*in.Event)
	}
	if in.Description != nil {
		schedule.Description = *in.Description
	}
	if in.IsOnline != nil {
		schedule.IsOnline = *in.IsOnline
	}
	if in.Location != nil {
		schedule.Location = *in.Location
	}
	if in.Link != nil {
		schedule.Link = *in.Link
	}
	schedule.Location, schedule.Link, err = normalizeVenue(schedule.IsOnline, schedule.Location, schedule.Link)
	if err != nil {
		return nil, err
	}
	if in.Status != nil {
		if !ValidStatus(*in.Status) {
			return nil, shared.ErrValidation
		}
		schedule.Status = *in.Status
	}

	updated, err := s.repo.Update(ctx, *schedule)
	if err != nil {
		return nil, err
	}
	v := view(*updated)
	return &v, nil
}

// Delete removes a schedule.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
