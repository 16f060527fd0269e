package projects

import (
	"context"
	"strings"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/abac"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort defines data access methods for projects.
type RepositoryPort interface {
	List(ctx context.Context, filter abac.RowFilter) ([]Project, error)
	FindByID(ctx context.Context, id string, filter abac.RowFilter) (*Project, error)
	Create(ctx context.Context, p Project) (*Project, error)
	Update(ctx context.Context, p Project) (*Project, error)
	Delete(ctx context.Context, id string) error
}

// Service applies row scoping, column redaction, and permission injection
// on top of the repository.
type Service struct {
	repo  RepositoryPort
	rules abac.ProjectAccessRules
	now   func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, rules: abac.DefaultProjectRules(), now: time.Now}
}

// View is the project representation returned to callers. Financials and
// team membership are omitted entirely for clients; the rest of the shape
// is identical across roles.
type View struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	ClientID    string      `json:"client_id"`
	ClientName  string      `json:"client_name"`
	ManagerID   string      `json:"manager_id,omitempty"`
	ManagerName string      `json:"manager_name,omitempty"`
	TeamMembers []string    `json:"team_members,omitempty"`
	Status      string      `json:"status"`
	ServiceType string      `json:"service_type"`
	Location    Location    `json:"location"`
	Progress    int         `json:"progress"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	Financials  *Financials `json:"financials,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Permissions abac.Flags  `json:"_permissions"`
}

// view builds the role-shaped representation of one row: permission flags
// first, then column redaction. Recomputed on every read, never cached.
func (s *Service) view(p abac.Principal, project Project) View {
	v := View{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		ClientID:    project.ClientID,
		ClientName:  project.ClientName,
		ManagerID:   project.ManagerID,
		ManagerName: project.ManagerName,
		TeamMembers: project.TeamMembers,
		Status:      project.Status,
		ServiceType: project.ServiceType,
		Location:    project.Location,
		Progress:    project.Progress,
		StartDate:   project.StartDate,
		EndDate:     project.EndDate,
		Financials:  &project.Financials,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
		Permissions: abac.ProjectFlags(s.rules, p, project.Instance()),
	}
	if abac.HideFinancials(p.Role) {
		v.Financials = nil
		v.TeamMembers = nil
	}
	return v
}

// List returns the projects the principal's role admits.
func (s *Service) List(ctx context.Context, p abac.Principal) ([]View, error) {
	filter := abac.RowFilterFor(p.Role, p.ID)
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(rows))
	for _, row := range rows {
		views = append(views, s.view(p, row))
	}
	return views, nil
}

// Get returns one project under the same row scope as List. Redaction
// applies to detail reads exactly as to listings.
func (s *Service) Get(ctx context.Context, p abac.Principal, id string) (*View, error) {
	filter := abac.RowFilterFor(p.Role, p.ID)
	project, err := s.repo.FindByID(ctx, id, filter)
	if err != nil {
		return nil, err
	}
	v := s.view(p, *project)
	return &v, nil
}

// CreateInput carries a new project request.
type CreateInput struct {
	Name        string
	Description string
	ClientID    string
	ClientName  string
	ManagerID   string
	ManagerName string
	TeamMembers []string
	Status      string
	ServiceType string
	Location    Location
	StartDate   time.Time
	EndDate     *time.Time
	BudgetTotal float64
}

// Create inserts a project with lifecycle defaults. A client creating a
// project requests work: the row is owned by them as client regardless of
// payload.
func (s *Service) Create(ctx context.Context, p abac.Principal, in CreateInput) (*View, error) {
	if strings.TrimSpace(in.Name) == "" || !ValidServiceType(in.ServiceType) {
		return nil, shared.ErrValidation
	}
	status := in.Status
	if status == "" {
		status = StatusLead
	}
	if !ValidStatus(status) {
		return nil, shared.ErrValidation
	}
	clientID := in.ClientID
	if p.Role == abac.RoleClient {
		clientID = p.ID
	}
	startDate := in.StartDate
	if startDate.IsZero() {
		startDate = s.now()
	}

	created, err := s.repo.Create(ctx, Project{
		ID:          NewID(s.now()),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ClientID:    clientID,
		ClientName:  in.ClientName,
		ManagerID:   in.ManagerID,
		ManagerName: in.ManagerName,
		TeamMembers: abac.CompactIDs(in.TeamMembers),
		Status:      status,
		ServiceType: in.ServiceType,
		Location:    in.Location,
		Progress:    0,
		StartDate:   startDate,
		EndDate:     in.EndDate,
		Financials:  Financials{BudgetTotal: in.BudgetTotal},
	})
	if err != nil {
		return nil, err
	}
	v := s.view(p, *created)
	return &v, nil
}

// UpdateInput carries a partial project update; nil fields are left as-is.
type UpdateInput struct {
	Name        *string
	Description *string
	ManagerID   *string
	ManagerName *string
	TeamMembers []string
	Status      *string
	Progress    *int
	StartDate   *time.Time
	EndDate     *time.Time
	BudgetTotal *float64
}

// Update applies the changes. Endpoint-level authorization (ownership,
// budget cap) has already run at the gate; the update itself is scoped to
// the full row so the gate's decision is authoritative.
func (s *Service) Update(ctx context.Context, p abac.Principal, id string, in UpdateInput) (*View, error) {
	project, err := s.repo.FindByID(ctx, id, abac.RowFilter{})
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, shared.ErrValidation
		}
		project.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.ManagerID != nil {
		project.ManagerID = *in.ManagerID
	}
	if in.ManagerName != nil {
		project.ManagerName = *in.ManagerName
	}
	if in.TeamMembers != nil {
		project.TeamMembers = abac.CompactIDs(in.TeamMembers)
	}
	if in.Status != nil {
		if !ValidStatus(*in.Status) {
			return nil, shared.ErrValidation
		}
		project.Status = *in.Status
	}
	if in.Progress != nil {
		if *in.Progress < 0 || *in.Progress > 100 {
			return nil, shared.ErrValidation
		}
		project.Progress = *in.Progress
	}
	if in.StartDate != nil {
		project.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		project.EndDate = in.EndDate
	}
	if in.BudgetTotal != nil {
		project.Financials.BudgetTotal = *in.BudgetTotal
	}

	updated, err := s.repo.Update(ctx, *project)
	if err != nil {
		return nil, err
	}
	v := s.view(p, *updated)
	return &v, nil
}

// Delete removes a project. Reaching here requires the admin-only delete
// permission at the gate.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
