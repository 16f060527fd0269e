package projects

import (
	"fmt"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/abac"
)

// Project statuses follow the delivery lifecycle.
const (
	StatusLead         = "LEAD"
	StatusDesign       = "DESIGN"
	StatusConstruction = "CONSTRUCTION"
	StatusRetention    = "RETENTION"
	StatusCompleted    = "COMPLETED"
	StatusCancelled    = "CANCELLED"
)

// Service types offered to clients.
const (
	ServiceInterior     = "INTERIOR"
	ServiceArchitecture = "ARCHITECTURE"
	ServiceRenovation   = "RENOVATION"
	ServiceConsultation = "CONSULTATION"
)

// Financials aggregates the earned-value numbers for a project. The
// figures are maintained by the background refresh job; this module only
// stores and serves them.
type Financials struct {
	BudgetTotal  float64 `json:"budget_total"`
	CostActual   float64 `json:"cost_actual"`
	ValuePlanned float64 `json:"value_planned"`
	ValueEarned  float64 `json:"value_earned"`
	CPI          float64 `json:"cpi"`
	SPI          float64 `json:"spi"`
}

// Location describes the project site.
type Location struct {
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}

// Project is a construction or interior design engagement.
type Project struct {
	ID          string
	Name        string
	Description string
	AdminID     string
	ClientID    string
	ClientName  string
	ManagerID   string
	ManagerName string
	TeamMembers []string
	Status      string
	ServiceType string
	Location    Location
	Progress    int
	StartDate   time.Time
	EndDate     *time.Time
	Financials  Financials
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Instance projects the ownership view used for policy evaluation.
func (p Project) Instance() *abac.ResourceInstance {
	return &abac.ResourceInstance{
		ID:          p.ID,
		ManagerID:   p.ManagerID,
		ClientID:    p.ClientID,
		TeamMembers: abac.CompactIDs(p.TeamMembers),
		Status:      p.Status,
		BudgetTotal: p.Financials.BudgetTotal,
	}
}

// NewID mints a public project id.
func NewID(now time.Time) string {
	return fmt.Sprintf("PROJ-%d", now.UnixMilli())
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s string) bool {
	switch s {
	case StatusLead, StatusDesign, StatusConstruction, StatusRetention, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ValidServiceType reports whether s is an offered service type.
func ValidServiceType(s string) bool {
	switch s {
	case ServiceInterior, ServiceArchitecture, ServiceRenovation, ServiceConsultation:
		return true
	}
	return false
}
