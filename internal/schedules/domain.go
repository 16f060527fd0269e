package schedules

import (
	"fmt"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/abac"
)

// Schedule statuses.
const (
	StatusUpcoming  = "UPCOMING"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// Schedule is a consultation or site-visit appointment on a project.
// Online appointments carry a meeting link, offline ones a location;
// never both.
type Schedule struct {
	ID          string
	ClientID    string
	ManagerID   string
	ProjectID   string
	Date        time.Time
	Time        string // HH:MM
	Event       string
	Description string
	IsOnline    bool
	Location    string
	Link        string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Instance projects the ownership view used for policy evaluation.
func (s Schedule) Instance() *abac.ResourceInstance {
	return &abac.ResourceInstance{
		ID:        s.ID,
		ManagerID: s.ManagerID,
		ClientID:  s.ClientID,
		Status:    s.Status,
	}
}

// NewID mints a public schedule id.
func NewID(now time.Time) string {
	return fmt.Sprintf("SCH-%d", now.UnixMilli())
}

// ValidStatus reports whether s is a known schedule status.
func ValidStatus(s string) bool {
	switch s {
	case StatusUpcoming, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ValidClock reports whether s parses as a HH:MM wall-clock time.
func ValidClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
