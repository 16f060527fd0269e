package timelogs

import (
	"fmt"
	"math"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/abac"
)

// Approval statuses shared with expenses.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// TimeLog records hours worked on a project, optionally against one task.
// ManagerID is denormalized from the project at submission time so listing
// by manager scope needs no join.
type TimeLog struct {
	ID              string
	ProjectID       string
	ManagerID       string
	TaskID          string
	UserID          string
	StartAt         time.Time
	EndAt           time.Time
	DurationMinutes int
	Description     string
	Status          string
	RejectionNote   string
	ApprovedBy      string
	ApprovedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Instance projects the ownership view used for policy evaluation.
func (l TimeLog) Instance() *abac.ResourceInstance {
	return &abac.ResourceInstance{
		ID:        l.ID,
		ManagerID: l.ManagerID,
		UserID:    l.UserID,
		Status:    l.Status,
	}
}

// NewID mints a public time log id.
func NewID(now time.Time) string {
	return fmt.Sprintf("TIMELOG-%d", now.UnixMilli())
}

// DurationMinutes derives the stored duration from the log interval,
// rounded to the nearest minute.
func DurationMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}

// ValidStatus reports whether s is a known approval status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}
