package tasks

import (
	"fmt"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/abac"
)

// Task statuses. DONE tasks are immutable for assignees.
const (
	StatusTodo       = "TODO"
	StatusInProgress = "IN_PROGRESS"
	StatusInReview   = "IN_REVIEW"
	StatusDone       = "DONE"
)

// Attachment types.
const (
	AttachmentFile  = "FILE"
	AttachmentImage = "IMAGE"
	AttachmentLink  = "LINK"
)

// Attachment references an uploaded file or external link on a task.
type Attachment struct {
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	Name       string    `json:"name,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Approval tracks the review outcome of a task.
type Approval struct {
	IsApproved    bool       `json:"is_approved"`
	ApprovedBy    string     `json:"approved_by,omitempty"`
	RejectionNote string     `json:"rejection_note,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
}

// Task is a unit of work inside a project. ProjectManagerID and
// ProjectClientID are denormalized from the parent project on reads; they
// are never written through this module.
type Task struct {
	ID               string
	ProjectID        string
	ProjectManagerID string
	ProjectClientID  string
	AssignedTo       []string
	CreatedBy        string
	Title            string
	Description      string
	BudgetAllocation float64
	DueDate          *time.Time
	Status           string
	Attachments      []Attachment
	IsPunchItem      bool
	Approval         Approval
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Instance projects the ownership view used for policy evaluation. The
// parent project's manager and client stand in for task ownership.
func (t Task) Instance() *abac.ResourceInstance {
	return &abac.ResourceInstance{
		ID:         t.ID,
		ManagerID:  t.ProjectManagerID,
		ClientID:   t.ProjectClientID,
		AssignedTo: abac.CompactIDs(t.AssignedTo),
		Status:     t.Status,
	}
}

// NewID mints a public task id.
func NewID(now time.Time) string {
	return fmt.Sprintf("TASK-%d", now.UnixMilli())
}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone:
		return true
	}
	return false
}

// ValidAttachmentType reports whether s is a known attachment type.
func ValidAttachmentType(s string) bool {
	switch s {
	case AttachmentFile, AttachmentImage, AttachmentLink:
		return true
	}
	return false
}
