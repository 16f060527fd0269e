package expenses

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/currency"

	"github.com/atelier-erp/atelier-erp/internal/abac"
)

// Approval statuses shared with time logs.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Expense categories.
const (
	CategoryMaterial  = "MATERIAL"
	CategoryLabor     = "LABOR"
	CategoryEquipment = "EQUIPMENT"
	CategoryTransport = "TRANSPORT"
	CategoryOther     = "OTHER"
)

// Supported settlement currencies.
const (
	CurrencyIDR = "IDR"
	CurrencyUSD = "USD"
)

// Expense records project spending submitted for approval. ManagerID is
// denormalized from the project at submission time.
type Expense struct {
	ID            string
	ProjectID     string
	ManagerID     string
	UserID        string
	Title         string
	Amount        float64
	Currency      string
	Category      string
	Date          time.Time
	ReceiptURL    string
	Status        string
	RejectionNote string
	ApprovedBy    string
	ApprovedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Instance projects the ownership view used for policy evaluation.
func (e Expense) Instance() *abac.ResourceInstance {
	return &abac.ResourceInstance{
		ID:        e.ID,
		ManagerID: e.ManagerID,
		UserID:    e.UserID,
		Status:    e.Status,
	}
}

// NewID mints a public expense id.
func NewID(now time.Time) string {
	return fmt.Sprintf("EXPENSE-%d", now.UnixMilli())
}

// RoundAmount normalizes a monetary amount to two decimal places.
func RoundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

// ValidStatus reports whether s is a known approval status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ValidCategory reports whether s is a known expense category.
func ValidCategory(s string) bool {
	switch s {
	case CategoryMaterial, CategoryLabor, CategoryEquipment, CategoryTransport, CategoryOther:
		return true
	}
	return false
}

// ValidCurrency reports whether s is a supported ISO 4217 code.
func ValidCurrency(s string) bool {
	if s != CurrencyIDR && s != CurrencyUSD {
		return false
	}
	_, err := currency.ParseISO(s)
	return err == nil
}

// DisplayAmount renders the amount with its currency for receipts and
// notifications.
func DisplayAmount(code string, amount float64) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %.2f", code, amount)
	}
	return fmt.Sprintf("%v", currency.Symbol(unit.Amount(amount)))
}
