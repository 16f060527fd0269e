package users

import "time"

// User represents a managed account. The password hash never leaves the
// service layer.
type User struct {
	ID             string
	Email          string
	Name           string
	PasswordHash   string
	Role           string
	ProfilePicture string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
