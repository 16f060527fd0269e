package auth

import "time"

// User represents an account able to sign in.
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
