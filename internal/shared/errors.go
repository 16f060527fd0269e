package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken occurs when registering an address that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrForbidden indicates a service-level authorization failure.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation indicates a rejected payload.
	ErrValidation = errors.New("validation failed")
)
