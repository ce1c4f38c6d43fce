package domain

import "errors"

var (
	// ErrNotFound is returned when an owner-scoped statement matches no row.
	// It covers both "does not exist" and "belongs to someone else".
	ErrNotFound = errors.New("todo not found")

	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Field + " " + e.Reason
	}
	return e.Field + " is required"
}

// Required builds the common "<Field> is required" validation error.
func Required(field string) error {
	return &ValidationError{Field: field}
}
