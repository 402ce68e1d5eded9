package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration  = errors.New("configuration error")
	ErrConnection     = errors.New("database connection failed")
	ErrMissingColumn  = errors.New("missing required column")
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("invalid id or password")
	ErrUserNotFound   = errors.New("user not found")
	ErrUserExists     = errors.New("user already exists")
	ErrForbidden      = errors.New("access forbidden")

	// ErrPasswordChangeRequired is returned when an account that still
	// carries the must-change flag tries to reach a role view.
	ErrPasswordChangeRequired = errors.New("password change required")
)

// ConfigurationError reports a missing or unusable setting, such as
// unresolvable database credentials.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ConnectionError wraps the driver failure that kept the database unreachable.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %v", ErrConnection, e.Err)
}

func (e *ConnectionError) Unwrap() []error { return []error{ErrConnection, e.Err} }

// MissingColumnError reports a roster that has none of the accepted aliases
// for a mandatory field.
type MissingColumnError struct {
	Target   ImportTarget
	Field    string
	Accepted []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s roster requires a %s column (one of: %s)",
		e.Target, e.Field, strings.Join(e.Accepted, ", "))
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// ValidationError carries a user-facing reason for a rejected input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return ErrValidation }
