package apperrors

import "errors"

// Resource errors
var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")
)

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrInvalidFormat      = errors.New("invalid token format")
)

// Authorization errors
var (
	// ErrPermissionDenied means the caller is neither the affected user nor an
	// admin allowed to act on the resource.
	ErrPermissionDenied = errors.New("permission denied")
)

// Validation errors
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// User errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Center and activity errors
var (
	ErrCenterNotFound   = errors.New("center not found")
	ErrActivityNotFound = errors.New("activity not found")
	ErrReminderNotFound = errors.New("reminder not found")
)

// Registration ledger errors
var (
	ErrActivityFull       = errors.New("no seats available")
	ErrSeatsAvailable     = errors.New("seats are still available, register directly")
	ErrAlreadyRegistered  = errors.New("already registered for this activity")
	ErrAlreadyWaitlisted  = errors.New("already on waitlist")
	ErrNotWaitlisted      = errors.New("not on waitlist")
	ErrCapacityBelowCount = errors.New("capacity cannot be lower than the number of registrations")
)

// ErrNotificationDeliveryFailed is logged when an email could not be queued
// or sent. It never reaches an HTTP client.
var ErrNotificationDeliveryFailed = errors.New("notification delivery failed")

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewValidationError creates a validation error carrying a user-readable message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
