package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every domain package
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeReferentialConflict = "REFERENTIAL_CONFLICT"
	CodePersistence         = "PERSISTENCE_FAILURE"
	CodeUnavailable         = "SERVICE_UNAVAILABLE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Details carries structured context such as per-row import errors
	Details any   `json:"details,omitempty"`
	Err     error `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped cause
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by code, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of the error carrying details
func (e *DomainError) WithDetails(details any) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports input that violates a domain rule
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewNotFoundError reports a missing entity by kind and id
func NewNotFoundError(entity string, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", entity, id))
}

// NewReferentialConflictError reports an operation blocked by dependent rows
func NewReferentialConflictError(message string) *DomainError {
	return NewDomainError(CodeReferentialConflict, message)
}

// NewPersistenceError wraps a storage failure. The message shown to callers
// is generic; the cause is kept for logging.
func NewPersistenceError(err error) *DomainError {
	return &DomainError{
		Code:    CodePersistence,
		Message: "storage operation failed",
		Err:     err,
	}
}

// NewUnavailableError reports a capability that is switched off or unreachable
func NewUnavailableError(message string) *DomainError {
	return NewDomainError(CodeUnavailable, message)
}

// Common domain errors
var (
	ErrNotFound     = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput = NewDomainError(CodeValidation, "Invalid input provided")
)

// IsNotFound reports whether err is a not-found domain error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// CodeOf returns the domain error code of err, or "" when err is not a DomainError
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
