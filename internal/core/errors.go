package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatLeak        ErrorCategory = "leak"         // Resource diverged from baseline
	ErrCatCapability  ErrorCategory = "capability"   // OS/runtime capability unavailable
	ErrCatNameService ErrorCategory = "name_service" // NSS override not applicable
	ErrCatValidation  ErrorCategory = "validation"   // Invalid input or configuration
	ErrCatState       ErrorCategory = "state"        // Lifecycle misuse
	ErrCatInternal    ErrorCategory = "internal"     // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Cause    error
	Details  map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrLeak creates a resource leak failure for one example. The message is the
// leak list joined by newlines so runners that only print Error() still show
// every leak.
func ErrLeak(location string, leaks []string) *DomainError {
	return &DomainError{
		Category: ErrCatLeak,
		Code:     CodeResourceLeak,
		Message:  strings.Join(leaks, "\n"),
		Details: map[string]interface{}{
			"location": location,
			"leaks":    append([]string(nil), leaks...),
		},
	}
}

// ErrCapability creates an error describing a missing OS/runtime capability.
func ErrCapability(capability, message string) *DomainError {
	return &DomainError{
		Category: ErrCatCapability,
		Code:     CodeCapabilityAbsent,
		Message:  fmt.Sprintf("%s: %s", capability, message),
		Details: map[string]interface{}{
			"capability": capability,
		},
	}
}

// ErrNameService creates an error for a name-service override that could not
// be applied.
func ErrNameService(message string) *DomainError {
	return &DomainError{
		Category: ErrCatNameService,
		Code:     CodeNSSUnavailable,
		Message:  message,
	}
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category: ErrCatValidation,
		Code:     code,
		Message:  message,
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category: ErrCatState,
		Code:     code,
		Message:  message,
	}
}

// LeaksOf returns the leak messages carried by a leak failure, or nil.
func LeaksOf(err error) []string {
	var domErr *DomainError
	if !errors.As(err, &domErr) || domErr.Category != ErrCatLeak {
		return nil
	}
	leaks, _ := domErr.Details["leaks"].([]string)
	return leaks
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeResourceLeak     = "RESOURCE_LEAK"
	CodeCapabilityAbsent = "CAPABILITY_ABSENT"
	CodeNSSUnavailable   = "NSS_UNAVAILABLE"
	CodeNotArmed         = "NOT_ARMED"
	CodeInvalidConfig    = "INVALID_CONFIG"
)
