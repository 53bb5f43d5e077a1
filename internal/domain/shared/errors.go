package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorKind classifies domain errors so callers can branch on category
// without matching individual codes.
type ErrorKind string

const (
	KindValidation          ErrorKind = "VALIDATION"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindInsufficientStock   ErrorKind = "INSUFFICIENT_STOCK"
	KindTenantMismatch      ErrorKind = "TENANT_MISMATCH"
	KindNoActivePeriod      ErrorKind = "NO_ACTIVE_PERIOD"
	KindConflict            ErrorKind = "CONFLICT"
	KindDependency          ErrorKind = "DEPENDENCY"
	KindConcurrencyConflict ErrorKind = "CONCURRENCY_CONFLICT"
	KindUnauthorized        ErrorKind = "UNAUTHORIZED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind      `json:"kind"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError of the same kind.
// A target without a code matches every error of its kind; a target with a
// code only matches that code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code || t.Code == string(t.Kind)
}

// NewKindError creates a domain error of an explicit kind.
func NewKindError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Common domain errors. These are kind sentinels: errors.Is(err, ErrNotFound)
// holds for every NOT_FOUND error regardless of its code.
var (
	ErrValidation          = NewKindError(KindValidation, string(KindValidation), "Invalid input provided")
	ErrNotFound            = NewKindError(KindNotFound, string(KindNotFound), "Resource not found")
	ErrInsufficientStock   = NewKindError(KindInsufficientStock, string(KindInsufficientStock), "Insufficient stock available")
	ErrTenantMismatch      = NewKindError(KindTenantMismatch, string(KindTenantMismatch), "Referenced resource belongs to another company")
	ErrNoActivePeriod      = NewKindError(KindNoActivePeriod, string(KindNoActivePeriod), "No active Financial Period found. Please activate a financial period first.")
	ErrConflict            = NewKindError(KindConflict, string(KindConflict), "Resource already exists")
	ErrDependency          = NewKindError(KindDependency, string(KindDependency), "Resource has dependent records")
	ErrConcurrencyConflict = NewKindError(KindConcurrencyConflict, string(KindConcurrencyConflict), "Resource was modified by another process")
	ErrUnauthorized        = NewKindError(KindUnauthorized, string(KindUnauthorized), "Not authorized to perform this action")
)

// NewValidationError creates a VALIDATION error with a specific code
func NewValidationError(code, message string) *DomainError {
	return NewKindError(KindValidation, code, message)
}

// NewNotFoundError creates a NOT_FOUND error for the named resource
func NewNotFoundError(resource string) *DomainError {
	return NewKindError(KindNotFound, string(KindNotFound), fmt.Sprintf("%s not found", resource))
}

// NewConflictError creates a CONFLICT error
func NewConflictError(code, message string) *DomainError {
	return NewKindError(KindConflict, code, message)
}

// NewDependencyError creates a DEPENDENCY error
func NewDependencyError(code, message string) *DomainError {
	return NewKindError(KindDependency, code, message)
}

// NewTenantMismatchError creates a TENANT_MISMATCH error for the named resource
func NewTenantMismatchError(resource string) *DomainError {
	return NewKindError(KindTenantMismatch, string(KindTenantMismatch),
		fmt.Sprintf("%s does not belong to your company", resource))
}

// NewInsufficientStockError reports how much stock was available against what
// the caller asked for.
func NewInsufficientStockError(available, requested decimal.Decimal, unit string) *DomainError {
	msg := fmt.Sprintf("Insufficient stock. Available: %s %s, Requested: %s %s",
		available.String(), unit, requested.String(), unit)
	return &DomainError{
		Kind:    KindInsufficientStock,
		Code:    string(KindInsufficientStock),
		Message: msg,
		Details: map[string]any{
			"available": available.String(),
			"requested": requested.String(),
		},
	}
}

// KindOf returns the kind of a domain error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
