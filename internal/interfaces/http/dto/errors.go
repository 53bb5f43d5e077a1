package dto

import (
	"net/http"

	"github.com/erp/stockledger/internal/domain/shared"
)

// Transport-level error codes. Domain errors keep their own code.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeValidation   = "VALIDATION"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeTooLarge     = "REQUEST_TOO_LARGE"
)

// KindHTTPStatus maps domain error kinds to HTTP status codes
var KindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:          http.StatusBadRequest,
	shared.KindNotFound:            http.StatusNotFound,
	shared.KindInsufficientStock:   http.StatusUnprocessableEntity,
	shared.KindTenantMismatch:      http.StatusForbidden,
	shared.KindNoActivePeriod:      http.StatusUnprocessableEntity,
	shared.KindConflict:            http.StatusConflict,
	shared.KindDependency:          http.StatusConflict,
	shared.KindConcurrencyConflict: http.StatusConflict,
	shared.KindUnauthorized:        http.StatusUnauthorized,
}

// StatusForKind returns the HTTP status for an error kind.
// Unknown kinds are server errors.
func StatusForKind(kind shared.ErrorKind) int {
	if status, ok := KindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ValidationDetail describes one rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag,omitempty"`
}

// NewValidationErrorResponse creates a 400 body listing the rejected fields
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	resp.Error.Kind = string(shared.KindValidation)
	resp.Error.Fields = details
	return resp
}
