package persistence

import (
	"errors"
	"strings"

	"github.com/erp/stockledger/internal/domain/shared"
	"gorm.io/gorm"
)

// notFound maps gorm.ErrRecordNotFound to a NOT_FOUND domain error for the
// named resource and passes every other error through.
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(resource)
	}
	return err
}

// isDuplicate reports unique constraint violations. Drivers translate them to
// gorm.ErrDuplicatedKey when TranslateError is on; the message checks cover
// connections opened without it.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// conflict maps unique violations to a CONFLICT domain error
func conflict(err error, code, message string) error {
	if isDuplicate(err) {
		return shared.NewConflictError(code, message)
	}
	return err
}
