package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("matches sentinel of the same kind", func(t *testing.T) {
		err := NewValidationError("INVALID_QUANTITY", "bad quantity")

		assert.ErrorIs(t, err, ErrValidation)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		err := fmt.Errorf("lookup: %w", NewNotFoundError("Stock item"))

		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("coded target only matches that code", func(t *testing.T) {
		err := NewValidationError("INVALID_QUANTITY", "bad quantity")

		assert.True(t, errors.Is(err, NewValidationError("INVALID_QUANTITY", "")))
		assert.False(t, errors.Is(err, NewValidationError("INVALID_PRICE", "")))
	})

	t.Run("plain errors have no kind", func(t *testing.T) {
		assert.Equal(t, ErrorKind(""), KindOf(errors.New("boom")))
	})
}

func TestNewInsufficientStockError(t *testing.T) {
	err := NewInsufficientStockError(decimal.NewFromInt(5), decimal.NewFromInt(10), "pcs")

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, "Insufficient stock. Available: 5 pcs, Requested: 10 pcs", err.Error())
	assert.Equal(t, "5", err.Details["available"])
	assert.Equal(t, "10", err.Details["requested"])
}

func TestActor(t *testing.T) {
	companyID := uuid.New()
	actor := NewActor(uuid.New(), companyID)

	assert.NoError(t, actor.Validate())
	assert.NoError(t, actor.Guard("Stock category", companyID))
	assert.ErrorIs(t, actor.Guard("Stock category", uuid.New()), ErrTenantMismatch)
	assert.Error(t, Actor{}.Validate())
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 41, 1, 20)

	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 20, Filter{Page: 2, PageSize: 20}.Offset())
	assert.Equal(t, 0, Filter{}.Offset())
}
