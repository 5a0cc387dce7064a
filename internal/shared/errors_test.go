package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("specialised message still matches sentinel", func(t *testing.T) {
		err := ErrInsufficientStock.Errorf("Insufficient stock for %s", "Milk 1L")

		assert.True(t, errors.Is(err, ErrInsufficientStock))
		assert.False(t, errors.Is(err, ErrNotFound))
		assert.Equal(t, "Insufficient stock for Milk 1L", err.Error())
	})

	t.Run("commit failure keeps its cause visible", func(t *testing.T) {
		err := fmt.Errorf("%w: %w", ErrCommitFailed, ErrInsufficientStock)

		assert.True(t, errors.Is(err, ErrCommitFailed))
		assert.True(t, errors.Is(err, ErrInsufficientStock))
		assert.Equal(t, "COMMIT_FAILED", Code(err))
	})
}

func TestIsSoft(t *testing.T) {
	assert.True(t, IsSoft(ErrOutOfStock))
	assert.True(t, IsSoft(ErrStockExceeded.Errorf("only 3 left")))
	assert.False(t, IsSoft(ErrEmptyCart))
	assert.False(t, IsSoft(nil))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "", Code(errors.New("plain")))
	assert.Equal(t, "NOT_FOUND", Code(fmt.Errorf("lookup: %w", ErrNotFound)))
}

func TestMessage(t *testing.T) {
	t.Run("keeps domain text only", func(t *testing.T) {
		err := fmt.Errorf("%w: %w", ErrCommitFailed, errors.New("database: disk I/O error"))
		assert.Equal(t, "Sale could not be committed", Message(err))
	})

	t.Run("joins nested domain errors", func(t *testing.T) {
		err := fmt.Errorf("%w: %w", ErrCommitFailed, ErrInsufficientStock.Errorf("Insufficient stock for %s", "Milk 1L"))
		assert.Equal(t, "Sale could not be committed: Insufficient stock for Milk 1L", Message(err))
	})

	t.Run("drops formatted causes", func(t *testing.T) {
		err := fmt.Errorf("checkout: %w", fmt.Errorf("%w: %v", ErrConcurrencyConflict, errors.New("redis: transaction failed")))
		assert.Equal(t, "Resource was modified by another process", Message(err))
	})

	assert.Equal(t, "", Message(errors.New("plain")))
	assert.Equal(t, "", Message(nil))
}
