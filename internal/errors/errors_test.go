package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		err := Wrap(ErrInvalidInput, "factor count too low")
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, "factor count too low: invalid input", err.Error())
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "context"))
	})

	t.Run("preserves chain across multiple wraps", func(t *testing.T) {
		err := Wrap(Wrap(ErrUnavailable, "circuit open"), "enroll failed")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", ErrNotFound)
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrConflict))
}

func TestAs(t *testing.T) {
	type customError struct{ error }
	inner := customError{error: New("custom")}
	err := Wrap(inner, "outer")

	var target customError
	assert.True(t, As(err, &target))
}
