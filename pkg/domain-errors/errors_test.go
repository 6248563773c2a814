package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type typedErr struct{}

func (typedErr) Error() string    { return "typed" }
func (typedErr) DomainCode() Code { return CodeConflict }

func TestCodeResolution(t *testing.T) {
	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeNotFound, "missing"))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("wrap keeps the cause reachable", func(t *testing.T) {
		cause := errors.New("db down")
		err := Wrap(cause, CodeInternal, "load application")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "load application: db down", err.Error())
	})

	t.Run("wrap of nil is nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "noop"))
	})

	t.Run("typed errors expose their own code", func(t *testing.T) {
		assert.True(t, Is(fmt.Errorf("x: %w", typedErr{}), CodeConflict))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		_, ok := CodeOf(errors.New("plain"))
		assert.False(t, ok)
	})
}
