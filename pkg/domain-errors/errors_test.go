package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	cause := errors.New("connection refused")

	t.Run("direct code", func(t *testing.T) {
		err := New(CodeNotFound, "status record not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("wrapped by fmt", func(t *testing.T) {
		err := fmt.Errorf("lookup: %w", New(CodeInvalidInput, "id is required"))
		assert.True(t, HasCode(err, CodeInvalidInput))
	})

	t.Run("nested domain errors", func(t *testing.T) {
		inner := New(CodeNonUniqueMatch, "multiple records match")
		outer := Wrap(inner, CodeInternal, "search failed")
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, HasCode(outer, CodeNonUniqueMatch))
		assert.Equal(t, CodeInternal, CodeOf(outer))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.False(t, HasCode(cause, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(cause))
		assert.Empty(t, MessageOf(cause))
	})

	t.Run("nil error", func(t *testing.T) {
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, CodeInternal, "failed to save status record")

	assert.True(t, Is(err, cause))
	assert.Equal(t, "failed to save status record", MessageOf(err))
	assert.Contains(t, err.Error(), "boom")
}
