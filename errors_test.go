package courier

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	err := NewError(ErrCodeValidation, "bad input")
	assert.Equal(t, "VALIDATION_ERROR: bad input", err.Error())

	wrapped := NewErrorWithCause(ErrCodeDatabase, "query failed", errors.New("timeout"))
	assert.Equal(t, "DATABASE_ERROR: query failed: timeout", wrapped.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "timeout")
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", ErrNotFound)))
	assert.True(t, IsNotFound(NewError(ErrCodeNotFound, "gone")))
	assert.False(t, IsNotFound(NewError(ErrCodeValidation, "nope")))
	assert.False(t, IsNotFound(errors.New("plain")))

	assert.True(t, IsValidation(NewError(ErrCodeValidation, "nope")))
	assert.True(t, IsAuthentication(ErrAuthenticationRequired))
	assert.True(t, IsAuthorization(NewError(ErrCodeAuthorization, "denied")))
	assert.False(t, IsAuthorization(ErrAuthenticationRequired))
}
