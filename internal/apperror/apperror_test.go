package apperror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleTaken(t *testing.T) {
	err := HandleTaken("Alice")

	assert.True(t, errors.Is(err, ErrHandleTaken))
	assert.Contains(t, err.Error(), "Alice")
	assert.Equal(t, "handle", err.Field)
}

func TestIncompleteIdentity(t *testing.T) {
	err := IncompleteIdentity("email")

	assert.True(t, errors.Is(err, ErrIncompleteIdentity))
	assert.Contains(t, err.Error(), "email")
	assert.Equal(t, "email", err.Field)
}

func TestBackendUnavailableWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := BackendUnavailable(cause)

	assert.True(t, errors.Is(err, ErrBackendUnavailable))
	assert.NotContains(t, err.Error(), "connection refused",
		"user-facing message must not leak the cause")
}

func TestErrorsAsFindsAppError(t *testing.T) {
	var appErr *AppError
	err := ValidationFailed("handle", "too short")

	assert.True(t, errors.As(error(err), &appErr))
	assert.Equal(t, "handle", appErr.Field)
	assert.Equal(t, "too short", appErr.Message)
}

func TestNotFound(t *testing.T) {
	err := NotFound("user", "uid-1")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "user")
	assert.Contains(t, err.Error(), "uid-1")
}
