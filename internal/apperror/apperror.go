package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrHandleTaken        = errors.New("handle taken")
	ErrIncompleteIdentity = errors.New("incomplete identity")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// AppError carries a machine-checkable kind, a human-readable message and,
// for field-level validation failures, the offending input field.
type AppError struct {
	Err     error  // sentinel kind, checked with errors.Is
	Message string // human-readable error message
	Field   string // optional: form field the error attaches to
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// HandleTaken names the conflicting handle so the UI can attach the error
// to the handle input.
func HandleTaken(handle string) *AppError {
	return &AppError{
		Err:     ErrHandleTaken,
		Message: fmt.Sprintf("handle %q is already taken", handle),
		Field:   "handle",
	}
}

// IncompleteIdentity indicates the auth provider supplied an identity
// missing a field required for profile bootstrap.
func IncompleteIdentity(field string) *AppError {
	return &AppError{
		Err:     ErrIncompleteIdentity,
		Message: fmt.Sprintf("identity is missing required field %s", field),
		Field:   field,
	}
}

// BackendUnavailable wraps a transient store or network failure. The caller
// is expected to re-trigger the action; no automatic retry happens here.
func BackendUnavailable(err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %v", ErrBackendUnavailable, err),
		Message: "service temporarily unavailable, please try again",
	}
}
