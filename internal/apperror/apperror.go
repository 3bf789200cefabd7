package apperror

import (
	"errors"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrAuth            = errors.New("auth error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrStore           = errors.New("store error")
	ErrUpload          = errors.New("upload error")
	ErrBlob            = errors.New("blob error")
	ErrInconsistent    = errors.New("inconsistent state")
	ErrNotConfirmed    = errors.New("not confirmed")
	ErrNotFound        = errors.New("not found")
)

// AppError carries a user-facing message alongside its kind and cause.
// errors.Is matches both the kind sentinel and anything in the cause chain.
type AppError struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op, message string, cause error) *AppError {
	return &AppError{Kind: kind, Op: op, Message: message, Err: cause}
}

func Validation(op, message string) *AppError {
	return newError(ErrValidation, op, message, nil)
}

// Auth surfaces the identity provider's message verbatim.
func Auth(op string, cause error) *AppError {
	message := "authentication failed"
	if cause != nil {
		message = cause.Error()
	}
	return newError(ErrAuth, op, message, cause)
}

func Unauthenticated(op, message string) *AppError {
	return newError(ErrUnauthenticated, op, message, nil)
}

func Store(op, message string, cause error) *AppError {
	return newError(ErrStore, op, message, cause)
}

func Upload(op, message string, cause error) *AppError {
	return newError(ErrUpload, op, message, cause)
}

func Blob(op, message string, cause error) *AppError {
	return newError(ErrBlob, op, message, cause)
}

func Inconsistent(op, message string, cause error) *AppError {
	return newError(ErrInconsistent, op, message, cause)
}

func NotConfirmed(op string) *AppError {
	return newError(ErrNotConfirmed, op, "deletion was not confirmed", nil)
}

func NotFound(op, resource string, cause error) *AppError {
	return newError(ErrNotFound, op, resource+" not found", cause)
}

// Message returns the user-facing text of err, falling back to fallback for
// errors that did not originate here.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fallback
}
