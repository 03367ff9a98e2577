package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDeviceNotFound   = errors.New("device not found")
	ErrCommandNotFound  = errors.New("command not found")
	ErrGeofenceNotFound = errors.New("geofence not found")
	ErrAlertNotFound    = errors.New("geofence alert not found")

	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUnauthorized = errors.New("unauthorized access")
)

// Kind classifies an AppError for HTTP mapping at the boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindValidation
)

type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewNotFound(code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

func NewConflict(code, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

func NewValidation(code, message string, err error) *AppError {
	return &AppError{Kind: KindValidation, Code: code, Message: message, Err: err}
}

// IsNotFound reports whether err is an AppError of kind NotFound.
func IsNotFound(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Kind == KindNotFound
}

// AsAppError unwraps err into an *AppError if one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
