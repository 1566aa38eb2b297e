package common

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	CodeValidation    ErrorCode = "VALIDATION"
	CodeAuthorization ErrorCode = "AUTHORIZATION"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodePersistence   ErrorCode = "PERSISTENCE"
	CodeUnauthorized  ErrorCode = "UNAUTHENTICATED"
)

// AppError carries an error code so handlers can map domain failures to
// HTTP statuses without string matching.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, message string) error {
	return &AppError{Code: code, Message: message}
}

func WrapError(code ErrorCode, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func ValidationError(msg string) error {
	return NewError(CodeValidation, msg)
}

func AuthorizationError(msg string) error {
	return NewError(CodeAuthorization, msg)
}

func NotFoundError(msg string) error {
	return NewError(CodeNotFound, msg)
}

func PersistenceError(cause error) error {
	return WrapError(CodePersistence, "storage failure", cause)
}

// HTTPStatus maps an error to its response status. Unknown errors are
// treated as internal failures.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeAuthorization:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage returns the client-safe message for an error. Persistence
// causes are never leaked to clients.
func ErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != CodePersistence {
		return appErr.Message
	}
	return "internal server error"
}
