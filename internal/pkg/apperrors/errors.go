package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrSchemaInvalid   ErrorType = "SCHEMA_INVALID"
	ErrCrossTenant     ErrorType = "CROSS_TENANT_FORBIDDEN"
	ErrAuthFailed      ErrorType = "AUTH_FAILED"
	ErrDuplicateIntent ErrorType = "DUPLICATE_INTENT"
	ErrInvalidRequest  ErrorType = "INVALID_REQUEST"
	ErrInternal        ErrorType = "INTERNAL_ERROR"
	ErrNotFound        ErrorType = "NOT_FOUND"
	ErrUpstream        ErrorType = "UPSTREAM_ERROR"
)

// AppError is the standard error struct for the application.
// Policy rejections are not AppErrors: they are evaluation outcomes
// carried as values (see service.Rejection).
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrSchemaInvalid, ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrAuthFailed:
		return http.StatusUnauthorized
	case ErrCrossTenant:
		return http.StatusForbidden
	case ErrDuplicateIntent:
		return http.StatusConflict
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrSchemaInvalid:
		return "Check the intent body against the schema."
	case ErrDuplicateIntent:
		return "Resubmit with a fresh intent_id."
	case ErrAuthFailed:
		return "Check the API key."
	default:
		return ""
	}
}
