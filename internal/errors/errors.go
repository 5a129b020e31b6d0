// Package errors defines the service error taxonomy shared by all request
// handlers. Every failure a handler can produce is a ServiceError with a
// stable code, an HTTP status, and a user-facing message; upstream causes are
// wrapped and never shown to callers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code identifies an error class.
type Code string

const (
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeAlreadyConsumed Code = "ALREADY_CONSUMED"
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeValidation      Code = "VALIDATION"
	CodeUpstream        Code = "UPSTREAM"
)

// ServiceError is the terminal outcome of a failed pipeline run.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// WithDetails attaches a detail entry and returns the error for chaining.
func (e *ServiceError) WithDetails(key string, value any) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Expected reports whether the error is a normal user-facing outcome rather
// than a server-side failure. Expected outcomes are not logged as errors.
func (e *ServiceError) Expected() bool {
	return e.Code != CodeUpstream
}

// Unauthenticated builds a 401 outcome.
func Unauthenticated(message string) *ServiceError {
	if message == "" {
		message = "Nicht angemeldet."
	}
	return &ServiceError{Code: CodeUnauthenticated, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// Forbidden builds a 403 outcome.
func Forbidden(message string) *ServiceError {
	if message == "" {
		message = "Keine Berechtigung."
	}
	return &ServiceError{Code: CodeForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

// NotFound builds a 404 outcome.
func NotFound(message string) *ServiceError {
	if message == "" {
		message = "Nicht gefunden."
	}
	return &ServiceError{Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// AlreadyConsumed builds a 410 outcome for single-use resources.
func AlreadyConsumed(message string) *ServiceError {
	if message == "" {
		message = "Bereits verwendet."
	}
	return &ServiceError{Code: CodeAlreadyConsumed, Message: message, HTTPStatus: http.StatusGone}
}

// BadRequest builds a 400 outcome (malformed identifiers or bodies).
func BadRequest(message string) *ServiceError {
	if message == "" {
		message = "Ungültige Anfrage."
	}
	return &ServiceError{Code: CodeBadRequest, Message: message, HTTPStatus: http.StatusBadRequest}
}

// Validation builds a 422 outcome carrying per-field error messages.
func Validation(fieldErrors map[string][]string) *ServiceError {
	e := &ServiceError{
		Code:       CodeValidation,
		Message:    "Validierung fehlgeschlagen.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
	return e.WithDetails("fieldErrors", fieldErrors)
}

// Unprocessable builds a 422 outcome without field details, for requests
// that are well-formed but violate a domain rule.
func Unprocessable(message string) *ServiceError {
	if message == "" {
		message = "Validierung fehlgeschlagen."
	}
	return &ServiceError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusUnprocessableEntity}
}

// Upstream wraps a store or transport failure as a 500 outcome. The wrapped
// cause is logged server-side only; callers see the generic message.
func Upstream(err error) *ServiceError {
	return &ServiceError{
		Code:       CodeUpstream,
		Message:    "Interner Serverfehler.",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// GetServiceError extracts a ServiceError from an error chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se
	}
	return nil
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code Code) bool {
	se := GetServiceError(err)
	return se != nil && se.Code == code
}
