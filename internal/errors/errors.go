// Package errors defines the service error taxonomy shared by all components.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a category of failure.
type ErrorCode string

const (
	CodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	CodeForbidden     ErrorCode = "FORBIDDEN"
	CodeInvalidToken  ErrorCode = "INVALID_TOKEN"
	CodeMissingToken  ErrorCode = "MISSING_TOKEN"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
	CodeRateLimited   ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeUpstreamError ErrorCode = "UPSTREAM_ERROR"
)

// ServiceError is the structured error type surfaced at HTTP boundaries.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a key/value pair to the error for diagnostics.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Unauthorized indicates a missing or unusable credential.
func Unauthorized(message string) *ServiceError {
	return &ServiceError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden indicates a valid credential lacking a required permission.
func Forbidden(message string) *ServiceError {
	return &ServiceError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// InvalidToken indicates a credential that is present but failed validation
// (bad signature, expired, malformed). It maps to 401 at the boundary.
func InvalidToken(err error) *ServiceError {
	return &ServiceError{
		Code:       CodeInvalidToken,
		Message:    "Invalid or expired token",
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

// MissingToken indicates an outbound relay call that could not resolve a
// caller token from any source. The call is never issued.
func MissingToken(message string) *ServiceError {
	return &ServiceError{
		Code:       CodeMissingToken,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NotFound indicates a missing entity.
func NotFound(entity, id string) *ServiceError {
	return &ServiceError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s %s not found", entity, id),
		HTTPStatus: http.StatusNotFound,
	}
}

// Validation indicates a malformed request payload or parameter.
func Validation(message string) *ServiceError {
	return &ServiceError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// RateLimitExceeded indicates the caller exceeded the configured request rate.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return &ServiceError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Rate limit of %d requests per %s exceeded", limit, window),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// Upstream wraps a failed downstream service call.
func Upstream(service string, err error) *ServiceError {
	return &ServiceError{
		Code:       CodeUpstreamError,
		Message:    fmt.Sprintf("Call to %s failed", service),
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// GetServiceError extracts a *ServiceError from an error chain, or nil.
func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	serviceErr := GetServiceError(err)
	return serviceErr != nil && serviceErr.Code == code
}
