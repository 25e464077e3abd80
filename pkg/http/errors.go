package http

import (
	"fmt"
	"net/http"
)

// AppError represents an application-level error with a stable
// machine-readable code and an HTTP status.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// RateLimitedError: upstream admission denied after retries.
func RateLimitedError(message string) *AppError {
	return NewAppError("ERR_RATE_LIMIT_EXCEEDED", message, http.StatusServiceUnavailable)
}

// UpstreamError: non-429 upstream failure after retries.
func UpstreamError(message string) *AppError {
	return NewAppError("ERR_UPSTREAM_UNAVAILABLE", message, http.StatusBadGateway)
}

// InvalidQueryError: malformed filter/sort parameters.
func InvalidQueryError(message string) *AppError {
	return NewAppError("ERR_INVALID_QUERY", message, http.StatusBadRequest)
}

// NotFoundError creates a 404 error.
func NotFoundError(message string) *AppError {
	return NewAppError("ERR_NOT_FOUND", message, http.StatusNotFound)
}

// InternalError creates a 500 error.
func InternalError(message string) *AppError {
	return NewAppError("ERR_INTERNAL", message, http.StatusInternalServerError)
}
