package errors

import (
	"fmt"
	"net/http"
)

// APIError is the error type services hand to handlers. It renders as
// {"error":{"code","message","details"}}.
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetails returns a copy of the error carrying details.
func (e *APIError) WithDetails(details interface{}) *APIError {
	copied := *e
	copied.Details = details
	return &copied
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

// InvalidJSON is returned for request bodies that fail to decode.
func InvalidJSON() *APIError {
	return BadRequest("invalid_json", "invalid request body")
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string) *APIError {
	return New(http.StatusConflict, code, message)
}

// Unavailable reports a backing store that could not be reached. Clients
// treat it as retryable.
func Unavailable(message string) *APIError {
	if message == "" {
		message = "service unavailable"
	}
	return New(http.StatusServiceUnavailable, "unavailable", message)
}
