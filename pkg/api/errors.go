package api

import (
	"encoding/json"
	"fmt"
)

// ErrorType represents the category of an API error.
type ErrorType string

const (
	ErrorTypeServerError     ErrorType = "server_error"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeTooManyRequests ErrorType = "too_many_requests"
	ErrorTypeNetwork         ErrorType = "network_error"
)

// APIError represents a structured error with type, HTTP status, param, and message.
type APIError struct {
	Type    ErrorType `json:"type"`
	Status  int       `json:"status,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Envelope is the JSON body the blueprint backend uses for every
// non-streaming reply, including errors: {"code": 400, "message": "...", "data": null}.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewEnvelope builds an Envelope with a null data field.
func NewEnvelope(code int, message string) Envelope {
	return Envelope{Code: code, Message: message, Data: json.RawMessage("null")}
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewNotFoundError creates an APIError for resources that cannot be found.
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewServerError creates an APIError for backend failures.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}

// NewUnauthorizedError creates an APIError for rejected credentials.
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewTooManyRequestsError creates an APIError for rate limiting.
func NewTooManyRequestsError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeTooManyRequests,
		Message: message,
	}
}

// NewNetworkError creates an APIError for connection-level failures.
func NewNetworkError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNetwork,
		Message: message,
	}
}

// WithStatus records the HTTP status that produced the error and returns e.
func (e *APIError) WithStatus(status int) *APIError {
	e.Status = status
	return e
}
