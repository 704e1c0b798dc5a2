package transport

import (
	"encoding/json"
	"net/http"

	"github.com/rhuss/blueprint/pkg/api"
)

// HTTPStatusFromError maps an APIError type to the corresponding HTTP status
// code. An explicit Status on the error wins.
func HTTPStatusFromError(err *api.APIError) int {
	if err.Status != 0 {
		return err.Status
	}
	switch err.Type {
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	case api.ErrorTypeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteEnvelope writes the backend's {"code","message","data":null} JSON
// body with the given status code.
func WriteEnvelope(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.NewEnvelope(statusCode, message))
}

// WriteAPIError writes an APIError as an envelope, deriving the HTTP status
// code from the error.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteEnvelope(w, HTTPStatusFromError(apiErr), apiErr.Message)
}
