package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rhuss/blueprint/pkg/api"
)

// MapHTTPError converts an HTTP response with a non-2xx status code into
// an APIError. It attempts to parse the response body as the backend's
// {"code","message","data"} envelope to extract a descriptive message.
func MapHTTPError(resp *http.Response) *api.APIError {
	message := ExtractErrorMessage(resp.Body)

	var apiErr *api.APIError
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		if message == "" {
			message = "invalid request to backend"
		}
		apiErr = api.NewInvalidRequestError("", message)

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if message == "" {
			message = "backend rejected credentials"
		}
		apiErr = api.NewUnauthorizedError(message)

	case resp.StatusCode == http.StatusNotFound:
		if message == "" {
			message = "backend resource not found"
		}
		apiErr = api.NewNotFoundError(message)

	case resp.StatusCode == http.StatusTooManyRequests:
		if message == "" {
			message = "backend rate limit exceeded"
		}
		apiErr = api.NewTooManyRequestsError(message)

	case resp.StatusCode >= http.StatusInternalServerError:
		if message == "" {
			message = fmt.Sprintf("backend server error (HTTP %d)", resp.StatusCode)
		}
		apiErr = api.NewServerError(message)

	default:
		if message == "" {
			message = fmt.Sprintf("unexpected backend response (HTTP %d)", resp.StatusCode)
		}
		apiErr = api.NewServerError(message)
	}

	return apiErr.WithStatus(resp.StatusCode)
}

// MapNetworkError converts a network-level error (connection refused, timeout,
// DNS resolution failure) into an APIError with a descriptive message.
func MapNetworkError(err error) *api.APIError {
	return api.NewNetworkError(fmt.Sprintf("backend connection error: %s", err.Error()))
}

// mapReadError converts a failure while reading the response body.
func mapReadError(err error) error {
	return api.NewNetworkError(fmt.Sprintf("reading stream: %s", err.Error()))
}

// ExtractErrorMessage tries to parse the response body as an envelope and
// returns its message. A short plain-text body is returned as is.
func ExtractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var env api.Envelope
	if err := json.Unmarshal(data, &env); err == nil {
		return env.Message
	}

	text := strings.TrimSpace(string(data))
	if len(text) > 200 || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}
