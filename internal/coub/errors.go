package coub

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorResponse is the error body the API returns on failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *ErrorResponse) text() string {
	switch {
	case e == nil:
		return ""
	case e.Message != "":
		return e.Message
	default:
		return e.Error
	}
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Response   *ErrorResponse
	// Body holds up to 512 bytes of a response that was not a JSON error.
	Body string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if msg := e.Response.text(); msg != "" {
		return fmt.Sprintf("coub API error %d: %s", e.StatusCode, msg)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		return fmt.Sprintf("coub API error %d: %s", e.StatusCode, body)
	}
	return fmt.Sprintf("coub API error %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsStatus reports whether err wraps an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// isRetryable returns true if the HTTP status code indicates a retryable error
func isRetryable(statusCode int) bool {
	return statusCode >= 500
}

// getStatusCode extracts the HTTP status code from an error if it's an APIError
func getStatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
