package cmd

import (
	"context"
	"errors"
	"net/http"

	"github.com/salmonumbrella/coubctl/internal/coub"
	clierrors "github.com/salmonumbrella/coubctl/internal/errors"
)

const (
	ExitOK       = 0
	ExitSystem   = 1
	ExitUser     = 2
	ExitAuth     = 3
	ExitNotFound = 4
	ExitTemp     = 6
	ExitCanceled = 130
)

// ExitCode maps a command error to a stable process exit code for automation.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitCanceled
	}

	// Auth wraps the API error that caused it; report the auth failure.
	if clierrors.IsAuthError(err) {
		return ExitAuth
	}

	var apiErr *coub.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			return ExitNotFound
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return ExitAuth
		case apiErr.StatusCode >= 500:
			return ExitTemp
		case apiErr.StatusCode >= 400:
			return ExitUser
		}
		return ExitSystem
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTemp
	}
	if clierrors.IsValidationError(err) || clierrors.IsUserError(err) {
		return ExitUser
	}

	return ExitSystem
}
