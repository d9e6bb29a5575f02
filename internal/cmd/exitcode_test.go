package cmd

import (
	"context"
	"fmt"
	"testing"

	"github.com/salmonumbrella/coubctl/internal/coub"
	clierrors "github.com/salmonumbrella/coubctl/internal/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"canceled", context.Canceled, ExitCanceled},
		{"wrapped canceled", fmt.Errorf("run: %w", context.Canceled), ExitCanceled},
		{"deadline", context.DeadlineExceeded, ExitTemp},
		{"user", clierrors.NewUserError("bad", "hint"), ExitUser},
		{"validation", &clierrors.ValidationError{Field: "x", Message: "bad"}, ExitUser},
		{"auth", &clierrors.AuthError{Reason: "no token"}, ExitAuth},
		{"auth wrapping 500", &clierrors.AuthError{Reason: "login failed", Err: &coub.APIError{StatusCode: 500}}, ExitAuth},
		{"api_404", &coub.APIError{StatusCode: 404}, ExitNotFound},
		{"api_401", &coub.APIError{StatusCode: 401}, ExitAuth},
		{"api_403", &coub.APIError{StatusCode: 403}, ExitAuth},
		{"api_400", &coub.APIError{StatusCode: 400}, ExitUser},
		{"api_502", &coub.APIError{StatusCode: 502}, ExitTemp},
		{"api_302", &coub.APIError{StatusCode: 302}, ExitSystem},
		{"contextual api", clierrors.WrapContext("GET", "u", 404, &coub.APIError{StatusCode: 404}), ExitNotFound},
		{"plain", fmt.Errorf("boom"), ExitSystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Fatalf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
