package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/salmonumbrella/coubctl/internal/coub"
	ctxerrors "github.com/salmonumbrella/coubctl/internal/errors"
	"github.com/salmonumbrella/coubctl/internal/output"
)

func envelope(t *testing.T, err error) map[string]interface{} {
	t.Helper()
	payload, ok := buildErrorEnvelope(err)["error"].(map[string]interface{})
	if !ok {
		t.Fatal("expected error map")
	}
	return payload
}

func TestBuildErrorEnvelope_UserError(t *testing.T) {
	payload := envelope(t, ctxerrors.NewUserError("invalid flag", "Use --help to see valid flags"))

	if payload["category"] != "user" {
		t.Errorf("category = %v, want user", payload["category"])
	}
	if payload["suggestion"] != "Use --help to see valid flags" {
		t.Errorf("suggestion = %v", payload["suggestion"])
	}
	if payload["exit_code"] != ExitUser {
		t.Errorf("exit_code = %v", payload["exit_code"])
	}
}

func TestBuildErrorEnvelope_APIError(t *testing.T) {
	apiErr := &coub.APIError{StatusCode: 422, Response: &coub.ErrorResponse{Error: "taken"}}
	payload := envelope(t, ctxerrors.WrapContext("POST", "https://coub.com/api/v2/sessions/signup_mini_app", 422, apiErr))

	if payload["type"] != "coub_api" || payload["status"] != 422 || payload["code"] != "taken" {
		t.Errorf("payload = %v", payload)
	}
	if payload["method"] != "POST" {
		t.Errorf("method = %v", payload["method"])
	}
	if payload["category"] != "system" {
		t.Errorf("category = %v", payload["category"])
	}
}

func TestBuildErrorEnvelope_AuthError(t *testing.T) {
	payload := envelope(t, ctxerrors.TokenUnavailableError("2"))
	if payload["type"] != "auth" || payload["account"] != "2" || payload["category"] != "user" {
		t.Errorf("payload = %v", payload)
	}
}

func TestBuildErrorEnvelope_ValidationError(t *testing.T) {
	payload := envelope(t, &ctxerrors.ValidationError{Field: "cycle_delay", Message: "bad"})
	if payload["type"] != "validation" || payload["field"] != "cycle_delay" {
		t.Errorf("payload = %v", payload)
	}
}

func TestBuildErrorEnvelope_SystemError(t *testing.T) {
	payload := envelope(t, errors.New("boom"))
	if payload["category"] != "system" {
		t.Errorf("category = %v, want system", payload["category"])
	}
	if _, ok := payload["suggestion"]; ok {
		t.Error("expected no suggestion for system error")
	}
}

func TestEffectiveErrorFormat(t *testing.T) {
	tests := []struct {
		format output.Format
		flag   string
		want   string
	}{
		{output.FormatText, "auto", "text"},
		{output.FormatJSON, "auto", "json"},
		{output.FormatYAML, "", "yaml"},
		{output.FormatTable, "auto", "text"},
		{output.FormatJSON, "text", "text"},
	}
	for _, tt := range tests {
		ctx := WithErrorFormat(output.WithFormat(context.Background(), tt.format), tt.flag)
		if got := effectiveErrorFormat(ctx); got != tt.want {
			t.Errorf("effectiveErrorFormat(%s, %q) = %q, want %q", tt.format, tt.flag, got, tt.want)
		}
	}
}

func TestPrintCommandError(t *testing.T) {
	var buf bytes.Buffer
	ctx := withIO(context.Background(), &bytes.Buffer{}, &buf)

	printCommandError(ctx, ctxerrors.NewUserError("no accounts", "Add one"))
	if got := buf.String(); got != "Error: no accounts\nHint: Add one\n" {
		t.Errorf("text output = %q", got)
	}

	buf.Reset()
	printCommandError(WithErrorFormat(ctx, "json"), errors.New("boom"))
	var decoded map[string]map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json output %q: %v", buf.String(), err)
	}
	if decoded["error"]["message"] != "boom" {
		t.Errorf("decoded = %v", decoded)
	}

	buf.Reset()
	printCommandError(WithErrorFormat(ctx, "yaml"), errors.New("boom"))
	if !strings.Contains(buf.String(), "message: boom") {
		t.Errorf("yaml output = %q", buf.String())
	}
}

func TestPrintCommandError_CanceledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	ctx := withIO(context.Background(), &bytes.Buffer{}, &buf)

	err := ctxerrors.WrapContext("GET", "https://rewards.coub.com/api/v2/get_user_rewards", 0, context.Canceled)
	printCommandError(ctx, err)
	printCommandError(WithErrorFormat(ctx, "json"), context.Canceled)

	if buf.Len() != 0 {
		t.Errorf("expected no output for an interrupt, got %q", buf.String())
	}
	if ExitCode(err) != ExitCanceled {
		t.Errorf("ExitCode() = %d, want %d", ExitCode(err), ExitCanceled)
	}
}

func TestValidateErrorFormat(t *testing.T) {
	for _, ok := range []string{"", "auto", "TEXT", "json", "yaml"} {
		if err := validateErrorFormat(ok); err != nil {
			t.Errorf("validateErrorFormat(%q) = %v", ok, err)
		}
	}
	if err := validateErrorFormat("xml"); !ctxerrors.IsUserError(err) {
		t.Errorf("validateErrorFormat(xml) = %v", err)
	}
}
