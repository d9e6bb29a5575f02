package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/coubctl/internal/coub"
	ctxerrors "github.com/salmonumbrella/coubctl/internal/errors"
	"github.com/salmonumbrella/coubctl/internal/output"
)

func validateErrorFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto", "text", "json", "yaml":
		return nil
	default:
		return ctxerrors.NewUserError(
			fmt.Sprintf("invalid --error-format %q", format),
			"Use one of: auto, text, json, yaml",
		)
	}
}

func effectiveErrorFormat(ctx context.Context) string {
	format := strings.ToLower(strings.TrimSpace(ErrorFormatFromContext(ctx)))
	if format == "" || format == "auto" {
		switch output.FormatFromContext(ctx) {
		case output.FormatJSON:
			return "json"
		case output.FormatYAML:
			return "yaml"
		default:
			return "text"
		}
	}
	return format
}

// printCommandError writes err to stderr. Interrupts exit quietly with
// ExitCanceled.
func printCommandError(ctx context.Context, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}

	switch effectiveErrorFormat(ctx) {
	case "json":
		enc := json.NewEncoder(stderrFromContext(ctx))
		enc.SetEscapeHTML(false)
		_ = enc.Encode(buildErrorEnvelope(err))
		return
	case "yaml":
		enc := yaml.NewEncoder(stderrFromContext(ctx))
		enc.SetIndent(2)
		_ = enc.Encode(buildErrorEnvelope(err))
		_ = enc.Close()
		return
	}

	_, _ = fmt.Fprintln(stderrFromContext(ctx), "Error:", err)
	if suggestion := ctxerrors.UserSuggestion(err); suggestion != "" {
		_, _ = fmt.Fprintf(stderrFromContext(ctx), "Hint: %s\n", suggestion)
	}
}

func buildErrorEnvelope(err error) map[string]interface{} {
	errMap := map[string]interface{}{
		"message":   err.Error(),
		"exit_code": ExitCode(err),
	}

	category := "system"
	if ctxerrors.IsUserError(err) || ctxerrors.IsValidationError(err) || ctxerrors.IsAuthError(err) {
		category = "user"
	}
	errMap["category"] = category

	if suggestion := ctxerrors.UserSuggestion(err); suggestion != "" {
		errMap["suggestion"] = suggestion
	}

	var contextual *ctxerrors.ContextualError
	if errors.As(err, &contextual) {
		errMap["method"] = contextual.Method
		errMap["url"] = contextual.URL
		if contextual.StatusCode > 0 {
			errMap["status"] = contextual.StatusCode
		}
	}

	var apiErr *coub.APIError
	if errors.As(err, &apiErr) {
		errMap["type"] = "coub_api"
		errMap["status"] = apiErr.StatusCode
		if apiErr.Response != nil && apiErr.Response.Error != "" {
			errMap["code"] = apiErr.Response.Error
		}
	}

	var authErr *ctxerrors.AuthError
	if errors.As(err, &authErr) {
		errMap["type"] = "auth"
		if authErr.Account != "" {
			errMap["account"] = authErr.Account
		}
	}

	var validationErr *ctxerrors.ValidationError
	if errors.As(err, &validationErr) {
		errMap["type"] = "validation"
		errMap["field"] = validationErr.Field
	}

	return map[string]interface{}{"error": errMap}
}
