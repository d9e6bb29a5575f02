package cmd

import (
	"context"
	"io"
	"os"

	"github.com/salmonumbrella/coubctl/internal/config"
	"github.com/salmonumbrella/coubctl/internal/output"
	"github.com/salmonumbrella/coubctl/internal/ui"
)

type (
	ioKey          struct{}
	errorFormatKey struct{}
	configKey      struct{}
	configPathKey  struct{}
	uiKey          struct{}
	debugKey       struct{}
	quietKey       struct{}
	versionKey     struct{}
)

type streams struct {
	stdout io.Writer
	stderr io.Writer
}

func withIO(ctx context.Context, stdout, stderr io.Writer) context.Context {
	return context.WithValue(ctx, ioKey{}, &streams{stdout: stdout, stderr: stderr})
}

func ioFromContext(ctx context.Context) *streams {
	if v, ok := ctx.Value(ioKey{}).(*streams); ok {
		return v
	}
	return nil
}

func stdoutFromContext(ctx context.Context) io.Writer {
	if s := ioFromContext(ctx); s != nil && s.stdout != nil {
		return s.stdout
	}
	return os.Stdout
}

func stderrFromContext(ctx context.Context) io.Writer {
	if s := ioFromContext(ctx); s != nil && s.stderr != nil {
		return s.stderr
	}
	return os.Stderr
}

func printerForContext(ctx context.Context) *output.Printer {
	return output.NewPrinter(stdoutFromContext(ctx), output.FormatFromContext(ctx))
}

// WithErrorFormat stores the error format in the context.
func WithErrorFormat(ctx context.Context, format string) context.Context {
	return context.WithValue(ctx, errorFormatKey{}, format)
}

// ErrorFormatFromContext retrieves the error format from context.
func ErrorFormatFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(errorFormatKey{}).(string); ok {
		return v
	}
	return ""
}

// WithConfig stores the effective config (defaults applied) in context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// ConfigFromContext retrieves the effective config, or defaults when unset.
func ConfigFromContext(ctx context.Context) *config.Config {
	if v, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return v
	}
	cfg := (&config.Config{}).WithDefaults()
	return &cfg
}

func withConfigPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, configPathKey{}, path)
}

// configPathFromContext returns the --config value or the default location.
func configPathFromContext(ctx context.Context) (string, error) {
	if v, ok := ctx.Value(configPathKey{}).(string); ok && v != "" {
		return v, nil
	}
	return config.DefaultConfigPath()
}

func withUI(ctx context.Context, u *ui.UI) context.Context {
	return context.WithValue(ctx, uiKey{}, u)
}

func uiFromContext(ctx context.Context) *ui.UI {
	if v, ok := ctx.Value(uiKey{}).(*ui.UI); ok {
		return v
	}
	return ui.New(stderrFromContext(ctx), ui.ColorAuto)
}

func withDebug(ctx context.Context, on bool) context.Context {
	return context.WithValue(ctx, debugKey{}, on)
}

func isDebug(ctx context.Context) bool {
	v, _ := ctx.Value(debugKey{}).(bool)
	return v
}

func withQuiet(ctx context.Context, on bool) context.Context {
	return context.WithValue(ctx, quietKey{}, on)
}

func isQuiet(ctx context.Context) bool {
	v, _ := ctx.Value(quietKey{}).(bool)
	return v
}

func withVersion(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, versionKey{}, version)
}

func versionFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(versionKey{}).(string); ok && v != "" {
		return v
	}
	return "dev"
}
