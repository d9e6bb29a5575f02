package output

import "context"

type formatKey struct{}

type queryKey struct{}

type jsonPathKey struct{}

// WithFormat returns a new context with the output format attached.
func WithFormat(ctx context.Context, format Format) context.Context {
	return context.WithValue(ctx, formatKey{}, format)
}

// FormatFromContext retrieves the output format from the context.
// If no format is set in the context, it returns FormatText as the default.
func FormatFromContext(ctx context.Context) Format {
	if v, ok := ctx.Value(formatKey{}).(Format); ok {
		return v
	}
	return FormatText
}

// WithQuery adds a jq query string to context.
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

// QueryFromContext retrieves the jq query from context.
func QueryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(queryKey{}).(string); ok {
		return v
	}
	return ""
}

// WithJSONPath adds a JSONPath expression to context.
func WithJSONPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, jsonPathKey{}, path)
}

// JSONPathFromContext retrieves the JSONPath expression from context.
func JSONPathFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(jsonPathKey{}).(string); ok {
		return v
	}
	return ""
}
