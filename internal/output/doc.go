// Package output provides output formatting for coubctl commands.
//
// It supports output formats:
//   - text: Human-readable key-value pairs and aligned lists (default)
//   - json: Pretty-printed JSON
//   - yaml: YAML format for structured data
//   - table: Tabular format with upper-case headers
//
// The format, an optional jq filter (--query) and an optional JSONPath
// expression (--jsonpath) are attached to the command context in root.go
// and read back by the Printer:
//
//	ctx := output.WithFormat(cmd.Context(), format)
//	ctx = output.WithQuery(ctx, query)
//	cmd.SetContext(ctx)
//
//	printer := output.NewPrinter(os.Stdout, output.FormatFromContext(ctx))
//	return printer.Print(ctx, data)
//
// JSONPath is applied first, then the jq filter. Values are normalized
// through encoding/json, so struct json tags decide field names everywhere.
package output
