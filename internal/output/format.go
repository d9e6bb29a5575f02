package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format represents the output format type.
type Format string

const (
	// FormatText is human-readable key-value format (default).
	FormatText Format = "text"
	// FormatJSON is pretty-printed JSON format.
	FormatJSON Format = "json"
	// FormatYAML is YAML format.
	FormatYAML Format = "yaml"
	// FormatTable is tabular format for lists.
	FormatTable Format = "table"
)

// ParseFormat converts a string to a Format type.
// Empty string defaults to FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatTable:
		return FormatTable, nil
	default:
		return "", errors.New("invalid --output format (expected text|json|yaml|table)")
	}
}

// Printer handles output formatting across different formats.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a new Printer that writes to w in the given format.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Print outputs data in the configured format after applying the context's
// --jsonpath and --query filters.
func (p *Printer) Print(ctx context.Context, data interface{}) error {
	if data == nil {
		return nil
	}

	path := strings.TrimSpace(JSONPathFromContext(ctx))
	query := strings.TrimSpace(QueryFromContext(ctx))

	// Unfiltered JSON keeps struct field order.
	if p.format == FormatJSON && path == "" && query == "" {
		return p.encodeJSON(data)
	}

	columns := columnsOf(data)
	value, err := normalizeToInterface(data)
	if err != nil {
		return err
	}

	if path != "" {
		if value, err = applyJSONPath(value, path); err != nil {
			return err
		}
	}

	if query != "" {
		results, err := runQuery(query, value)
		if err != nil {
			return err
		}
		if p.format == FormatJSON {
			for _, r := range results {
				if err := p.encodeJSON(r); err != nil {
					return err
				}
			}
			return nil
		}
		switch len(results) {
		case 0:
			return nil
		case 1:
			value = results[0]
		default:
			value = results
		}
	}

	switch p.format {
	case FormatJSON:
		return p.encodeJSON(value)
	case FormatYAML:
		return p.printYAML(value)
	case FormatTable:
		return p.printTable(value, columns)
	case FormatText:
		return p.printText(value, columns, "")
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

func (p *Printer) encodeJSON(v interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printYAML outputs data as YAML.
func (p *Printer) printYAML(data interface{}) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}

// printText renders maps as key-value pairs with nested values indented,
// lists of objects as aligned tables and scalars directly.
func (p *Printer) printText(v interface{}, columns []string, indent string) error {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		for _, key := range orderedKeys(val, columns) {
			if err := p.printTextField(key, val[key], indent); err != nil {
				return err
			}
		}
		return nil
	case []interface{}:
		if isObjectList(val) {
			return p.writeTable(val, columns, indent)
		}
		for _, item := range val {
			if _, err := fmt.Fprintf(p.w, "%s%s\n", indent, formatCell(item)); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintf(p.w, "%s%s\n", indent, formatCell(val))
		return err
	}
}

func (p *Printer) printTextField(key string, v interface{}, indent string) error {
	switch val := v.(type) {
	case nil:
		_, err := fmt.Fprintf(p.w, "%s%s: <nil>\n", indent, key)
		return err
	case map[string]interface{}:
		if len(val) == 0 {
			_, err := fmt.Fprintf(p.w, "%s%s: {}\n", indent, key)
			return err
		}
		if _, err := fmt.Fprintf(p.w, "%s%s:\n", indent, key); err != nil {
			return err
		}
		return p.printText(val, nil, indent+"  ")
	case []interface{}:
		switch {
		case len(val) == 0:
			_, err := fmt.Fprintf(p.w, "%s%s: []\n", indent, key)
			return err
		case isObjectList(val):
			if _, err := fmt.Fprintf(p.w, "%s%s:\n", indent, key); err != nil {
				return err
			}
			return p.writeTable(val, nil, indent+"  ")
		default:
			parts := make([]string, len(val))
			for i, item := range val {
				parts[i] = formatCell(item)
			}
			_, err := fmt.Fprintf(p.w, "%s%s: %s\n", indent, key, strings.Join(parts, ", "))
			return err
		}
	default:
		_, err := fmt.Fprintf(p.w, "%s%s: %s\n", indent, key, formatCell(val))
		return err
	}
}

// printTable renders lists as tables and single objects as KEY/VALUE rows.
func (p *Printer) printTable(v interface{}, columns []string) error {
	switch val := v.(type) {
	case nil:
		return nil
	case []interface{}:
		if isObjectList(val) {
			return p.writeTable(val, columns, "")
		}
		rows := make([]interface{}, len(val))
		for i, item := range val {
			rows[i] = map[string]interface{}{"value": item}
		}
		return p.writeTable(rows, []string{"value"}, "")
	case map[string]interface{}:
		tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "KEY\tVALUE")
		for _, key := range orderedKeys(val, columns) {
			_, _ = fmt.Fprintf(tw, "%s\t%s\n", key, formatCell(val[key]))
		}
		return tw.Flush()
	default:
		_, err := fmt.Fprintln(p.w, formatCell(val))
		return err
	}
}

// writeTable renders a list of objects with one column per scalar key.
// Keys holding non-empty nested values are left out.
func (p *Printer) writeTable(rows []interface{}, columns []string, indent string) error {
	keys := tableKeys(rows, columns)
	if len(keys) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	header := make([]string, len(keys))
	for i, k := range keys {
		header[i] = strings.ToUpper(k)
	}
	_, _ = fmt.Fprintf(tw, "%s%s\n", indent, strings.Join(header, "\t"))

	for _, row := range rows {
		m, _ := row.(map[string]interface{})
		cells := make([]string, len(keys))
		for i, k := range keys {
			if cell, ok := m[k]; ok && cell != nil {
				cells[i] = formatCell(cell)
			} else {
				cells[i] = "-"
			}
		}
		_, _ = fmt.Fprintf(tw, "%s%s\n", indent, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func tableKeys(rows []interface{}, columns []string) []string {
	seen := map[string]bool{}
	nested := map[string]bool{}
	for _, row := range rows {
		m, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		for k, v := range m {
			seen[k] = true
			switch val := v.(type) {
			case map[string]interface{}:
				if len(val) > 0 {
					nested[k] = true
				}
			case []interface{}:
				if len(val) > 0 {
					nested[k] = true
				}
			}
		}
	}

	var keys []string
	used := map[string]bool{}
	for _, c := range columns {
		if seen[c] && !nested[c] && !used[c] {
			keys = append(keys, c)
			used[c] = true
		}
	}
	var rest []string
	for k := range seen {
		if !nested[k] && !used[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func orderedKeys(m map[string]interface{}, columns []string) []string {
	keys := make([]string, 0, len(m))
	used := map[string]bool{}
	for _, c := range columns {
		if _, ok := m[c]; ok && !used[c] {
			keys = append(keys, c)
			used[c] = true
		}
	}
	var rest []string
	for k := range m {
		if !used[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func isObjectList(items []interface{}) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if _, ok := item.(map[string]interface{}); !ok {
			return false
		}
	}
	return true
}

// formatCell renders a normalized scalar; nested values become compact JSON.
func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		buf, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(buf)
	}
}

// columnsOf returns json field names in declaration order when data is a
// struct or a list of structs.
func columnsOf(data interface{}) []string {
	t := reflect.TypeOf(data)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if name := fieldJSONName(f); name != "-" {
			cols = append(cols, name)
		}
	}
	return cols
}

// fieldJSONName returns the json tag name for a struct field, or the field name.
func fieldJSONName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		if tag != "" {
			return tag
		}
	}
	return f.Name
}

// normalizeToInterface round-trips data through encoding/json so every
// formatter and filter sees plain maps, slices and scalars.
func normalizeToInterface(data interface{}) (interface{}, error) {
	switch data.(type) {
	case map[string]interface{}, []interface{}:
		return data, nil
	}
	buf, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode data: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}
	return out, nil
}
