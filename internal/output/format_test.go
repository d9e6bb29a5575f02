package output

import (
	"bytes"
	"context"
	"strings"
	"testing"

	clierrors "github.com/salmonumbrella/coubctl/internal/errors"
)

type row struct {
	Account string `json:"account"`
	Name    string `json:"name"`
	Rewards int    `json:"rewards"`
	Tasks   []int  `json:"tasks,omitempty"`
}

var rows = []row{
	{Account: "1", Name: "Ada", Rewards: 3, Tasks: []int{1, 2}},
	{Account: "2", Name: "Bob", Rewards: 0},
}

func render(t *testing.T, ctx context.Context, format Format, data interface{}) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewPrinter(&buf, format).Print(ctx, data); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":      FormatText,
		"TEXT":  FormatText,
		"json":  FormatJSON,
		"yml":   FormatYAML,
		"table": FormatTable,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestPrint_JSONKeepsFieldOrder(t *testing.T) {
	out := render(t, context.Background(), FormatJSON, rows[1])
	want := "{\n  \"account\": \"2\",\n  \"name\": \"Bob\",\n  \"rewards\": 0\n}\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestPrint_TableUsesStructOrder(t *testing.T) {
	out := render(t, context.Background(), FormatTable, rows)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if fields := strings.Fields(lines[0]); strings.Join(fields, " ") != "ACCOUNT NAME REWARDS" {
		t.Errorf("header = %q", lines[0])
	}
	if fields := strings.Fields(lines[1]); strings.Join(fields, " ") != "1 Ada 3" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestPrint_TextObject(t *testing.T) {
	data := map[string]interface{}{
		"run_id":   "abc",
		"claimed":  2,
		"accounts": []interface{}{map[string]interface{}{"account": "1", "name": "Ada"}},
		"empty":    []interface{}{},
		"ids":      []interface{}{1, 2},
	}
	out := render(t, context.Background(), FormatText, data)

	for _, want := range []string{
		"accounts:\n  ACCOUNT  NAME\n  1        Ada\n",
		"claimed: 2\n",
		"empty: []\n",
		"ids: 1, 2\n",
		"run_id: abc\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrint_YAML(t *testing.T) {
	out := render(t, context.Background(), FormatYAML, rows[1])
	if !strings.Contains(out, "account: \"2\"") || !strings.Contains(out, "name: Bob") {
		t.Errorf("unexpected yaml:\n%s", out)
	}
}

func TestPrint_Query(t *testing.T) {
	ctx := WithQuery(context.Background(), ".[] | select(.rewards > 0) | .name")

	if out := render(t, ctx, FormatJSON, rows); out != "\"Ada\"\n" {
		t.Errorf("json query output = %q", out)
	}
	if out := render(t, ctx, FormatText, rows); out != "Ada\n" {
		t.Errorf("text query output = %q", out)
	}
}

func TestPrint_InvalidQuery(t *testing.T) {
	ctx := WithQuery(context.Background(), ".[")
	err := NewPrinter(&bytes.Buffer{}, FormatJSON).Print(ctx, rows)
	if !clierrors.IsUserError(err) {
		t.Errorf("expected user error, got %v", err)
	}
	if ValidateQuery(".[") == nil {
		t.Error("ValidateQuery should reject .[")
	}
	if err := ValidateQuery(".name"); err != nil {
		t.Errorf("ValidateQuery(.name) = %v", err)
	}
}

func TestPrint_JSONPath(t *testing.T) {
	for _, path := range []string{"$[1].name", "[1].name"} {
		ctx := WithJSONPath(context.Background(), path)
		if out := render(t, ctx, FormatText, rows); out != "Bob\n" {
			t.Errorf("jsonpath %q output = %q", path, out)
		}
	}

	ctx := WithJSONPath(context.Background(), "$.missing")
	err := NewPrinter(&bytes.Buffer{}, FormatText).Print(ctx, rows[0])
	if !clierrors.IsUserError(err) {
		t.Errorf("expected user error for unknown key, got %v", err)
	}
}

func TestNormalizeJSONPath(t *testing.T) {
	tests := map[string]string{
		"":         "",
		"$.a":      "$.a",
		".a.b":     "$.a.b",
		"[0]":      "$[0]",
		"accounts": "$.accounts",
		"@.x":      "@.x",
	}
	for in, want := range tests {
		if got := normalizeJSONPath(in); got != want {
			t.Errorf("normalizeJSONPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()
	if FormatFromContext(ctx) != FormatText || QueryFromContext(ctx) != "" || JSONPathFromContext(ctx) != "" {
		t.Error("unexpected context defaults")
	}
	ctx = WithFormat(ctx, FormatYAML)
	if FormatFromContext(ctx) != FormatYAML {
		t.Error("WithFormat not applied")
	}
}

func TestPrint_Nil(t *testing.T) {
	if out := render(t, context.Background(), FormatJSON, nil); out != "" {
		t.Errorf("nil should print nothing, got %q", out)
	}
}
