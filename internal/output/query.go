package output

import (
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/itchyny/gojq"

	clierrors "github.com/salmonumbrella/coubctl/internal/errors"
)

// ValidateQuery reports whether a --query expression parses and compiles.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	_, err := compileQuery(query)
	return err
}

func compileQuery(query string) (*gojq.Code, error) {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, formatInvalidQueryErr(err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, formatInvalidQueryErr(err)
	}
	return code, nil
}

// runQuery runs a gojq query over normalized data and collects every result.
func runQuery(query string, data interface{}) ([]interface{}, error) {
	code, err := compileQuery(query)
	if err != nil {
		return nil, err
	}

	var results []interface{}
	iter := code.Run(data)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if queryErr, isErr := v.(error); isErr {
			return nil, fmt.Errorf("query error: %s", safeErrorMessage(queryErr))
		}
		results = append(results, v)
	}
	return results, nil
}

func formatInvalidQueryErr(err error) error {
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	if strings.Contains(msg, "unexpected eof") {
		return clierrors.WrapUserError(err, "invalid --query", "The query looks incomplete; quote it fully")
	}
	return clierrors.WrapUserError(err, "invalid --query", "Example: --query '.accounts[] | .name'")
}

// safeErrorMessage returns a best-effort string for errors whose Error method
// may panic (seen with some gojq runtime errors on typed values).
func safeErrorMessage(err error) (msg string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			msg = fmt.Sprintf("%T", err)
		}
	}()

	msg = strings.TrimSpace(err.Error())
	if msg == "" {
		return fmt.Sprintf("%T", err)
	}
	return msg
}

func applyJSONPath(data interface{}, raw string) (interface{}, error) {
	path := normalizeJSONPath(raw)
	if path == "" {
		return nil, clierrors.NewUserError("invalid --jsonpath value", "Example: --jsonpath '$.accounts[0].name'")
	}
	value, err := jsonpath.Get(path, data)
	if err != nil {
		return nil, clierrors.WrapUserError(err, "invalid --jsonpath value", "Example: --jsonpath '$.accounts[0].name'")
	}
	return value, nil
}

// normalizeJSONPath accepts "$.a", ".a", "[0]" and bare "a".
func normalizeJSONPath(path string) string {
	trimmed := strings.TrimSpace(path)
	switch {
	case trimmed == "":
		return ""
	case strings.HasPrefix(trimmed, "$"), strings.HasPrefix(trimmed, "@"):
		return trimmed
	case strings.HasPrefix(trimmed, "."), strings.HasPrefix(trimmed, "["):
		return "$" + trimmed
	default:
		return "$." + trimmed
	}
}
