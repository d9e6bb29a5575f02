// Package accounts reads the account data file and parses each line's
// mini-app init data.
package accounts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// formFields is the order the login form and x-tg-authorization header
// carry init data fields in.
var formFields = []string{"user", "chat_instance", "chat_type", "start_param", "auth_date", "hash"}

// User is the Telegram user embedded in init data.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	IsPremium    bool   `json:"is_premium,omitempty"`
}

// Account is one line of the data file.
type Account struct {
	// Index is zero-based position in the data file.
	Index int
	Raw   string
	User  User

	// userJSON is the compacted user field with its original key order.
	userJSON string
	fields   map[string]string
}

// ReadFile returns the non-empty trimmed lines of the data file.
func ReadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}
	return SplitLines(string(data)), nil
}

// SplitLines splits on newlines, trims whitespace (including a trailing \r)
// and drops empty lines.
func SplitLines(data string) []string {
	var lines []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// Parse decodes a raw init data query string.
func Parse(index int, raw string) (*Account, error) {
	values, err := url.ParseQuery(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("account %d: invalid init data: %w", index+1, err)
	}

	userJSON := values.Get("user")
	if !strings.HasPrefix(userJSON, "{") {
		// Some clients export the user field double-encoded.
		if decoded, err := url.QueryUnescape(userJSON); err == nil {
			userJSON = decoded
		}
	}
	if userJSON == "" {
		return nil, fmt.Errorf("account %d: init data has no user field", index+1)
	}

	var user User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, fmt.Errorf("account %d: invalid user JSON: %w", index+1, err)
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(userJSON)); err != nil {
		return nil, fmt.Errorf("account %d: invalid user JSON: %w", index+1, err)
	}

	fields := make(map[string]string, len(formFields))
	for _, name := range formFields[1:] {
		if values.Has(name) {
			fields[name] = values.Get(name)
		}
	}

	return &Account{
		Index:    index,
		Raw:      raw,
		User:     user,
		userJSON: compact.String(),
		fields:   fields,
	}, nil
}

// ParseAll parses every line, returning the first error encountered.
func ParseAll(lines []string) ([]*Account, error) {
	accts := make([]*Account, 0, len(lines))
	for i, line := range lines {
		acct, err := Parse(i, line)
		if err != nil {
			return nil, err
		}
		accts = append(accts, acct)
	}
	return accts, nil
}

// Load reads and parses the data file. An empty file is an error.
func Load(path string) ([]*Account, error) {
	lines, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no valid data found in %s", path)
	}
	return ParseAll(lines)
}

// Key is the 1-based token store key.
func (a *Account) Key() string {
	return strconv.Itoa(a.Index + 1)
}

// DisplayName is "first last", falling back to @username and then the
// account number.
func (a *Account) DisplayName() string {
	name := strings.TrimSpace(a.User.FirstName + " " + a.User.LastName)
	if name != "" {
		return name
	}
	if a.User.Username != "" {
		return "@" + a.User.Username
	}
	return "account " + a.Key()
}

// Form is the normalized init data: fixed field order, compacted user JSON,
// absent fields omitted. It is both the login form body and the
// x-tg-authorization header value.
func (a *Account) Form() string {
	var b strings.Builder
	for _, name := range formFields {
		var value string
		if name == "user" {
			value = a.userJSON
		} else {
			v, ok := a.fields[name]
			if !ok {
				continue
			}
			value = v
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(escape(value))
	}
	return b.String()
}

// escape percent-encodes like url.QueryEscape but with %20 for spaces.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
