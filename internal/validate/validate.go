package validate

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// NonEmpty validates that a required string field is not empty.
func NonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: cannot be empty", field)
	}
	return nil
}

// OneOf validates that value is one of the allowed choices.
func OneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: must be one of %s, got %q", field, strings.Join(allowed, "|"), value)
}

// URL validates that the urlStr is an http(s) URL with a host.
func URL(field, urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("%s: cannot be empty", field)
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%s: must be a valid URL, got error: %v", field, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s: must use http or https, got %q", field, urlStr)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s: must have a host, got %q", field, urlStr)
	}

	return nil
}

// Duration parses a Go duration string (2s, 5m, 24h) and rejects negative values.
func Duration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("%s: cannot be empty", field)
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: must be a duration like 5s or 24h, got %q", field, value)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative, got %s", field, value)
	}
	return d, nil
}

// NonNegative validates a count such as a retry limit.
func NonNegative(field string, n int) error {
	if n < 0 {
		return fmt.Errorf("%s: must be at least 0, got %d", field, n)
	}
	return nil
}
