package debug

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"
)

const maxResponseBody = 1000

var tokenFields = regexp.MustCompile(`"(api_token|access_token)"\s*:\s*"[^"]*"`)

// sensitiveHeaders are printed with all but their last four characters
// removed. Keys are canonical header names.
var sensitiveHeaders = map[string]bool{
	"Authorization":      true,
	"X-Auth-Token":       true,
	"X-Tg-Authorization": true,
}

// Transport wraps http.RoundTripper to dump requests and responses.
type Transport struct {
	Transport http.RoundTripper
	Output    io.Writer
}

// NewTransport creates a Transport with the given base transport
// If output is nil, it defaults to os.Stderr
func NewTransport(base http.RoundTripper, output io.Writer) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if output == nil {
		output = os.Stderr
	}
	return &Transport{
		Transport: base,
		Output:    output,
	}
}

// Redact hides a credential header value, keeping a Bearer prefix and the
// last four characters.
func Redact(value string) string {
	prefix := ""
	if strings.HasPrefix(value, "Bearer ") {
		prefix = "Bearer "
		value = value[len(prefix):]
	}
	if len(value) <= 10 {
		return prefix + "[redacted]"
	}
	return prefix + "..." + value[len(value)-4:]
}

func (t *Transport) writeHeaders(h http.Header) {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		val := strings.Join(h[key], ", ")
		if sensitiveHeaders[http.CanonicalHeaderKey(key)] {
			val = Redact(val)
		}
		_, _ = fmt.Fprintf(t.Output, "    %s: %s\n", key, val)
	}
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		s = s[:n] + "... [truncated]"
	}
	return s
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	_, _ = fmt.Fprintf(t.Output, "\n--> %s %s\n", req.Method, req.URL)
	t.writeHeaders(req.Header)

	if req.Body != nil {
		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			_, _ = fmt.Fprintf(t.Output, "    [ERROR reading request body: %v]\n", err)
		} else {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			if len(bodyBytes) > 0 {
				// Form bodies carry signed init data.
				_, _ = fmt.Fprintf(t.Output, "    Body: [%d bytes redacted]\n", len(bodyBytes))
			}
		}
	}

	resp, err := t.Transport.RoundTrip(req)

	duration := time.Since(start)

	if err != nil {
		_, _ = fmt.Fprintf(t.Output, "<-- ERROR: %v (%s)\n\n", err, duration)
		return resp, err
	}

	_, _ = fmt.Fprintf(t.Output, "<-- %s (%s)\n", resp.Status, duration)
	t.writeHeaders(resp.Header)

	if resp.Body != nil {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			_, _ = fmt.Fprintf(t.Output, "    [ERROR reading response body: %v]\n\n", err)
		} else {
			resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			if len(bodyBytes) > 0 {
				body := tokenFields.ReplaceAll(bodyBytes, []byte(`"$1":"[redacted]"`))
				_, _ = fmt.Fprintf(t.Output, "    Body: %s\n", truncate(body, maxResponseBody))
			}
		}
	}

	_, _ = fmt.Fprintln(t.Output)

	return resp, err
}
