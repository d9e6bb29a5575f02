package coub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/salmonumbrella/coubctl/internal/debug"
	ctxerrors "github.com/salmonumbrella/coubctl/internal/errors"
)

const (
	DefaultAPIURL     = "https://coub.com/api/v2"
	DefaultRewardsURL = "https://rewards.coub.com/api/v2"

	defaultTimeout      = 30 * time.Second
	defaultRequestDelay = 2 * time.Second
	maxRetries          = 3
	maxErrorBody        = 512

	formContentType = "application/x-www-form-urlencoded"
)

// Client talks to the session API and the rewards API.
type Client struct {
	httpClient   *http.Client
	apiURL       string
	rewardsURL   string
	userAgent    string
	maxRetries   int
	requestDelay time.Duration
}

// NewClient creates a client with production endpoints.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		apiURL:       DefaultAPIURL,
		rewardsURL:   DefaultRewardsURL,
		userAgent:    "coubctl",
		maxRetries:   maxRetries,
		requestDelay: defaultRequestDelay,
	}
}

// WithHTTPClient sets a custom HTTP client
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// WithAPIURL overrides the session API base URL.
func (c *Client) WithAPIURL(u string) *Client {
	if u != "" {
		c.apiURL = strings.TrimRight(u, "/")
	}
	return c
}

// WithRewardsURL overrides the rewards API base URL.
func (c *Client) WithRewardsURL(u string) *Client {
	if u != "" {
		c.rewardsURL = strings.TrimRight(u, "/")
	}
	return c
}

// WithUserAgent sets the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// WithMaxRetries sets the maximum number of retries for transient errors.
func (c *Client) WithMaxRetries(n int) *Client {
	if n >= 0 {
		c.maxRetries = n
	}
	return c
}

// WithRequestDelay sets the pause before every attempt.
func (c *Client) WithRequestDelay(d time.Duration) *Client {
	if d >= 0 {
		c.requestDelay = d
	}
	return c
}

// WithDebugOutput enables request/response dumps to w.
func (c *Client) WithDebugOutput(w io.Writer) *Client {
	c.httpClient.Transport = debug.NewTransport(c.httpClient.Transport, w)
	return c
}

type request struct {
	method  string
	url     string
	query   url.Values
	form    string
	headers map[string]string
}

func (r request) fullURL() string {
	if len(r.query) == 0 {
		return r.url
	}
	return r.url + "?" + r.query.Encode()
}

func (c *Client) wait(ctx context.Context) error {
	if c.requestDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.requestDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// doRequest sends req, pausing requestDelay before every attempt. Transport
// failures and 5xx responses are retried up to maxRetries times; any other
// non-2xx status is returned immediately as an *APIError.
func (c *Client) doRequest(ctx context.Context, req request) (*http.Response, error) {
	target := req.fullURL()
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("retrying request",
				"method", req.method,
				"url", req.url,
				"attempt", attempt,
				"error", lastErr)
		}

		if err := c.wait(ctx); err != nil {
			return nil, ctxerrors.WrapContext(req.method, target, 0, err)
		}

		resp, retry, err := c.doRequestOnce(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctxerrors.WrapContext(req.method, target, 0, ctx.Err())
		}
		if !retry {
			if code := getStatusCode(err); code != 0 {
				slog.Warn("request rejected", "method", req.method, "url", req.url, "status", code)
			}
			return nil, ctxerrors.WrapContext(req.method, target, getStatusCode(err), err)
		}
		slog.Error("request failed", "method", req.method, "url", req.url, "error", err)
	}

	if code := getStatusCode(lastErr); code >= 500 {
		slog.Error("server down, giving up", "method", req.method, "url", req.url, "status", code)
	}
	return nil, ctxerrors.WrapContext(req.method, target, getStatusCode(lastErr), lastErr)
}

// doRequestOnce performs a single attempt. The bool reports whether the
// failure is transient.
func (c *Client) doRequestOnce(ctx context.Context, req request) (*http.Response, bool, error) {
	var body io.Reader
	if req.method != http.MethodGet {
		body = strings.NewReader(req.form)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.fullURL(), body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json, text/plain, */*")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", formContentType)
	}
	for key, value := range req.headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, false, nil
	}

	defer func() { _ = resp.Body.Close() }()
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var errResp ErrorResponse
	if json.Unmarshal(raw, &errResp) == nil && (errResp.Error != "" || errResp.Message != "") {
		apiErr.Response = &errResp
	} else {
		apiErr.Body = string(raw)
	}
	return nil, isRetryable(resp.StatusCode), apiErr
}

// doJSON sends req and decodes the JSON response into result.
func (c *Client) doJSON(ctx context.Context, req request, result interface{}) error {
	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if errors.Is(err, io.EOF) {
			return ctxerrors.WrapContext(req.method, req.fullURL(), resp.StatusCode, errors.New("empty response body"))
		}
		return ctxerrors.WrapContext(req.method, req.fullURL(), resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func bearerHeaders(bearer, tgAuth string) map[string]string {
	return map[string]string{
		"Authorization":      "Bearer " + bearer,
		"X-Tg-Authorization": tgAuth,
	}
}
