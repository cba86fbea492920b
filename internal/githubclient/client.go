package githubclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/pyreview/internal/retry"
)

const (
	// DefaultBaseURL is the GitHub REST API root.
	DefaultBaseURL = "https://api.github.com"

	acceptJSON     = "application/vnd.github+json"
	acceptDiff     = "application/vnd.github.diff"
	apiVersion     = "2022-11-28"
	attemptTimeout = 30 * time.Second
)

// Credentials holds the bearer credential presented on every call. It is an
// explicit value injected at construction time so tests can supply fakes
// without touching the process environment.
type Credentials struct {
	Token string
}

// Method is the closed set of HTTP verbs the client issues.
type Method int

const (
	Get Method = iota
	Post
	Put
	Patch
	Delete
)

// methodVerbs maps the Method enum to wire verbs. Keeping this as a table
// gives exhaustiveness at the type level instead of a runtime failure on an
// unsupported method string.
var methodVerbs = map[Method]string{
	Get:    http.MethodGet,
	Post:   http.MethodPost,
	Put:    http.MethodPut,
	Patch:  http.MethodPatch,
	Delete: http.MethodDelete,
}

func (m Method) String() string { return methodVerbs[m] }

// Client is a typed GitHub REST client with retry, rate limiting, and a
// normalized error taxonomy. It holds no per-call state and is safe for
// concurrent use; the underlying http.Client connection pool is the only
// shared resource.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	limiter    *rate.Limiter
	retryCfg   retry.RetryConfig
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (tests, GHE).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg retry.RetryConfig) Option {
	return func(c *Client) { c.retryCfg = cfg }
}

// WithRateLimiter replaces the default request rate limiter.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// New creates a GitHub API client using the given credentials.
func New(creds Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		creds:      creds,
		httpClient: &http.Client{Timeout: attemptTimeout},
		limiter:    rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
		retryCfg:   retry.HTTPRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request performs one authenticated API call with retry for transient
// statuses and returns the raw response body.
func (c *Client) request(ctx context.Context, method Method, endpoint string, body interface{}, accept string) ([]byte, error) {
	if c.creds.Token == "" {
		return nil, &ConfigError{Message: "GitHub token not set"}
	}

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, newAPIError(ReasonDecode, 0, fmt.Sprintf("failed to encode request body: %v", err), "", err)
		}
		payload = data
	}

	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")

	log.Debug().Str("method", method.String()).Str("endpoint", endpoint).Msg("GitHub API request")

	var respBody []byte
	result := retry.RetryWithBackoffAndReason(ctx, c.retryCfg, func() (error, string) {
		data, attemptErr := c.attempt(ctx, method, url, payload, accept)
		if attemptErr != nil {
			return attemptErr, retryReason(attemptErr)
		}
		respBody = data
		return nil, ""
	})

	if !result.Success {
		return nil, unwrapAttemptError(result.LastError)
	}
	return respBody, nil
}

// attempt performs a single HTTP round trip. Transient statuses come back as
// plain errors so the retry loop tries again; everything else is wrapped
// with retry.Permanent.
func (c *Client) attempt(ctx context.Context, method Method, url string, payload []byte, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, retry.Permanent(newAPIError(ReasonNetwork, 0, fmt.Sprintf("rate limiter wait: %v", err), "", err))
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method.String(), url, reader)
	if err != nil {
		return nil, retry.Permanent(newAPIError(ReasonNetwork, 0, fmt.Sprintf("failed to build request: %v", err), "", err))
	}

	req.Header.Set("Authorization", "token "+c.creds.Token)
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, newAPIError(ReasonTimeout, 0, fmt.Sprintf("request timed out: %v", err), "", err)
		}
		return nil, newAPIError(ReasonNetwork, 0, fmt.Sprintf("request failed: %v", err), "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newAPIError(ReasonNetwork, resp.StatusCode, fmt.Sprintf("failed to read response body: %v", err), "", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(ReasonHTTPError, resp.StatusCode,
			fmt.Sprintf("request failed with status %s", resp.Status), string(data), nil)
		if retry.IsRetryableStatus(resp.StatusCode) {
			return nil, apiErr
		}
		return nil, retry.Permanent(apiErr)
	}

	return data, nil
}

// requestJSON performs a call and decodes the JSON response into out. A 2xx
// body that fails to decode is a decode error, distinct from transport
// failures. Empty bodies are tolerated when out is nil.
func (c *Client) requestJSON(ctx context.Context, method Method, endpoint string, body, out interface{}) error {
	data, err := c.request(ctx, method, endpoint, body, acceptJSON)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return newAPIError(ReasonDecode, 0, fmt.Sprintf("invalid JSON in GitHub API response: %v", err), string(data), err)
	}
	return nil
}

// requestRaw performs a call with a non-JSON accept header and returns the
// body as text, bypassing JSON decoding.
func (c *Client) requestRaw(ctx context.Context, method Method, endpoint, accept string) (string, error) {
	data, err := c.request(ctx, method, endpoint, nil, accept)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func isTimeout(err error) bool {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}
	// http.Client wraps timeouts in url.Error which implements net.Error,
	// but double-check the deadline sentinel for context-based timeouts.
	return strings.Contains(err.Error(), "context deadline exceeded") ||
		strings.Contains(err.Error(), "Client.Timeout exceeded")
}

func retryReason(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode > 0 {
			return fmt.Sprintf("%s_%d", apiErr.Reason, apiErr.StatusCode)
		}
		return string(apiErr.Reason)
	}
	return err.Error()
}

// unwrapAttemptError strips the retry.Permanent marker so callers always see
// the typed client error.
func unwrapAttemptError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return err
}
