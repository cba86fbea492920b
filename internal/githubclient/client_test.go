package githubclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/pyreview/internal/retry"
)

// fastRetry keeps the three-attempt policy but with millisecond delays so
// tests run quickly.
func fastRetry() retry.RetryConfig {
	return retry.RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
		Multiplier: 2.0,
		Jitter:     false,
		LogRetries: false,
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return New(
		Credentials{Token: "test-token"},
		WithBaseURL(srv.URL),
		WithRetryConfig(fastRetry()),
		WithRateLimiter(rate.NewLimiter(rate.Inf, 1)),
	)
}

func TestRequestMissingToken(t *testing.T) {
	c := New(Credentials{})

	_, err := c.FetchPullRequestInfo(context.Background(), "octo/demo", 1)
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %T", err)
}

func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotAccept, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotVersion = r.Header.Get("X-GitHub-Api-Version")
		w.Write([]byte(`{"number": 1}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.FetchPullRequestInfo(context.Background(), "octo/demo", 1)
	require.NoError(t, err)

	assert.Equal(t, "token test-token", gotAuth)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
	assert.Equal(t, "2022-11-28", gotVersion)
}

func TestRetryTransientThenSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"number": 7, "title": "ok"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	info, err := c.FetchPullRequestInfo(context.Background(), "octo/demo", 7)
	require.NoError(t, err)

	assert.Equal(t, 7, info.Number)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "expected 2 retries after the first attempt")
}

func TestRetryExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.FetchPullRequestInfo(context.Background(), "octo/demo", 7)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %T", err)
	assert.Equal(t, ReasonHTTPError, apiErr.Reason)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "expected exactly 3 total attempts")
}

func TestNonTransientStatusNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Not Found"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.FetchPullRequestInfo(context.Background(), "octo/demo", 7)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Not Found")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "404 must not be retried")
}

func TestInvalidJSONIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"number": `)) // truncated
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.FetchPullRequestInfo(context.Background(), "octo/demo", 7)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ReasonDecode, apiErr.Reason)
}

func TestTimeoutTagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(
		Credentials{Token: "test-token"},
		WithBaseURL(srv.URL),
		WithRetryConfig(retry.RetryConfig{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}),
		WithRateLimiter(rate.NewLimiter(rate.Inf, 1)),
		WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}),
	)

	_, err := c.FetchPullRequestInfo(context.Background(), "octo/demo", 7)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ReasonTimeout, apiErr.Reason)
}

func TestBodySnippetTruncated(t *testing.T) {
	long := make([]byte, 4096)
	for i := range long {
		long[i] = 'x'
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write(long)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.FetchPullRequestInfo(context.Background(), "octo/demo", 7)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.LessOrEqual(t, len(apiErr.Body), maxBodySnippet)
}
