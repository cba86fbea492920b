package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyreview/internal/githubclient"
	"github.com/pyreview/internal/webhook"
)

const testSecret = "hush"

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

type recordingRunner struct {
	installationID int64
	repo           string
	prNumber       int
	calls          int
	err            error
}

func (r *recordingRunner) Run(ctx context.Context, installationID int64, repo string, prNumber int) error {
	r.calls++
	r.installationID = installationID
	r.repo = repo
	r.prNumber = prNumber
	return r.err
}

func newTestServer(t *testing.T, runner ReviewRunner) *httptest.Server {
	t.Helper()
	handler := NewWebhookHandler(webhook.NewVerifier(testSecret, true), runner)
	server := httptest.NewServer(NewServer("127.0.0.1", 0, handler).Handler())
	t.Cleanup(server.Close)
	return server
}

func deliver(t *testing.T, server *httptest.Server, event, body, signature string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, server.URL+"/webhook", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(eventHeader, event)
	if signature != "" {
		req.Header.Set(webhook.SignatureHeader, signature)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func prPayload(action string) string {
	return fmt.Sprintf(`{
		"action": %q,
		"pull_request": {"number": 7},
		"repository": {"full_name": "acme/svc"},
		"installation": {"id": 321}
	}`, action)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	runner := &recordingRunner{}
	server := newTestServer(t, runner)

	body := prPayload("opened")
	resp := deliver(t, server, "pull_request", body, sign("wrong-secret", []byte(body)))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = deliver(t, server, "pull_request", body, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, runner.calls)
}

func TestWebhookPing(t *testing.T) {
	server := newTestServer(t, &recordingRunner{})

	body := `{"zen": "Keep it simple."}`
	resp := deliver(t, server, "ping", body, sign(testSecret, []byte(body)))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebhookTriggersReview(t *testing.T) {
	for _, action := range []string{"opened", "synchronize", "reopened"} {
		t.Run(action, func(t *testing.T) {
			runner := &recordingRunner{}
			server := newTestServer(t, runner)

			body := prPayload(action)
			resp := deliver(t, server, "pull_request", body, sign(testSecret, []byte(body)))
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, 1, runner.calls)
			assert.Equal(t, int64(321), runner.installationID)
			assert.Equal(t, "acme/svc", runner.repo)
			assert.Equal(t, 7, runner.prNumber)
		})
	}
}

func TestWebhookIgnoresOtherActions(t *testing.T) {
	runner := &recordingRunner{}
	server := newTestServer(t, runner)

	body := prPayload("closed")
	resp := deliver(t, server, "pull_request", body, sign(testSecret, []byte(body)))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, runner.calls)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	runner := &recordingRunner{}
	server := newTestServer(t, runner)

	body := `{"ref": "refs/heads/main"}`
	resp := deliver(t, server, "push", body, sign(testSecret, []byte(body)))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, runner.calls)
}

func TestWebhookMalformedPayload(t *testing.T) {
	runner := &recordingRunner{}
	server := newTestServer(t, runner)

	body := `{"action": "opened", not json`
	resp := deliver(t, server, "pull_request", body, sign(testSecret, []byte(body)))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body = `{"action": "opened", "pull_request": {"number": 0}, "repository": {"full_name": "acme/svc"}}`
	resp = deliver(t, server, "pull_request", body, sign(testSecret, []byte(body)))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, runner.calls)
}

func TestWebhookUpstreamFailureIsBadGateway(t *testing.T) {
	runner := &recordingRunner{err: fmt.Errorf("wrapped: %w",
		&githubclient.APIError{Reason: githubclient.ReasonNetwork, Message: "connection refused"})}
	server := newTestServer(t, runner)

	body := prPayload("opened")
	resp := deliver(t, server, "pull_request", body, sign(testSecret, []byte(body)))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestWebhookUnexpectedFailureIsServerError(t *testing.T) {
	runner := &recordingRunner{err: fmt.Errorf("model exploded")}
	server := newTestServer(t, runner)

	body := prPayload("opened")
	resp := deliver(t, server, "pull_request", body, sign(testSecret, []byte(body)))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealthAndRootEndpoints(t *testing.T) {
	server := newTestServer(t, &recordingRunner{})

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}
