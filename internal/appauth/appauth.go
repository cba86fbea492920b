// Package appauth implements GitHub App authentication: minting the
// app-level JWT and exchanging it for a short-lived installation token.
//
// The two-step handshake is upstream-mandated: the RS256 JWT proves which
// app is calling, while the installation token scopes access to one
// installation's repositories.
package appauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pyreview/internal/githubclient"
)

const (
	// jwtLifetime is the GitHub-imposed ceiling for app JWTs.
	jwtLifetime = 10 * time.Minute

	exchangeTimeout = 10 * time.Second
)

// Manager mints app JWTs and exchanges them for installation tokens.
type Manager struct {
	AppID      string
	PrivateKey []byte // PEM-encoded RSA private key

	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithBaseURL points the manager at a different API root (tests, GHE).
func WithBaseURL(u string) Option {
	return func(m *Manager) { m.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(m *Manager) { m.httpClient = h }
}

// WithClock replaces the time source used for JWT claims.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates an app auth manager for the given app identity.
func New(appID string, privateKeyPEM []byte, opts ...Option) *Manager {
	m := &Manager{
		AppID:      appID,
		PrivateKey: privateKeyPEM,
		baseURL:    githubclient.DefaultBaseURL,
		httpClient: &http.Client{Timeout: exchangeTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MintAppJWT produces the RS256-signed app JWT with iat=now, exp=now+600s,
// iss=app id.
func (m *Manager) MintAppJWT() (string, error) {
	if m.AppID == "" {
		return "", &githubclient.ConfigError{Message: "GitHub App ID not set"}
	}
	if len(m.PrivateKey) == 0 {
		return "", &githubclient.ConfigError{Message: "GitHub App private key not set"}
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(m.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("failed to parse app private key: %w", err)
	}

	now := m.now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtLifetime)),
		Issuer:    m.AppID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign app JWT: %w", err)
	}
	return signed, nil
}

// ExchangeInstallationToken trades the app JWT for an installation access
// token. The returned token is a call-scoped secret: it is never logged and
// never persisted.
func (m *Manager) ExchangeInstallationToken(ctx context.Context, installationID int64) (string, error) {
	appJWT, err := m.MintAppJWT()
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/app/installations/%d/access_tokens", m.baseURL, installationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build token exchange request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+appJWT)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", &githubclient.APIError{
			Reason:  githubclient.ReasonNetwork,
			Message: fmt.Sprintf("installation token exchange failed: %v", err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &githubclient.APIError{
			Reason:     githubclient.ReasonNetwork,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to read token exchange response: %v", err),
			Err:        err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &githubclient.APIError{
			Reason:     githubclient.ReasonHTTPError,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("installation token exchange failed with status %s", resp.Status),
		}
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &githubclient.APIError{
			Reason:  githubclient.ReasonDecode,
			Message: fmt.Sprintf("invalid JSON in token exchange response: %v", err),
			Err:     err,
		}
	}
	if payload.Token == "" {
		return "", &githubclient.APIError{
			Reason:  githubclient.ReasonDecode,
			Message: "token exchange response carried no token",
		}
	}

	return payload.Token, nil
}
