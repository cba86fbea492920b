package appauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyreview/internal/githubclient"
)

func generateKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return key, pemBytes
}

func TestMintAppJWTClaims(t *testing.T) {
	key, pemBytes := generateKey(t)

	fixed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	m := New("12345", pemBytes, WithClock(func() time.Time { return fixed }))

	signed, err := m.MintAppJWT()
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(signed, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (interface{}, error) {
		require.Equal(t, jwt.SigningMethodRS256.Alg(), tok.Method.Alg())
		return &key.PublicKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return fixed }))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(*jwt.RegisteredClaims)
	assert.Equal(t, "12345", claims.Issuer)
	assert.Equal(t, fixed.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixed.Add(10*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestMintAppJWTMissingCredentials(t *testing.T) {
	_, pemBytes := generateKey(t)

	var cfgErr *githubclient.ConfigError

	_, err := New("", pemBytes).MintAppJWT()
	require.ErrorAs(t, err, &cfgErr)

	_, err = New("12345", nil).MintAppJWT()
	require.ErrorAs(t, err, &cfgErr)
}

func TestMintAppJWTBadKey(t *testing.T) {
	m := New("12345", []byte("not a pem key"))
	_, err := m.MintAppJWT()
	require.Error(t, err)
}

func TestExchangeInstallationToken(t *testing.T) {
	_, pemBytes := generateKey(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/app/installations/678/access_tokens", r.URL.Path)
		auth := r.Header.Get("Authorization")
		assert.Contains(t, auth, "Bearer ")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"token": "ghs_shortlived", "expires_at": "2026-08-20T13:00:00Z"}`))
	}))
	defer srv.Close()

	m := New("12345", pemBytes, WithBaseURL(srv.URL))
	token, err := m.ExchangeInstallationToken(context.Background(), 678)
	require.NoError(t, err)
	assert.Equal(t, "ghs_shortlived", token)
}

func TestExchangeInstallationTokenHTTPError(t *testing.T) {
	_, pemBytes := generateKey(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "Bad credentials"}`))
	}))
	defer srv.Close()

	m := New("12345", pemBytes, WithBaseURL(srv.URL))
	_, err := m.ExchangeInstallationToken(context.Background(), 678)
	require.Error(t, err)

	var apiErr *githubclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, githubclient.ReasonHTTPError, apiErr.Reason)
}
