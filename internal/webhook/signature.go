package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/rs/zerolog/log"
)

// SignatureHeader is the header GitHub sends the payload HMAC in.
const SignatureHeader = "X-Hub-Signature-256"

// ErrSecretRequired is returned by RequireSecret when the deployment runs in
// production mode without a configured webhook secret.
var ErrSecretRequired = errors.New("webhook secret must be set in production")

// Verifier checks the authenticity of inbound webhook payloads.
type Verifier struct {
	Secret     string
	Production bool
}

// NewVerifier creates a webhook signature verifier.
func NewVerifier(secret string, production bool) *Verifier {
	return &Verifier{Secret: secret, Production: production}
}

// RequireSecret enforces the startup-time invariant that a production
// deployment has a webhook secret configured. A missing secret in
// production is a fatal misconfiguration, not a per-request decision.
func (v *Verifier) RequireSecret() error {
	if v.Secret == "" && v.Production {
		return ErrSecretRequired
	}
	return nil
}

// Verify checks signatureHeader against the HMAC-SHA256 of the raw request
// body. Verification happens on the unparsed bytes, before any JSON
// deserialization, so a semantically-equivalent re-serialization cannot
// bypass it.
//
// With no secret configured in a non-production deployment the check is
// skipped with a warning. A missing header always fails.
func (v *Verifier) Verify(rawBody []byte, signatureHeader string) bool {
	if v.Secret == "" {
		if v.Production {
			// RequireSecret should have refused startup; never pass here.
			log.Error().Msg("Webhook secret not set in production, rejecting payload")
			return false
		}
		log.Warn().Msg("Webhook secret not set, signature verification disabled (development only)")
		return true
	}

	if signatureHeader == "" {
		log.Warn().Msg("No signature provided in webhook request")
		return false
	}

	mac := hmac.New(sha256.New, []byte(v.Secret))
	mac.Write(rawBody)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	// Constant-time comparison
	valid := hmac.Equal([]byte(expected), []byte(signatureHeader))
	if !valid {
		log.Warn().Msg("Invalid webhook signature")
	}
	return valid
}
