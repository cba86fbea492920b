package githubclient

import (
	"errors"
	"fmt"
)

// Reason tags an APIError with the kind of upstream failure so callers can
// distinguish transport problems from protocol-level ones.
type Reason string

const (
	ReasonHTTPError Reason = "http_error"
	ReasonTimeout   Reason = "timeout"
	ReasonNetwork   Reason = "network"
	ReasonDecode    Reason = "decode"
	ReasonNotFound  Reason = "not_found"
)

// ConfigError indicates a required credential is absent. Fatal to the call,
// never retried.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// ValidationError indicates malformed caller input. Raised before any
// network I/O and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// maxBodySnippet bounds how much of an error response body an APIError keeps.
const maxBodySnippet = 512

// APIError is the umbrella error for all upstream GitHub failures: HTTP
// error statuses, timeouts, connection failures, and bodies that fail to
// decode as the expected JSON.
type APIError struct {
	Reason     Reason
	StatusCode int    // 0 when no HTTP response was received
	Message    string
	Body       string // truncated response body, when available
	Err        error  // underlying transport or decode error, when any
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("github api error (%s): HTTP %d: %s", e.Reason, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github api error (%s): %s", e.Reason, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func newAPIError(reason Reason, status int, msg string, body string, err error) *APIError {
	if len(body) > maxBodySnippet {
		body = body[:maxBodySnippet]
	}
	return &APIError{
		Reason:     reason,
		StatusCode: status,
		Message:    msg,
		Body:       body,
		Err:        err,
	}
}

// IsNotFound reports whether err is an APIError tagged not_found, e.g. a
// content fetch that resolved to a directory instead of a file.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Reason == ReasonNotFound
}
