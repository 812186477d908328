package client

import (
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors classifying every failure a call can produce. Callers
// branch with errors.Is; the concrete *APIError (when one exists) stays
// reachable through errors.As for the status code and server message.
var (
	// ErrAuth covers 401/403 — the token is missing, expired, or the user
	// lacks permission. The session should be cleared upstream.
	ErrAuth = fmt.Errorf("authentication failed")

	// ErrNetwork covers transport-level failures before any HTTP status
	// was received. Non-fatal; retried via the next poll or user action.
	ErrNetwork = fmt.Errorf("network error")

	// ErrServer covers 5xx responses.
	ErrServer = fmt.Errorf("server error")

	// ErrDecode covers well-formed HTTP responses carrying malformed JSON.
	ErrDecode = fmt.Errorf("malformed response")

	// ErrNotFound covers 404 — the violation no longer exists.
	ErrNotFound = fmt.Errorf("not found")

	// ErrConflict covers duplicate decisions: a local attempt on an
	// in-flight item, or the backend's "already verified" rejection.
	ErrConflict = fmt.Errorf("conflict")

	// ErrValidation covers remaining 4xx responses (malformed payload).
	ErrValidation = fmt.Errorf("invalid request")
)

// APIError is an HTTP error response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto the sentinel taxonomy so that
// errors.Is(err, ErrAuth) and friends work on any API failure.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return ErrAuth
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return ErrConflict
	case e.StatusCode == http.StatusBadRequest && alreadyVerified(e.Message):
		// The Django backend reports a duplicate decision as a plain 400
		// with an "already verified" body, not a 409.
		return ErrConflict
	case e.StatusCode >= 500:
		return ErrServer
	case e.StatusCode >= 400:
		return ErrValidation
	}
	return nil
}

func alreadyVerified(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "already been verified") ||
		strings.Contains(strings.ToLower(msg), "already verified")
}
