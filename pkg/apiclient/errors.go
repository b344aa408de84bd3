package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionEnded is the distinguished terminal error returned when the
// token refresh itself is rejected. By the time a caller sees it the token
// store has already been cleared; the routing/guard layer is expected to
// react by sending the user back to login. The client never navigates
// anywhere itself.
var ErrSessionEnded = errors.New("apiclient: session ended")

// Usage errors. These report programming-contract violations and are
// returned synchronously, before any network I/O.
var (
	// ErrNoTokenStore is returned by UploadForm on a client constructed
	// without a token store, since uploads read the token directly.
	ErrNoTokenStore = errors.New("apiclient: no token store configured")

	// ErrUploadMethod is returned when UploadForm is invoked with a method
	// other than POST or PUT.
	ErrUploadMethod = errors.New("apiclient: uploads must use POST or PUT")
)

// APIError is the normalized error shape for every transport or HTTP
// failure, so callers never branch on backend-specific formats.
type APIError struct {
	// StatusCode is the HTTP status of the failed response, or 0 when the
	// request never produced one (network error, timeout).
	StatusCode int

	// Message is a human-readable description taken from the backend's
	// error envelope when available.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// IsSessionEnded reports whether err is the terminal session-ended error.
func IsSessionEnded(err error) bool {
	return errors.Is(err, ErrSessionEnded)
}

// netError wraps a transport-level failure into the normalized shape.
func netError(err error) *APIError {
	return &APIError{Message: err.Error()}
}

// parseErrorResponse converts a non-2xx HTTP response into an *APIError.
// It tries the backends' `{error, ...}` envelope first, then a bare
// `{message, ...}` object, and falls back to the HTTP status text.
func parseErrorResponse(statusCode int, body []byte) *APIError {
	var env struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return &APIError{StatusCode: statusCode, Message: env.Error}
	}

	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &msg); err == nil && msg.Message != "" {
		return &APIError{StatusCode: statusCode, Message: msg.Message}
	}

	return &APIError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("HTTP %d: %s", statusCode, http.StatusText(statusCode)),
	}
}
