package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure classes the dialog engine distinguishes.
var (
	// ErrConflict marks duplicate/conflict domain errors (e.g. an email that
	// is already registered).
	ErrConflict = errors.New("backend: conflict")
	// ErrUnauthorized marks rejected credentials or an expired token.
	ErrUnauthorized = errors.New("backend: unauthorized")
)

// APIError is a structured error returned by the broker backend. Message is
// the upstream's human-readable text and is safe to show to the user when
// the failure class warrants it.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("backend: request failed with status %d", e.StatusCode)
}

// Unwrap maps HTTP status classes onto the sentinel errors so callers can
// use errors.Is for classification.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	}
	return nil
}

// IsConflict reports whether err is a duplicate/conflict domain error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// UserMessage extracts the upstream's safe human-readable message from err,
// or "" when none is available.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
