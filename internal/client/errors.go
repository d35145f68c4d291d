// ABOUTME: Error types returned by the clinic API client
// ABOUTME: Maps HTTP status codes to sentinel errors usable with errors.Is

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized = errors.New("not authenticated")
	ErrForbidden    = errors.New("insufficient permissions")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid request")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}

// Is lets callers match an APIError against the status sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrInvalid:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	}
	return false
}

// ErrorResponse is the error body returned by the backend.
// Message is either a string or a list of validation messages.
type ErrorResponse struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error,omitempty"`
}

// Text flattens the error body into one line.
func (r ErrorResponse) Text() string {
	if len(r.Message) > 0 {
		var s string
		if err := json.Unmarshal(r.Message, &s); err == nil && s != "" {
			return s
		}
		var list []string
		if err := json.Unmarshal(r.Message, &list); err == nil && len(list) > 0 {
			return strings.Join(list, "; ")
		}
	}
	return r.Error
}

// Message extracts the backend message from err, falling back to err.Error().
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
