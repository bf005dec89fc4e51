package messaging

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest is returned before any network call when the request
// breaks a documented limit.
var ErrInvalidRequest = errors.New("invalid messaging request")

// APIError is a non-2xx answer from the Messaging API.
type APIError struct {
	StatusCode        int           `json:"-"`
	RequestID         string        `json:"-"`
	AcceptedRequestID string        `json:"-"`
	Message           string        `json:"message"`
	Details           []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Message  string `json:"message"`
	Property string `json:"property,omitempty"`
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "line api: status %d", e.StatusCode)
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	for _, d := range e.Details {
		if d.Property != "" {
			fmt.Fprintf(&b, "; %s: %s", d.Property, d.Message)
		} else {
			fmt.Fprintf(&b, "; %s", d.Message)
		}
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " (request id %s)", e.RequestID)
	}
	return b.String()
}

// IsConflict reports a request whose retry key was already accepted.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == 409
}
