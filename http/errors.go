// Package http is the JSON transport used by the search, vector and
// webhook adapters.
package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Status classes a collaborator can answer with. APIError unwraps to one.
var (
	ErrUnauthorized = errors.New("collaborator rejected credentials")
	ErrNotFound     = errors.New("collaborator resource not found")
	ErrRateLimited  = errors.New("collaborator rate limit exceeded")
	ErrUnavailable  = errors.New("collaborator unavailable")
)

// APIError is a non-2xx answer from Tavily, Chroma or a webhook endpoint.
type APIError struct {
	Service  string
	Status   int
	Endpoint string
	Message  string

	// RetryAfter is the server's Retry-After hint, zero when absent.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Service, e.Endpoint, e.Status, e.Message)
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %s)", e.RetryAfter)
	}
	return msg
}

// Unwrap maps the status to its class. Other 4xx answers have none.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized, e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.Status >= 500:
		return ErrUnavailable
	}
	return nil
}

// Transient reports whether err may succeed if sent again later.
func Transient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}
