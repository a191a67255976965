package llm

import (
	"fmt"
	"net/http"
	"time"
)

// CredentialsError indicates invalid or missing provider credentials.
// It is fatal: no amount of retrying will make the same request succeed.
type CredentialsError struct {
	Provider string
	Err      error
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("%s: invalid or missing credentials: %v", e.Provider, e.Err)
}

func (e *CredentialsError) Unwrap() error { return e.Err }

// RateLimitError indicates the vendor rejected the request for quota or
// load reasons. It is transient; the caller may retry with backoff. The
// adapter itself never loops.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("%s: rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// RequestError indicates the outgoing request was malformed or rejected by
// the vendor's validation. Fatal for that turn; not retried.
type RequestError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: request rejected (status %d): %v", e.Provider, e.StatusCode, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ProviderError is the catch-all for transport and vendor faults the other
// error types do not cover. RawMessage keeps the vendor's own wording for
// diagnostics.
type ProviderError struct {
	Provider   string
	RawMessage string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.RawMessage != "" {
		return fmt.Sprintf("%s: provider error: %s", e.Provider, e.RawMessage)
	}
	return fmt.Sprintf("%s: provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ClassifyStatus maps an HTTP status from a vendor endpoint onto the error
// taxonomy. The raw body is preserved on the catch-all so nothing the vendor
// said is lost.
func ClassifyStatus(provider string, status int, raw string, err error) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &CredentialsError{Provider: provider, Err: err}
	case status == http.StatusTooManyRequests:
		return &RateLimitError{Provider: provider, Err: err}
	case status >= 400 && status < 500:
		return &RequestError{Provider: provider, StatusCode: status, Err: err}
	default:
		return &ProviderError{Provider: provider, RawMessage: raw, Err: err}
	}
}
