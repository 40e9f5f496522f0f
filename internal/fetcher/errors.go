package fetcher

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Error classes. Typed errors below wrap one of these so callers can branch
// with errors.Is.
var (
	// ErrTransientNetwork covers connection, timeout, and body read failures.
	ErrTransientNetwork = errors.New("transient network error")
	// ErrRateLimited is a 429 response.
	ErrRateLimited = errors.New("rate limited")
	// ErrServerError is a 5xx response.
	ErrServerError = errors.New("server error")
	// ErrNotFoundOrForbidden is any 4xx response other than 429. It is never retried.
	ErrNotFoundOrForbidden = errors.New("not found or forbidden")
	// ErrFetchExhausted is returned once every attempt failed.
	ErrFetchExhausted = errors.New("fetch exhausted")
	// ErrRobotsDisallowed is returned for URLs robots.txt forbids.
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
	// ErrBodyTooLarge is a 2xx body over the configured size cap. It is never retried.
	ErrBodyTooLarge = errors.New("response body too large")
)

// StatusError is a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	// RetryAfter is the server's Retry-After hint, zero if absent.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: http status %d", e.URL, e.StatusCode)
}

// Unwrap maps the status code to its error class.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == statusTooManyReqs:
		return ErrRateLimited
	case e.StatusCode >= statusServerErrLow:
		return ErrServerError
	default:
		return ErrNotFoundOrForbidden
	}
}

// NetworkError is a failure below HTTP: dial, TLS, timeout, or a broken body.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{ErrTransientNetwork, e.Err}
}

// BodyTooLargeError reports a response body that exceeded Limit bytes.
type BodyTooLargeError struct {
	URL   string
	Limit int64
}

func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("GET %s: body exceeds %d bytes", e.URL, e.Limit)
}

func (e *BodyTooLargeError) Unwrap() error { return ErrBodyTooLarge }

// FetchExhaustedError reports a URL that failed on every attempt.
type FetchExhaustedError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastErr    error
}

func (e *FetchExhaustedError) Error() string {
	if e.LastStatus != 0 {
		return fmt.Sprintf("fetch %s exhausted after %d attempts: last status %d", e.URL, e.Attempts, e.LastStatus)
	}
	return fmt.Sprintf("fetch %s exhausted after %d attempts: %v", e.URL, e.Attempts, e.LastErr)
}

func (e *FetchExhaustedError) Unwrap() []error {
	return []error{ErrFetchExhausted, e.LastErr}
}

// IsRetryable reports whether err belongs to a class the fetcher retries.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientNetwork) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrServerError)
}

// IsPermanent reports whether err will not go away on retry.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrNotFoundOrForbidden) ||
		errors.Is(err, ErrRobotsDisallowed) ||
		errors.Is(err, ErrTooManyRedirects) ||
		errors.Is(err, ErrBodyTooLarge)
}

// retryAfterHint extracts the Retry-After delay from a 429 or 503 StatusError.
func retryAfterHint(err error) (time.Duration, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > 0 {
		return se.RetryAfter, true
	}
	return 0, false
}

// parseRetryAfter accepts delta-seconds or an HTTP-date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
