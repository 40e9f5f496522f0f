// Package fetcher performs rate-limited HTTP GETs with bounded retries,
// exponential backoff, and robots.txt compliance.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/retry"
)

// Status code bounds used when classifying responses.
const (
	statusOK           = 200
	statusMultiple     = 300
	statusTooManyReqs  = 429
	statusServerErrLow = 500
)

// drainLimit bounds how much of an error body is read before closing.
const drainLimit = 64 * 1024

// Request kinds reported to the Observer.
const (
	KindPage       = "page"
	KindAttachment = "attachment"
)

// Attempt outcomes reported to the Observer.
const (
	OutcomeOK          = "ok"
	OutcomeNetwork     = "network_error"
	OutcomeRateLimited = "rate_limited"
	OutcomeServerError = "server_error"
	OutcomeClientError = "client_error"
	OutcomeTooLarge    = "too_large"
)

// Gate throttles outbound requests.
type Gate interface {
	Acquire(ctx context.Context) error
}

// RobotsAllower checks robots.txt compliance.
type RobotsAllower interface {
	IsAllowed(ctx context.Context, rawURL string) (bool, error)
}

// Observer receives per-attempt telemetry.
type Observer interface {
	ObserveAttempt(kind, outcome string, elapsed time.Duration)
	ObserveRetry(kind string, delay time.Duration)
}

// Fetcher issues GET requests through a shared Gate. Every attempt,
// including retries, acquires the gate first.
type Fetcher struct {
	client   *http.Client
	gate     Gate
	robots   RobotsAllower
	observer Observer
	log      logger.Logger
	cfg      Config
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithRobots enables robots.txt checks before each URL.
func WithRobots(r RobotsAllower) Option {
	return func(f *Fetcher) { f.robots = r }
}

// WithObserver reports attempts and retries to o.
func WithObserver(o Observer) Option {
	return func(f *Fetcher) { f.observer = o }
}

// New creates a Fetcher.
func New(cfg Config, gate Gate, log logger.Logger, opts ...Option) *Fetcher {
	cfg = cfg.WithDefaults()

	f := &Fetcher{
		gate: gate,
		log:  log,
		cfg:  cfg,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = NewHTTPClient(cfg.RequestTimeout, cfg.MaxRedirects)
	}
	return f
}

// Fetch returns the body of rawURL. A body larger than the configured page
// limit fails with a *BodyTooLargeError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	_, err := f.do(ctx, KindPage, rawURL, func(r io.Reader) error {
		b, readErr := io.ReadAll(newCappedReader(r, f.cfg.MaxPageBytes))
		if readErr != nil {
			return readErr
		}
		body = b
		return nil
	})
	return body, err
}

// Stream hands the body of rawURL to consume, once per attempt that
// received a 2xx response. consume must discard partial output when it
// returns an error, because the attempt will be retried. Stream returns
// the number of attempts made. Reading past the configured file limit
// fails with ErrBodyTooLarge, which consume should return as is.
func (f *Fetcher) Stream(ctx context.Context, rawURL string, consume func(io.Reader) error) (int, error) {
	return f.do(ctx, KindAttachment, rawURL, func(r io.Reader) error {
		return consume(newCappedReader(r, f.cfg.MaxFileBytes))
	})
}

// cappedReader yields at most limit bytes of r and fails with
// ErrBodyTooLarge when r holds more.
type cappedReader struct {
	r     io.Reader
	limit int64
	read  int64
}

func newCappedReader(r io.Reader, limit int64) *cappedReader {
	return &cappedReader{r: io.LimitReader(r, limit+1), limit: limit}
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.read > c.limit {
		return 0, ErrBodyTooLarge
	}
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.read > c.limit {
		return n - int(c.read-c.limit), ErrBodyTooLarge
	}
	return n, err
}

func (f *Fetcher) do(ctx context.Context, kind, rawURL string, consume func(io.Reader) error) (int, error) {
	if f.robots != nil {
		allowed, err := f.robots.IsAllowed(ctx, rawURL)
		if err != nil {
			return 0, fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return 0, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
		}
	}

	var (
		lastErr    error
		lastStatus int
	)

	cfg := retry.Config{
		MaxAttempts:  f.cfg.MaxAttempts,
		InitialDelay: f.cfg.BaseDelay,
		MaxDelay:     f.cfg.MaxDelay,
		Multiplier:   f.cfg.Multiplier,
		IsRetryable:  IsRetryable,
		DelayHint:    retryAfterHint,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			f.log.Warn("Retrying request",
				logger.URL(rawURL),
				logger.Attempt(attempt),
				logger.Duration("delay", delay),
				logger.Error(err),
			)
			if f.observer != nil {
				f.observer.ObserveRetry(kind, delay)
			}
		},
	}

	attempts, err := retry.Do(ctx, cfg, func(int) error {
		if gateErr := f.gate.Acquire(ctx); gateErr != nil {
			return gateErr
		}
		status, attemptErr := f.attempt(ctx, kind, rawURL, consume)
		lastErr, lastStatus = attemptErr, status
		return attemptErr
	})

	if errors.Is(err, retry.ErrMaxAttemptsExceeded) {
		exhausted := &FetchExhaustedError{URL: rawURL, Attempts: attempts, LastErr: lastErr}
		if lastStatus >= statusMultiple {
			exhausted.LastStatus = lastStatus
		}
		return attempts, exhausted
	}
	return attempts, err
}

// attempt performs one request. It returns the response status, or 0 when
// no response was received.
func (f *Fetcher) attempt(
	ctx context.Context,
	kind, rawURL string,
	consume func(io.Reader) error,
) (int, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if errors.Is(err, ErrTooManyRedirects) {
			return 0, fmt.Errorf("GET %s: %w", rawURL, ErrTooManyRedirects)
		}
		f.observe(kind, OutcomeNetwork, start)
		return 0, &NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < statusOK || resp.StatusCode >= statusMultiple {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
		statusErr := &StatusError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
		f.observe(kind, outcomeForStatus(resp.StatusCode), start)
		return resp.StatusCode, statusErr
	}

	if consumeErr := consume(resp.Body); consumeErr != nil {
		if ctx.Err() != nil {
			return resp.StatusCode, ctx.Err()
		}
		if errors.Is(consumeErr, ErrBodyTooLarge) {
			f.observe(kind, OutcomeTooLarge, start)
			return resp.StatusCode, &BodyTooLargeError{URL: rawURL, Limit: f.limitFor(kind)}
		}
		f.observe(kind, OutcomeNetwork, start)
		return resp.StatusCode, &NetworkError{URL: rawURL, Err: fmt.Errorf("read body: %w", consumeErr)}
	}

	f.observe(kind, OutcomeOK, start)
	f.log.Debug("Fetched", logger.URL(rawURL), logger.StatusCode(resp.StatusCode))
	return resp.StatusCode, nil
}

func (f *Fetcher) limitFor(kind string) int64 {
	if kind == KindAttachment {
		return f.cfg.MaxFileBytes
	}
	return f.cfg.MaxPageBytes
}

func (f *Fetcher) observe(kind, outcome string, start time.Time) {
	if f.observer != nil {
		f.observer.ObserveAttempt(kind, outcome, time.Since(start))
	}
}

func outcomeForStatus(code int) string {
	switch {
	case code == statusTooManyReqs:
		return OutcomeRateLimited
	case code >= statusServerErrLow:
		return OutcomeServerError
	default:
		return OutcomeClientError
	}
}
