// Package ratelimit provides the request gate shared by every outbound call
// of a harvest run.
package ratelimit

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum spacing between two grants.
const DefaultInterval = time.Second

// Config configures a Limiter.
type Config struct {
	// Interval is the minimum time between two grants.
	Interval time.Duration `env:"HARVEST_DELAY" mapstructure:"interval" yaml:"interval"`
	// Jitter adds a random delay in [0, Jitter) before each grant.
	Jitter time.Duration `env:"HARVEST_JITTER" mapstructure:"jitter" yaml:"jitter"`
}

// Limiter spaces grants at least Interval apart across all callers.
// Callers queue on a single gate, so grants are handed out one at a time.
type Limiter struct {
	limiter *rate.Limiter
	gate    chan struct{}
	jitter  time.Duration
}

// New creates a Limiter. A zero Interval uses DefaultInterval; a negative
// Interval disables throttling.
func New(cfg Config) *Limiter {
	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultInterval
	}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &Limiter{
		limiter: rate.NewLimiter(limit, 1),
		gate:    make(chan struct{}, 1),
		jitter:  cfg.Jitter,
	}
}

// Acquire blocks until the caller may issue one request.
// It returns ctx.Err() if ctx is done first.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.gate <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.gate }()

	// Jitter runs before the limiter so spacing is measured from the real grant.
	if l.jitter > 0 {
		if err := sleep(ctx, time.Duration(rand.Int64N(int64(l.jitter)))); err != nil {
			return err
		}
	}

	return l.limiter.Wait(ctx)
}

// Interval reports the configured spacing; zero means unlimited.
func (l *Limiter) Interval() time.Duration {
	if l.limiter.Limit() == rate.Inf {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(l.limiter.Limit()))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
