package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/retry"
)

var errBoom = errors.New("boom")

func fastConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestDo_SucceedsAfterRetry(t *testing.T) {
	t.Parallel()

	calls := 0
	attempts, err := retry.Do(context.Background(), fastConfig(), func(int) error {
		calls++
		if calls < 2 {
			return errBoom
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDo_ExhaustsWithStrictlyIncreasingDelays(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	var delays []time.Duration
	cfg.OnRetry = func(_ int, d time.Duration, _ error) { delays = append(delays, d) }

	attempts, err := retry.Do(context.Background(), cfg, func(int) error { return errBoom })

	require.ErrorIs(t, err, retry.ErrMaxAttemptsExceeded)
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, attempts)
	require.Len(t, delays, 2)
	assert.Less(t, delays[0], delays[1])
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.IsRetryable = func(error) bool { return false }

	calls := 0
	attempts, err := retry.Do(context.Background(), cfg, func(int) error {
		calls++
		return errBoom
	})

	require.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, retry.ErrMaxAttemptsExceeded)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
}

func TestDo_HonoursDelayHint(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.MaxAttempts = 2
	cfg.DelayHint = func(error) (time.Duration, bool) { return 20 * time.Millisecond, true }

	var got time.Duration
	cfg.OnRetry = func(_ int, d time.Duration, _ error) { got = d }

	_, _ = retry.Do(context.Background(), cfg, func(int) error { return errBoom })
	assert.Equal(t, 20*time.Millisecond, got)
}

func TestDo_DelayHintCappedByMaxDelay(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.MaxAttempts = 2
	cfg.DelayHint = func(error) (time.Duration, bool) { return time.Hour, true }

	var got time.Duration
	cfg.OnRetry = func(_ int, d time.Duration, _ error) { got = d }

	_, _ = retry.Do(context.Background(), cfg, func(int) error { return errBoom })
	assert.Equal(t, cfg.MaxDelay, got)
}

func TestDo_ContextCancelledBetweenAttempts(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.InitialDelay = time.Hour
	cfg.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cfg.OnRetry = func(int, time.Duration, error) { cancel() }

	_, err := retry.Do(ctx, cfg, func(int) error { return errBoom })
	require.ErrorIs(t, err, retry.ErrContextCancelled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	cfg := retry.Config{InitialDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, cfg.Backoff(1))
	assert.Equal(t, 2*time.Second, cfg.Backoff(2))
	assert.Equal(t, 3*time.Second, cfg.Backoff(3))
}
