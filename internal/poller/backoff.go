package poller

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/goran-ethernal/DonationIndexor/pkg/config"
)

// calculateBackoff returns the delay after the given number of consecutive failures:
// InitialBackoff * BackoffMultiplier^failures, capped at MaxBackoff, with ±25% jitter.
func calculateBackoff(failures int, cfg config.BackoffConfig) time.Duration {
	if failures <= 0 {
		return 0
	}

	backoff := float64(cfg.InitialBackoff.Duration) * math.Pow(cfg.BackoffMultiplier, float64(failures))

	if backoff > float64(cfg.MaxBackoff.Duration) {
		backoff = float64(cfg.MaxBackoff.Duration)
	}

	jitterRange := backoff * 0.25 //nolint:mnd
	jitter := (rand.Float64() * 2 * jitterRange) - jitterRange
	backoff += jitter

	if backoff < 0 {
		backoff = 0
	}

	return time.Duration(backoff)
}

// sleep waits for d or until ctx is done. It reports whether the full duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
