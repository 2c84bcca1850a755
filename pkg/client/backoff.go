package client

import (
	"math/rand"
	"time"
)

// BackoffStrategy yields the wait before a retry attempt.
type BackoffStrategy interface {
	Next(attempt int) time.Duration
}

// ExponentialBackoff grows the delay geometrically per attempt, capped
// at Max, with optional symmetric jitter to spread out clients that
// fail at the same instant.
type ExponentialBackoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
	Jitter float64 // fraction of the delay, 0 to 1
}

// DefaultBackoff is tuned for run polling against a local daemon:
// three retries resolve within a few seconds instead of waiting out a
// long exponential tail.
func DefaultBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		Base:   200 * time.Millisecond,
		Max:    3 * time.Second,
		Factor: 2.0,
		Jitter: 0.2,
	}
}

// Next returns the delay for the given 0-based attempt. Negative
// attempts wait the base delay.
func (b *ExponentialBackoff) Next(attempt int) time.Duration {
	delay := float64(b.Base)
	for i := 0; i < attempt; i++ {
		delay *= b.Factor
		if delay >= float64(b.Max) {
			break
		}
	}
	if delay > float64(b.Max) {
		delay = float64(b.Max)
	}
	if b.Jitter > 0 {
		delay += delay * (rand.Float64()*2 - 1) * b.Jitter
	}
	if delay < 0 {
		return 0
	}
	return time.Duration(delay)
}
