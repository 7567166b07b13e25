package priority

import (
	"context"
	"math/rand"
	"time"
)

// Backoff spaces out confirmation attempts after a conflict.
// Delay is Base * 2^(attempt-1), capped at Max, with ±Jitter randomness.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64 // 0.0-1.0
}

var DefaultBackoff = Backoff{
	Base:   5 * time.Millisecond,
	Max:    200 * time.Millisecond,
	Jitter: 0.5,
}

// Delay returns the pause after the given failed attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if b.Base <= 0 || attempt < 1 {
		return 0
	}
	d := b.Max
	if attempt < 32 {
		if exp := b.Base * time.Duration(1<<(attempt-1)); exp > 0 && exp < b.Max {
			d = exp
		}
	}
	jitterRange := float64(d) * b.Jitter
	d = time.Duration(float64(d) + (rand.Float64()*2-1)*jitterRange)
	if d < 0 {
		d = b.Base
	}
	return d
}

// Wait sleeps for Delay(attempt) or until ctx is done.
func (b Backoff) Wait(ctx context.Context, attempt int) error {
	d := b.Delay(attempt)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
