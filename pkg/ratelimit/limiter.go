package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter defines the interface for pacing requests
type Limiter interface {
	// Wait blocks until the next request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Done marks the end of a request
	Done()
}

// New returns the limiter for a configured request delay: a FixedDelay, or
// NoDelay when the delay is zero or negative
func New(delay time.Duration) Limiter {
	if delay <= 0 {
		return NoDelay{}
	}
	return NewFixedDelay(delay)
}

// Sleep pauses for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FixedDelay keeps a pause of delay between the end of one request and the start of the next
type FixedDelay struct {
	delay time.Duration
	last  time.Time // end of the previous request
	mu    sync.Mutex

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewFixedDelay creates a limiter that pauses delay after every request
func NewFixedDelay(delay time.Duration) *FixedDelay {
	return &FixedDelay{
		delay: delay,
		now:   time.Now,
		sleep: Sleep,
	}
}

// Wait blocks until delay has passed since the previous request was marked done
func (f *FixedDelay) Wait(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if f.last.IsZero() {
		return nil
	}

	remaining := f.delay - f.now().Sub(f.last)
	if remaining <= 0 {
		return nil
	}
	return f.sleep(ctx, remaining)
}

// Done records the end of a request
func (f *FixedDelay) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.last = f.now()
}

// NoDelay only checks for cancellation
type NoDelay struct{}

func (NoDelay) Wait(ctx context.Context) error { return ctx.Err() }

func (NoDelay) Done() {}
