package sim

import (
	"context"
	"time"
)

// Clock abstracts wall time so pacing and rate limiting can be driven by tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// WallClock is the real-time Clock.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

func (WallClock) Sleep(ctx context.Context, d time.Duration) error {
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

// SecondsToDuration converts a simulation step in seconds to wall time.
func SecondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
