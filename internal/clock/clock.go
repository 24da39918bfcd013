// Package clock provides the time seam for fileferry.
//
// All timed waits in the pipeline (quiet-period polls, retry backoff, the
// inter-cycle interval) go through Sleeper so they are cancellable and so
// tests can advance time without sleeping.
package clock

import (
	"context"
	"time"
)

// Sleeper performs a cancellable timed wait.
type Sleeper interface {
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case. A non-positive d returns immediately.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real implements Sleeper against the wall clock.
type Real struct{}

func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
