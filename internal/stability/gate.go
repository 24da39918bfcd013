// Package stability implements the quiet-period gate that decides whether a
// candidate file is finished being written.
//
// The gate samples (size, mtime) at a fixed poll interval and reports Stable
// once two consecutive samples are identical. A file that was already
// complete before the first poll therefore passes after the second poll: the
// first sample is the baseline, the second confirms it.
package stability

import (
	"context"
	"os"
	"time"

	"fileferry/internal/clock"
	ferryfs "fileferry/internal/fs"
)

// Verdict is the gate's terminal observation for one candidate.
type Verdict int

const (
	// Stable: two consecutive identical (size, mtime) samples observed.
	Stable Verdict = iota
	// Timeout: the wait budget elapsed without stability. Reported, not
	// fatal; the cycle is skipped and retried next interval.
	Timeout
	// NotFound: the file disappeared mid-poll.
	NotFound
)

func (v Verdict) String() string {
	switch v {
	case Stable:
		return "stable"
	case Timeout:
		return "timeout"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

type sample struct {
	size  int64
	mtime time.Time
}

// Gate waits for files to stop changing.
type Gate struct {
	fsys         ferryfs.FS
	sleeper      clock.Sleeper
	pollInterval time.Duration
	maxWait      time.Duration
}

// New creates a Gate. pollInterval must not exceed the configured quiet
// period; callers typically pass the quiet period itself.
func New(fsys ferryfs.FS, sleeper clock.Sleeper, pollInterval, maxWait time.Duration) *Gate {
	return &Gate{fsys: fsys, sleeper: sleeper, pollInterval: pollInterval, maxWait: maxWait}
}

// Wait blocks until path is stable, the budget elapses, or ctx is cancelled.
// The error return is non-nil only for cancellation.
func (g *Gate) Wait(ctx context.Context, path string) (Verdict, error) {
	var last *sample
	elapsed := time.Duration(0)

	for {
		info, err := g.fsys.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return NotFound, nil
			}
			// Treat transient stat failures like an unstable sample.
			last = nil
		} else {
			cur := sample{size: info.Size(), mtime: info.ModTime()}
			if last != nil && cur == *last {
				return Stable, nil
			}
			last = &cur
		}

		if elapsed >= g.maxWait {
			return Timeout, nil
		}
		if err := g.sleeper.Sleep(ctx, g.pollInterval); err != nil {
			return Timeout, err
		}
		elapsed += g.pollInterval
	}
}
