// Package retry classifies upload outcomes and computes backoff scheduling.
//
// The policy itself is pure: Delay is a function of the attempt index and
// Decide is a function of (attempt, outcome). Timed waits happen in the
// caller through the clock seam, so the policy is unit-testable without real
// time passing.
package retry

import (
	"math"
	"time"
)

// Class is the outcome classification of one attempt. Classification is
// computed once per attempt and never revised.
type Class int

const (
	// Success: 2xx response.
	Success Class = iota
	// Retryable: network error, timeout, or 5xx.
	Retryable
	// Fatal: 4xx or locally detected malformed request. Never retried;
	// retrying would repeat the same client error.
	Fatal
)

func (c Class) String() string {
	switch c {
	case Success:
		return "success"
	case Retryable:
		return "retryable"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome carries the classification and its reason for one attempt.
type Outcome struct {
	Class  Class
	Reason string // "network", "timeout", "http_5xx", "http_4xx", "auth", ...
	Status int    // HTTP status when one was received, else 0
	Err    error  // underlying error, if any
}

// Action tells the caller what to do after an attempt.
type Action int

const (
	StopSuccess Action = iota
	StopFatal
	StopExhausted // retryable failure escalated after the attempt budget
	Wait          // sleep Decision.Delay, then retry
)

// Decision is the policy verdict after one attempt.
type Decision struct {
	Action Action
	Delay  time.Duration
}

// Policy is a stateless retry policy. Nothing is carried between cycles; a
// permanently failed upload in one cycle does not poison the next.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// Delay returns the backoff before retrying attempt n (1-indexed):
// min(base * multiplier^(n-1), cap).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && d > max {
		d = max
	}
	return time.Duration(d)
}

// Decide maps (attempt index, outcome) to the next action. attempt is
// 1-indexed and counts the attempt that produced outcome.
func (p Policy) Decide(attempt int, outcome Outcome) Decision {
	switch outcome.Class {
	case Success:
		return Decision{Action: StopSuccess}
	case Fatal:
		return Decision{Action: StopFatal}
	default:
		if attempt >= p.MaxAttempts {
			return Decision{Action: StopExhausted}
		}
		return Decision{Action: Wait, Delay: p.Delay(attempt)}
	}
}
