// Package retry holds the pure retry decision logic, kept free of state and
// side effects so it can be tested independent of network timing.
package retry

import "time"

const (
	// DefaultMaxAttempts is the per-record attempt ceiling during one
	// reconciliation run. A record that exhausts it stays queued for the
	// next run; it is never discarded here.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the backoff before the second attempt.
	DefaultBaseDelay = 1 * time.Second
)

// Policy decides whether and when to retry a failed dispatch.
// The zero value is not usable; use Default or fill both fields.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Default returns the standard policy: 3 attempts, 1s/2s backoff between them.
func Default() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// ShouldRetry reports whether another attempt is allowed after `attempt`
// attempts have already been made (attempt is 1-based).
func (p Policy) ShouldRetry(attempt int) bool {
	return attempt < p.MaxAttempts
}

// DelayFor returns the backoff to wait before the attempt that follows
// `attempt` failed ones: BaseDelay doubled per attempt (1s, 2s, 4s, ...).
// No jitter, no cap beyond the attempt ceiling.
func (p Policy) DelayFor(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return p.BaseDelay * time.Duration(1<<(attempt-1))
}
