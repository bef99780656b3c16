package gateway

import (
	"time"

	promptmint "github.com/promptmint/promptmint"
)

// Retry policy, kept pure so it can be tested independently of any I/O.
// The client loop feeds each classified failure through NextAction and either
// sleeps or gives up; the policy itself never sleeps and never sees a socket.

// Action is the policy's verdict after a failed attempt.
type Action int

const (
	// GiveUp stops retrying; the caller surfaces the last classified error.
	GiveUp Action = iota
	// RetryAfterDelay retries after waiting Decision.Delay.
	RetryAfterDelay
)

// Decision is the next step after a failed attempt.
type Decision struct {
	Action Action
	Delay  time.Duration
}

// DefaultBaseDelay is the first backoff interval; it doubles each attempt.
const DefaultBaseDelay = 1 * time.Second

// DefaultMaxAttempts bounds the total number of Gateway calls per request.
const DefaultMaxAttempts = 3

// NextAction decides what follows a failed attempt. attempt is zero-based.
// Fatal classifications short-circuit regardless of attempts remaining.
func NextAction(code string, attempt, maxAttempts int, baseDelay time.Duration) Decision {
	if !promptmint.IsRetryable(code) {
		return Decision{Action: GiveUp}
	}
	if attempt >= maxAttempts-1 {
		return Decision{Action: GiveUp}
	}
	return Decision{
		Action: RetryAfterDelay,
		Delay:  baseDelay * time.Duration(1<<uint(attempt)),
	}
}
