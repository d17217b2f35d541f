// Package retry defines the pluggable retry policy contract used by the
// rest client, plus constant and exponential backoff implementations.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"
)

// Failure describes a single failed attempt. Exactly one of the two views
// applies: Err is set for transport-level failures where no response was
// received; otherwise Status carries the HTTP status code of the response.
type Failure struct {
	Status int
	Err    error
}

// Transport reports whether the failure happened below the HTTP layer.
func (f Failure) Transport() bool { return f.Err != nil }

// Policy decides the attempt budget and backoff timing for an operation.
// Implementations must be safe for concurrent use; the client asks a single
// policy instance about many in-flight operations.
type Policy interface {
	// MaxAttempts returns the total attempt budget, including the first try.
	MaxAttempts() int

	// IsTransient reports whether the failure is worth retrying at all.
	IsTransient(f Failure) bool

	// Backoff returns how long to wait before attempt n+1, given that
	// attempt n (1-based) just failed.
	Backoff(attempt int) time.Duration
}

// Default returns the policy attached to new requests: three attempts,
// exponential backoff from 100ms capped at 2s, 404 not retryable.
func Default() Policy {
	return Exponential{Attempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second, Jitter: true}
}

// TransientStatus classifies an HTTP status code. 5xx, 408 and 429 are
// transient; 404 only when the caller opted in (some backends return 404
// during eventual-consistency windows).
func TransientStatus(status int, retryNotFound bool) bool {
	switch {
	case status >= 500:
		return true
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return true
	case status == http.StatusNotFound:
		return retryNotFound
	default:
		return false
	}
}

// transientFailure applies the shared classification rules. Transport errors
// are transient unless the context was cancelled or timed out.
func transientFailure(f Failure, retryNotFound bool) bool {
	if f.Transport() {
		return !errors.Is(f.Err, context.Canceled) && !errors.Is(f.Err, context.DeadlineExceeded)
	}
	return TransientStatus(f.Status, retryNotFound)
}

// Exponential doubles the delay after every failed attempt.
type Exponential struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Jitter adds up to 50% random extra delay to avoid thundering herds.
	Jitter bool
	// RetryNotFound treats HTTP 404 as transient.
	RetryNotFound bool
}

func (p Exponential) MaxAttempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

func (p Exponential) IsTransient(f Failure) bool {
	return transientFailure(f, p.RetryNotFound)
}

func (p Exponential) Backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	max := p.MaxDelay
	if max < base {
		max = 2 * time.Second
	}

	delay := base
	for i := 1; i < attempt && delay < max; i++ {
		delay *= 2
	}
	if p.Jitter && delay >= 2 {
		delay += time.Duration(rand.Int63n(int64(delay / 2)))
	}
	if delay > max {
		delay = max
	}
	return delay
}

// Constant waits the same delay between every attempt.
type Constant struct {
	Attempts      int
	Delay         time.Duration
	RetryNotFound bool
}

func (p Constant) MaxAttempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

func (p Constant) IsTransient(f Failure) bool {
	return transientFailure(f, p.RetryNotFound)
}

func (p Constant) Backoff(int) time.Duration { return p.Delay }

// Wait sleeps for the policy's backoff after the given failed attempt,
// returning early with the context's error when it is cancelled.
func Wait(ctx context.Context, p Policy, attempt int) error {
	d := p.Backoff(attempt)
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
