// Package retry provides a single retry-policy value for calls against
// external services. The policy is injected into anything that talks to the
// hosting platform or the review model, keeping backoff concerns out of the
// reconciliation and planning logic.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"
)

// Policy describes bounded exponential backoff with jitter. The zero value
// is not usable; start from DefaultPolicy.
type Policy struct {
	MaxAttempts int           // total attempts, first try included
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // cap applied to the computed delay
	Multiplier  float64       // backoff growth factor
	Jitter      bool          // randomize +-10% to avoid thundering herds
}

// DefaultPolicy returns the policy used for platform API calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		Jitter:      true,
	}
}

// ModelPolicy returns the policy used for review-model calls, which are
// slower and rate-limited more aggressively than plain REST calls.
func ModelPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    60 * time.Second,
		Multiplier:  2.5,
		Jitter:      true,
	}
}

// TransientError marks an error as retryable regardless of its text.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err so the policy will retry it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// transientFragments are the declared set of failure kinds worth retrying:
// network trouble, timeouts and service unavailability. Anything else
// propagates immediately.
var transientFragments = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"rate limit",
	"429",
	"502",
	"503",
	"504",
	"no such host",
	"network unreachable",
	"broken pipe",
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range transientFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// Do runs op under the policy. Transient failures are retried with backoff
// until the attempt budget is spent; non-transient failures and context
// cancellation propagate immediately.
func (p Policy) Do(ctx context.Context, logger *slog.Logger, name string, op func() error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.delay(attempt)
		logger.Warn("transient failure, retrying",
			"op", name,
			"attempt", attempt,
			"max_attempts", p.MaxAttempts,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, p.MaxAttempts, lastErr)
}

// delay computes the backoff before attempt+1. attempt is 1-based.
func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}

	if p.Jitter {
		jitterRange := d * 0.1
		d += (rand.Float64() - 0.5) * 2 * jitterRange
		if d < 0 {
			d = float64(p.BaseDelay)
		}
	}

	return time.Duration(d)
}
