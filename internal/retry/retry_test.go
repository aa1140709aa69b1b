package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastPolicy keeps test runtime negligible.
func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), discardLogger(), "op", func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	err := fastPolicy(4).Do(context.Background(), discardLogger(), "op", func() error {
		calls++
		if calls < 3 {
			return Transient(errors.New("flaky"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_NonTransientFailsImmediately(t *testing.T) {
	calls := 0
	permanent := errors.New("validation failed")
	err := fastPolicy(4).Do(context.Background(), discardLogger(), "op", func() error {
		calls++
		return permanent
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, permanent)
}

func TestDo_ExhaustsAttemptBudget(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), discardLogger(), "op", func() error {
		calls++
		return Transient(errors.New("still down"))
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
}

func TestDo_ContextCancellationStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	p := Policy{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}
	errCh := make(chan error, 1)
	go func() {
		errCh <- p.Do(ctx, discardLogger(), "op", func() error {
			calls++
			return Transient(errors.New("slow"))
		})
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestIsTransient(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"wrapped transient", Transient(errors.New("anything")), true},
		{"deeply wrapped transient", errors.Join(errors.New("outer"), Transient(errors.New("inner"))), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"rate limited", errors.New("403 rate limit exceeded"), true},
		{"bad gateway", errors.New("unexpected status 502"), true},
		{"plain failure", errors.New("invalid payload"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}

func TestDelay_GrowsAndCaps(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: 4 * time.Second, Multiplier: 2.0}

	assert.Equal(t, time.Second, p.delay(1))
	assert.Equal(t, 2*time.Second, p.delay(2))
	assert.Equal(t, 4*time.Second, p.delay(3))
	assert.Equal(t, 4*time.Second, p.delay(10), "delay never exceeds the cap")
}

func TestDelay_JitterStaysNearTarget(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: time.Minute, Multiplier: 2.0, Jitter: true}

	for range 50 {
		d := p.delay(2)
		assert.GreaterOrEqual(t, d, 1800*time.Millisecond)
		assert.LessOrEqual(t, d, 2200*time.Millisecond)
	}
}
