package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyFromRetries(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		want       RetryPolicy
	}{
		{name: "unlimited", maxRetries: -1, want: RetryPolicy{MaxAttempts: Unlimited, Delay: time.Second}},
		{name: "no retries", maxRetries: 0, want: RetryPolicy{MaxAttempts: 1, Delay: time.Second}},
		{name: "three retries", maxRetries: 3, want: RetryPolicy{MaxAttempts: 4, Delay: time.Second}},
		{name: "below sentinel", maxRetries: -5, want: RetryPolicy{MaxAttempts: 1, Delay: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PolicyFromRetries(tt.maxRetries, time.Second))
		})
	}
}

func recordSleep(delays *[]time.Duration) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestRetryer_ExhaustsBoundedPolicy(t *testing.T) {
	var delays []time.Duration
	var hooks []int
	boom := errors.New("boom")

	r := NewRetryer(RetryPolicy{MaxAttempts: 3, Delay: 2 * time.Second}, recordSleep(&delays),
		func(attempt int, err error, delay time.Duration) { hooks = append(hooks, attempt) })

	calls := 0
	attempts, err := r.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, delays)
	assert.Equal(t, []int{1, 2}, hooks)
}

func TestRetryer_UnlimitedUntilSuccess(t *testing.T) {
	var delays []time.Duration
	r := NewRetryer(RetryPolicy{MaxAttempts: Unlimited, Delay: time.Millisecond}, recordSleep(&delays), nil)

	attempts, err := r.Do(context.Background(), func(ctx context.Context, attempt int) error {
		if attempt < 25 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 25, attempts)
	assert.Len(t, delays, 24)
}

func TestRetryer_SingleAttemptNoSleep(t *testing.T) {
	var delays []time.Duration
	r := NewRetryer(PolicyFromRetries(0, time.Minute), recordSleep(&delays), nil)

	attempts, err := r.Do(context.Background(), func(ctx context.Context, attempt int) error {
		return errors.New("fail")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, delays)
}

func TestRetryer_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetryer(RetryPolicy{MaxAttempts: Unlimited, Delay: time.Hour}, nil, nil)
	attempts, err := r.Do(ctx, func(ctx context.Context, attempt int) error {
		return errors.New("down")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Contains(t, err.Error(), "retry aborted")
}
