package vault

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
)

func TestDelay(t *testing.T) {
	base := 100 * time.Millisecond
	ceiling := time.Second

	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{60, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Delay(base, ceiling, tt.n), "n=%d", tt.n)
	}
}

func TestJitteredExponential(t *testing.T) {
	var bounds []int64
	b := newJitteredExponential(RetryPolicy{Base: 10 * time.Millisecond, Cap: 25 * time.Millisecond, Jitter: 5 * time.Millisecond},
		func(n int64) int64 {
			bounds = append(bounds, n)
			return n - 1
		})

	jitter := 5*time.Millisecond - 1
	assert.Equal(t, 10*time.Millisecond+jitter, b.NextBackOff())
	assert.Equal(t, 20*time.Millisecond+jitter, b.NextBackOff())
	assert.Equal(t, 25*time.Millisecond+jitter, b.NextBackOff())

	b.Reset()
	assert.Equal(t, 10*time.Millisecond+jitter, b.NextBackOff())
	assert.Equal(t, []int64{int64(5 * time.Millisecond), int64(5 * time.Millisecond), int64(5 * time.Millisecond), int64(5 * time.Millisecond)}, bounds)
}

func TestRetryBackOff_StopsAfterMaxAttempts(t *testing.T) {
	b := retryBackOff(t.Context(), RetryPolicy{MaxAttempts: 3, Base: time.Millisecond}, noJitter)
	b.Reset()

	assert.NotEqual(t, backoff.Stop, b.NextBackOff())
	assert.NotEqual(t, backoff.Stop, b.NextBackOff())
	assert.Equal(t, backoff.Stop, b.NextBackOff())
}

func TestRetryBackOff_StopsBeforeOverrunningDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), time.Minute)
	defer cancel()

	b := retryBackOff(ctx, RetryPolicy{MaxAttempts: 5, Base: time.Hour}, noJitter)
	b.Reset()

	assert.Equal(t, backoff.Stop, b.NextBackOff())
	assert.True(t, b.expired)
}

func TestRetryBackOff_DelayWithinDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), time.Hour)
	defer cancel()

	b := retryBackOff(ctx, RetryPolicy{MaxAttempts: 5, Base: time.Millisecond}, noJitter)
	b.Reset()

	assert.Equal(t, time.Millisecond, b.NextBackOff())
	assert.False(t, b.expired)
}

func TestRetryBackOff_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	b := retryBackOff(ctx, RetryPolicy{MaxAttempts: 5, Base: time.Millisecond}, noJitter)
	cancel()

	assert.Equal(t, backoff.Stop, b.NextBackOff())
	assert.False(t, b.expired)
	assert.Equal(t, ctx, b.Context())
}
