package vault

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// jitteredExponential is a backoff.BackOff producing
// min(base*2^(n-1), cap) + U[0, jitter) for the n-th retry.
type jitteredExponential struct {
	base    time.Duration
	ceiling time.Duration
	jitter  time.Duration
	rand    func(n int64) int64

	retry int
}

var _ backoff.BackOff = (*jitteredExponential)(nil)

func newJitteredExponential(p RetryPolicy, rand func(n int64) int64) *jitteredExponential {
	return &jitteredExponential{
		base:    p.Base,
		ceiling: p.Cap,
		jitter:  p.Jitter,
		rand:    rand,
	}
}

// NextBackOff returns the delay before the next retry
func (b *jitteredExponential) NextBackOff() time.Duration {
	b.retry++
	return Delay(b.base, b.ceiling, b.retry) + b.jitterDelay()
}

func (b *jitteredExponential) Reset() { b.retry = 0 }

func (b *jitteredExponential) jitterDelay() time.Duration {
	if b.jitter <= 0 || b.rand == nil {
		return 0
	}
	return time.Duration(b.rand(int64(b.jitter)))
}

// Delay is the jitter-free delay before retry n (n >= 1)
func Delay(base, ceiling time.Duration, n int) time.Duration {
	if base <= 0 || n < 1 {
		return 0
	}
	d := base
	for i := 1; i < n; i++ {
		if ceiling > 0 && d >= ceiling {
			break
		}
		d *= 2
		if d <= 0 { // overflow
			if ceiling > 0 {
				return ceiling
			}
			return math.MaxInt64
		}
	}
	if ceiling > 0 && d > ceiling {
		d = ceiling
	}
	return d
}

// deadlineBackOff ends the schedule once ctx is done, or as soon as the next
// delay would run past ctx's deadline. expired records the latter.
type deadlineBackOff struct {
	backoff.BackOff
	ctx     context.Context
	expired bool
}

var _ backoff.BackOffContext = (*deadlineBackOff)(nil)

func (b *deadlineBackOff) Context() context.Context { return b.ctx }

func (b *deadlineBackOff) NextBackOff() time.Duration {
	if b.ctx.Err() != nil {
		return backoff.Stop
	}
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop {
		return backoff.Stop
	}
	if deadline, ok := b.ctx.Deadline(); ok && time.Until(deadline) < next {
		b.expired = true
		return backoff.Stop
	}
	return next
}

// retryBackOff bounds the schedule to maxAttempts total attempts and stops
// when ctx is done or its deadline is too close for another delay.
func retryBackOff(ctx context.Context, p RetryPolicy, rand func(n int64) int64) *deadlineBackOff {
	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return &deadlineBackOff{
		BackOff: backoff.WithMaxRetries(newJitteredExponential(p, rand), uint64(retries)),
		ctx:     ctx,
	}
}
