// file: internals/features/attendance/ingest/service/retry.go
package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy retries an operation a fixed number of times with a constant
// delay. Errors rejected by Retryable stop immediately.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Retryable   func(error) bool
	OnRetry     func(err error, wait time.Duration)
	Timer       backoff.Timer // nil uses a real timer
}

// Retry runs op under policy p and returns its last result along with the
// number of attempts made.
func Retry[T any](ctx context.Context, p RetryPolicy, op func(ctx context.Context) (T, error)) (T, int, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	tries := 0
	operation := func() (T, error) {
		tries++
		v, err := op(ctx)
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(attempts-1)),
		ctx,
	)
	v, err := backoff.RetryNotifyWithTimerAndData(operation, b, p.OnRetry, p.Timer)
	return v, tries, err
}
