package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func TestRetry_SucceedsAfterTransientFailure(t *testing.T) {
	timer := newInstantTimer()
	calls := 0
	var notified []error

	v, attempts, err := Retry(context.Background(), RetryPolicy{
		MaxAttempts: 3,
		Delay:       250 * time.Millisecond,
		Retryable:   func(err error) bool { return errors.Is(err, errFlaky) },
		OnRetry:     func(err error, _ time.Duration) { notified = append(notified, err) },
		Timer:       timer,
	}, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errFlaky
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, attempts)
	assert.Len(t, notified, 2)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, timer.waits)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	boom := errors.New("constraint")
	calls := 0
	_, attempts, err := Retry(context.Background(), RetryPolicy{
		MaxAttempts: 5,
		Retryable:   func(error) bool { return false },
		Timer:       newInstantTimer(),
	}, func(context.Context) (int, error) {
		calls++
		return 0, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustsBudget(t *testing.T) {
	_, attempts, err := Retry(context.Background(), RetryPolicy{
		MaxAttempts: 2,
		Retryable:   func(error) bool { return true },
		Timer:       newInstantTimer(),
	}, func(context.Context) (int, error) { return 0, errFlaky })

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 2, attempts)
}

func TestRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	_, attempts, err := Retry(context.Background(), RetryPolicy{Timer: newInstantTimer()},
		func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Retry(ctx, RetryPolicy{MaxAttempts: 3, Retryable: func(error) bool { return true }, Timer: newInstantTimer()},
		func(context.Context) (int, error) { return 0, errFlaky })
	assert.Error(t, err)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, true},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"pq connection", &pq.Error{Code: "08003"}, true},
		{"pq syntax", &pq.Error{Code: "42601"}, false},
		{"net timeout", fmt.Errorf("dial: %w", timeoutErr{}), true},
		{"connection reset text", errors.New("read tcp: connection reset by peer"), true},
		{"cancelled", context.Canceled, false},
		{"plain", errors.New("something else"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}
