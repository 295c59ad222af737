package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBusy = errors.New("busy")

func recordingPolicy(attempts int, waits *[]time.Duration) Policy {
	return Policy{
		MaxAttempts:    attempts,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     25 * time.Millisecond,
		sleep: func(_ context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return nil
		},
	}
}

func TestPolicy_StopsOnSuccess(t *testing.T) {
	var waits []time.Duration
	calls := 0
	err := recordingPolicy(5, &waits).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, waits)
}

func TestPolicy_ExhaustsAndCapsBackoff(t *testing.T) {
	var waits []time.Duration
	calls := 0
	err := recordingPolicy(4, &waits).Do(context.Background(), func(context.Context) error {
		calls++
		return errBusy
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond}, waits)
}

func TestPolicy_NonRetryableReturnsImmediately(t *testing.T) {
	var waits []time.Duration
	p := recordingPolicy(3, &waits)
	p.Retryable = func(err error) bool { return errors.Is(err, errBusy) }

	fatal := errors.New("fatal")
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})
	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, waits)
}

func TestNoRetry_RunsOnce(t *testing.T) {
	calls := 0
	err := NoRetry().Do(context.Background(), func(context.Context) error {
		calls++
		return errBusy
	})
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 1, calls)
}

func TestPolicy_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Policy{MaxAttempts: 3}.Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
