package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTemporary = errors.New("temporary")
	errFatal     = errors.New("fatal")
)

func isTemporary(err error) bool {
	return errors.Is(err, errTemporary)
}

// recordSleep captures waits instead of sleeping.
func recordSleep(waits *[]time.Duration) Option {
	return WithSleep(func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	})
}

func TestPolicy_Delay(t *testing.T) {
	p := DefaultPolicy

	assert.Equal(t, time.Duration(0), p.Delay(1))
	assert.Equal(t, 500*time.Millisecond, p.Delay(2))
	assert.Equal(t, time.Second, p.Delay(3))
	assert.Equal(t, 2*time.Second, p.Delay(4))
	assert.Equal(t, 2*time.Second, p.Delay(5))
	assert.Equal(t, 2*time.Second, p.Delay(10))
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	var waits []time.Duration
	calls := 0

	got, err := Do(context.Background(), DefaultPolicy, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	}, isTemporary, recordSleep(&waits))

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
	assert.Empty(t, waits)
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	var waits []time.Duration
	calls := 0

	got, err := Do(context.Background(), DefaultPolicy, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errTemporary
		}
		return 42, nil
	}, isTemporary, recordSleep(&waits))

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, waits)
}

func TestDo_ExhaustionReturnsLastError(t *testing.T) {
	var waits []time.Duration
	var retried []int
	calls := 0
	last := errors.Join(errTemporary, errors.New("attempt 3"))

	_, err := Do(context.Background(), DefaultPolicy, func(ctx context.Context) (int, error) {
		calls++
		if calls == 3 {
			return 0, last
		}
		return 0, errTemporary
	}, isTemporary, recordSleep(&waits), OnRetry(func(attempt int, delay time.Duration, err error) {
		retried = append(retried, attempt)
	}))

	assert.Same(t, last, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
	assert.Len(t, waits, 2)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	var waits []time.Duration
	calls := 0

	_, err := Do(context.Background(), DefaultPolicy, func(ctx context.Context) (int, error) {
		calls++
		return 0, errFatal
	}, isTemporary, recordSleep(&waits))

	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, calls)
	assert.Empty(t, waits)
}

func TestDo_ContextCanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Do(ctx, Policy{MaxAttempts: 3, InitialDelay: time.Hour, Multiplier: 2}, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errTemporary
	}, isTemporary)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_RealSleep(t *testing.T) {
	start := time.Now()
	calls := 0

	_, err := Do(context.Background(), Policy{MaxAttempts: 2, InitialDelay: 20 * time.Millisecond, Multiplier: 2}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errTemporary
	}, isTemporary)

	assert.ErrorIs(t, err, errTemporary)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
