package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsTerminalValue(t *testing.T) {
	calls := 0
	result, err := Run(context.Background(),
		Config{Interval: time.Millisecond, MaxAttempts: 10},
		func(context.Context) (int, error) {
			calls++
			return calls, nil
		},
		func(v int) bool { return v >= 3 },
	)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Value)
	assert.False(t, result.TimedOut)
	assert.Equal(t, 3, calls)
}

func TestRunFailOnTimeout(t *testing.T) {
	_, err := Run(context.Background(),
		Config{Interval: time.Millisecond, MaxAttempts: 3, OnTimeout: FailOnTimeout},
		func(context.Context) (int, error) { return 0, nil },
		func(int) bool { return false },
	)

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRunTolerateTimeout(t *testing.T) {
	result, err := Run(context.Background(),
		Config{Interval: time.Millisecond, MaxAttempts: 3, OnTimeout: TolerateTimeout},
		func(context.Context) (int, error) { return 0, nil },
		func(int) bool { return false },
	)

	require.NoError(t, err)
	assert.True(t, result.TimedOut)
}

func TestRunSwallowsTransientErrors(t *testing.T) {
	calls := 0
	result, err := Run(context.Background(),
		Config{Interval: time.Millisecond, MaxAttempts: 10},
		func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("not found yet")
			}
			return "receipt", nil
		},
		func(v string) bool { return v != "" },
	)

	require.NoError(t, err)
	assert.Equal(t, "receipt", result.Value)
}

func TestRunStopsOnPermanentError(t *testing.T) {
	fatal := errors.New("reverted")
	calls := 0
	_, err := Run(context.Background(),
		Config{Interval: time.Millisecond, MaxAttempts: 10},
		func(context.Context) (int, error) {
			calls++
			return 0, Permanent(fatal)
		},
		func(int) bool { return false },
	)

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls, "permanent error should stop the loop immediately")
}

func TestRunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx,
		Config{Interval: time.Second, MaxAttempts: 10},
		func(context.Context) (int, error) { return 0, nil },
		func(int) bool { return false },
	)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
