package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 3}, func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRecoversWithinBudget(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 3}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustionWrapsLastError(t *testing.T) {
	sentinel := errors.New("still failing")
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 2}, func(context.Context) error {
		calls++
		return sentinel
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, ErrExhaustedRetries)
	assert.ErrorIs(t, err, sentinel)
}

func TestWithRetryRespectsShouldRetry(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{
		MaxAttempts: 5,
		ShouldRetry: func(error) bool { return false },
	}, func(context.Context) error {
		calls++
		return permanent
	})

	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, RetryConfig{MaxAttempts: 10, Delay: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithRetryZeroAttemptsStillRunsOnce(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{}, func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
