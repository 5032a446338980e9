package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herval/cliobot/internal/resilience"
)

// flakyMessaging fails SendMessage a fixed number of times before
// succeeding.
type flakyMessaging struct {
	memMessaging
	failures int
	err      error
	attempts int
}

func (m *flakyMessaging) SendMessage(ctx context.Context, chatID, text string, opts *SendOptions) (*Message, error) {
	m.attempts++
	if m.attempts <= m.failures {
		return nil, m.err
	}
	return m.memMessaging.SendMessage(ctx, chatID, text, opts)
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 3, Delay: 0}
}

func TestResilientMessagingRetriesTransientFailures(t *testing.T) {
	inner := &flakyMessaging{
		memMessaging: *newMemMessaging(),
		failures:     2,
		err:          fmt.Errorf("%w: flood control", ErrTransient),
	}
	m := NewResilientMessaging(inner, fastRetry(), nil)

	msg, err := m.SendMessage(context.Background(), "c1", "hi", nil)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, 3, inner.attempts)
	assert.Len(t, inner.sentMessages(), 1)
}

func TestResilientMessagingGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakyMessaging{
		memMessaging: *newMemMessaging(),
		failures:     10,
		err:          fmt.Errorf("%w: flood control", ErrTransient),
	}
	m := NewResilientMessaging(inner, fastRetry(), nil)

	_, err := m.SendMessage(context.Background(), "c1", "hi", nil)
	require.Error(t, err)
	assert.Equal(t, 3, inner.attempts)
	// The classification survives the retry wrapper.
	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, resilience.ErrExhaustedRetries)
}

func TestResilientMessagingDoesNotRetryPermanentFailures(t *testing.T) {
	inner := &flakyMessaging{
		memMessaging: *newMemMessaging(),
		failures:     10,
		err:          fmt.Errorf("%w: bot was blocked by the user", ErrUserBlocked),
	}
	m := NewResilientMessaging(inner, fastRetry(), nil)

	_, err := m.SendMessage(context.Background(), "c1", "hi", nil)
	require.Error(t, err)
	assert.Equal(t, 1, inner.attempts)
	assert.ErrorIs(t, err, ErrUserBlocked)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrTransient))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", ErrTransient)))
	assert.False(t, IsTransient(ErrUserBlocked))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.False(t, IsTransient(nil))
}
