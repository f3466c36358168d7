package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/index-rotator/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := retry.Retry(context.Background(), fastConfig(5), func() error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnNonRetryableError(t *testing.T) {
	calls := 0
	permanent := errors.New("security_exception: unable to authenticate")
	err := retry.Retry(context.Background(), fastConfig(5), func() error {
		calls++
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := retry.Retry(context.Background(), fastConfig(3), func() error {
		calls++
		return errors.New("i/o timeout")
	})

	require.ErrorIs(t, err, retry.ErrMaxAttemptsExceeded)
	assert.Equal(t, 3, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry.Retry(ctx, fastConfig(3), func() error {
		t.Fatal("fn must not run with a cancelled context")
		return nil
	})

	require.ErrorIs(t, err, retry.ErrContextCancelled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConfig_Backoff(t *testing.T) {
	cfg := retry.Config{InitialDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, cfg.Backoff(1))
	assert.Equal(t, 2*time.Second, cfg.Backoff(2))
	assert.Equal(t, 4*time.Second, cfg.Backoff(3))
	assert.Equal(t, 5*time.Second, cfg.Backoff(4))
}

func TestDefaultIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"refused", errors.New("dial tcp 127.0.0.1:9200: connect: connection refused"), true},
		{"timeout upper", errors.New("Client.Timeout exceeded"), true},
		{"eof", errors.New("unexpected EOF"), true},
		{"auth", errors.New("401 Unauthorized"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, retry.DefaultIsRetryable(tt.err))
		})
	}
}
