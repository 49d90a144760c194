package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Rakishiii/production-scheduler/pkg/errors"
	"github.com/Rakishiii/production-scheduler/pkg/metrics"
)

func fastRetry() *RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond
	return cfg
}

func TestCall_RetriesTransientErrors(t *testing.T) {
	guard := NewGuard(NewCircuitBreaker(DefaultCircuitBreakerConfig("orders"), nil, nil), fastRetry())

	attempts := 0
	got, err := Call(context.Background(), guard, func(ctx context.Context) ([]string, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection reset")
		}
		return []string{"ORD-1"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"ORD-1"}, got)
	assert.Equal(t, 3, attempts)
}

func TestCall_DoesNotRetryAppErrors(t *testing.T) {
	guard := NewGuard(NewCircuitBreaker(DefaultCircuitBreakerConfig("orders"), nil, nil), fastRetry())

	attempts := 0
	_, err := Call(context.Background(), guard, func(ctx context.Context) (int, error) {
		attempts++
		return 0, apperrors.ErrNotFound("order")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("absences")
	cfg.FailureThreshold = 2
	m := metrics.New(metrics.DefaultConfig("test"))
	cb := NewCircuitBreaker(cfg, nil, m)

	failing := func(ctx context.Context) (interface{}, error) { return nil, errors.New("down") }
	_, _ = cb.Execute(context.Background(), failing)
	_, _ = cb.Execute(context.Background(), failing)
	require.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(context.Background(), failing)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeServiceUnavailable, appErr.Code)
}

func TestCall_NilGuard(t *testing.T) {
	got, err := Call(context.Background(), nil, func(ctx context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}
