// Package resilience provides bounded retries and circuit breaking for
// outbound calls.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrCircuitOpen indicates the circuit breaker is open.
	ErrCircuitOpen = gobreaker.ErrOpenState
	// ErrExhaustedRetries indicates retry attempts were exhausted.
	ErrExhaustedRetries = errors.New("retry attempts exhausted")
)

// RetryConfig holds configuration for retry operations. MaxAttempts counts
// the initial call, so MaxAttempts of 3 means at most 2 retries. Delay is a
// fixed interval between attempts.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration

	// ShouldRetry decides whether a failed attempt is worth repeating.
	// When nil every error is retried.
	ShouldRetry func(error) bool
}

// DefaultRetryConfig returns the retry policy used for outbound transport
// calls: two extra attempts with a fixed short delay.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Delay:       500 * time.Millisecond,
	}
}

// WithRetry executes an operation, repeating it on retryable failures up to
// the configured bound. The last error is returned wrapped when all attempts
// fail; a non-retryable error is returned immediately.
func WithRetry(ctx context.Context, cfg RetryConfig, operation func(context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("retry abandoned: %w", ctx.Err())
		}
		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		slog.Debug("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"delay", cfg.Delay,
			"error", err,
		)

		timer := time.NewTimer(cfg.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry abandoned: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhaustedRetries, cfg.MaxAttempts, lastErr)
}

// CircuitBreakerConfig holds configuration for circuit breakers.
type CircuitBreakerConfig struct {
	Name          string
	MaxFailures   int
	Timeout       time.Duration
	HalfOpenLimit int
	ResetInterval time.Duration
}

// CircuitBreaker wraps gobreaker with context-aware timeouts. Model-backend
// calls run through one so a failing inference endpoint fails fast instead
// of stalling every worker.
type CircuitBreaker struct {
	name    string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
}

// NewCircuitBreaker creates a circuit breaker with sensible defaults:
// 5 consecutive failures before opening, 30s call timeout, 1 probe request
// when half-open, 60s before a recovery attempt.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenLimit <= 0 {
		cfg.HalfOpenLimit = 1
	}
	if cfg.ResetInterval <= 0 {
		cfg.ResetInterval = 60 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: uint32(cfg.HalfOpenLimit),
		Interval:    cfg.ResetInterval,
		Timeout:     cfg.ResetInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.MaxFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &CircuitBreaker{
		name:    cfg.Name,
		timeout: cfg.Timeout,
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

// Execute runs an operation through the circuit breaker, applying the
// configured timeout when the caller's context has no deadline.
func (cb *CircuitBreaker) Execute(ctx context.Context, operation func(context.Context) error) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cb.timeout)
		defer cancel()
	}

	_, err := cb.cb.Execute(func() (any, error) {
		return nil, operation(ctx)
	})
	return err
}
