package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
)

// RetryConfig controls how RPC calls are retried. Delays grow as
// InitialDelay * BackoffFactor^n, capped at MaxDelay.
type RetryConfig struct {
	MaxRetries     int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	BackoffFactor  float64
	RetryableError func(error) bool // nil means errors.IsRetryable
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     3,
		InitialDelay:   time.Second,
		MaxDelay:       15 * time.Second,
		BackoffFactor:  2.0,
		RetryableError: tyerrors.IsRetryable,
	}
}

// RetryManager re-runs failed ledger calls whose error is retryable.
type RetryManager struct {
	config *RetryConfig
	logger zerolog.Logger
}

// NewRetryManager creates a RetryManager; a nil config uses DefaultRetryConfig.
func NewRetryManager(config *RetryConfig, logger zerolog.Logger) *RetryManager {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.RetryableError == nil {
		config.RetryableError = tyerrors.IsRetryable
	}
	return &RetryManager{
		config: config,
		logger: logger.With().Str("component", "retry_manager").Logger(),
	}
}

// ExecuteWithRetry calls fn at most MaxRetries+1 times. It stops at the first
// success, at the first non-retryable error, or when ctx is done.
func (r *RetryManager) ExecuteWithRetry(ctx context.Context, operation string, fn func() error) error {
	attempts := r.config.MaxRetries + 1
	var err error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if werr := r.wait(ctx, r.CalculateBackoff(attempt-1)); werr != nil {
				return werr
			}
		} else if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		if err = fn(); err == nil {
			if attempt > 0 {
				r.logger.Info().Str("operation", operation).Int("attempts", attempt+1).Msg("operation succeeded after retries")
			}
			return nil
		}
		if !r.config.RetryableError(err) {
			return err
		}

		r.logger.Warn().
			Err(err).
			Str("operation", operation).
			Int("attempt", attempt+1).
			Int("max_attempts", attempts).
			Msg("retryable ledger error")
	}

	return fmt.Errorf("operation %s failed after %d attempts: %w", operation, attempts, err)
}

func (r *RetryManager) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CalculateBackoff returns the delay that follows the given zero-based attempt.
func (r *RetryManager) CalculateBackoff(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt))
	if delay > float64(r.config.MaxDelay) {
		return r.config.MaxDelay
	}
	return time.Duration(delay)
}
