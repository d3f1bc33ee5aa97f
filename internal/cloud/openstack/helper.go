package openstack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aravindh-murugesan/openstack-snapsentry/internal/cloud"
	"github.com/gophercloud/gophercloud/v2"
	gobreaker "github.com/sony/gobreaker/v2"
	"k8s.io/apimachinery/pkg/util/wait"
)

// breakerThreshold is the number of consecutive transient failures after which
// the circuit opens and calls fail fast.
const breakerThreshold = 5

// breakerCooldown is how long the circuit stays open before a trial request is allowed.
// It is longer than a typical pass, so an open circuit stays open for the pass.
const breakerCooldown = 5 * time.Minute

// isRetryable determines if an error is transient and warrants a retry.
// It specifically checks for standard HTTP 408/429/5xx codes from Gophercloud
// and assumes other unknown network errors are also retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Cancellation and an open circuit are final for this call.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	var gopherErrors gophercloud.ErrUnexpectedResponseCode
	if errors.As(err, &gopherErrors) {
		switch gopherErrors.Actual {
		case http.StatusTooManyRequests, // 429 - Rate Limiting
			http.StatusRequestTimeout,      // 408 - Client Timeout
			http.StatusInternalServerError, // 500 - Server Error
			http.StatusServiceUnavailable,  // 503 - Maintenance/Overload
			http.StatusGatewayTimeout:      // 504 - Upstream Timeout
			return true
		default:
			// Client errors (400, 401, 404, etc.) are not retryable
			// as the request itself is invalid.
			return false
		}
	}

	// Not an HTTP error (DNS failure, connection reset): treat as transient.
	return true
}

// isNotFound reports whether err is a 404 response.
func isNotFound(err error) bool {
	var gopherErrors gophercloud.ErrUnexpectedResponseCode
	return errors.As(err, &gopherErrors) && gopherErrors.Actual == http.StatusNotFound
}

// ExecuteAction runs operation with exponential backoff and jitter.
//
// The number of attempts is bounded by cfg.MaxRetries and the total elapsed time,
// sleeps included, by cfg.OperationTimeout. Non-retryable errors are returned
// unchanged on the first occurrence.
func ExecuteAction(ctx context.Context, cfg cloud.RetryConfig, logger *slog.Logger, opName string, operation func(ctx context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.OperationTimeout)
		defer cancel()
	}

	backoff := wait.Backoff{
		Duration: cfg.BaseDelay,
		Factor:   2,
		Jitter:   0.5,
		Steps:    max(cfg.MaxRetries, 0) + 1,
	}

	attempts := 0
	permanent := false
	var lastErr error
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		attempts++
		lastErr = operation(ctx)
		if lastErr == nil {
			return true, nil
		}
		if !isRetryable(lastErr) {
			permanent = true
			return false, lastErr
		}
		if attempts < backoff.Steps {
			logger.Warn("Transient error detected, scheduling retry",
				"operation", opName,
				"attempt", attempts,
				"max_retries", cfg.MaxRetries,
				"error", lastErr)
		}
		return false, nil
	})

	switch {
	case err == nil:
		return nil
	case lastErr == nil:
		return fmt.Errorf("%s did not start: %w", opName, err)
	case permanent:
		return lastErr
	case ctx.Err() != nil:
		return fmt.Errorf("%s timed out after %d attempt(s): %w: %w", opName, attempts, ctx.Err(), lastErr)
	default:
		return fmt.Errorf("%s failed after %d attempt(s): %w", opName, attempts, lastErr)
	}
}

// circuitBreaker returns the breaker shared by every call of this client.
func (c *Client) circuitBreaker() *gobreaker.CircuitBreaker[any] {
	c.breakerOnce.Do(func() {
		name := "openstack"
		if c.ProfileName != "" {
			name += "-" + c.ProfileName
		}
		c.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     breakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerThreshold
			},
			// Only transient failures count against the backend.
			IsSuccessful: func(err error) bool {
				return err == nil || !isRetryable(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger().Warn("Circuit breaker state changed",
					"breaker", name, "from", from.String(), "to", to.String())
			},
		})
	})
	return c.breaker
}

// executeWithRetry runs operation through the circuit breaker with the client's
// retry configuration. Every attempt is reported to the breaker.
func (c *Client) executeWithRetry(ctx context.Context, opName string, operation func(ctx context.Context) error) error {
	cb := c.circuitBreaker()
	return ExecuteAction(ctx, c.RetryConfig, c.logger(), opName, func(ctx context.Context) error {
		_, err := cb.Execute(func() (any, error) {
			return nil, operation(ctx)
		})
		return err
	})
}

func requestID(h http.Header) string {
	if h == nil {
		return ""
	}
	return h.Get(requestIDHeader)
}
