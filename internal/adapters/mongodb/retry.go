package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cherriae/FTC-Castle/pkg/logger"
	"github.com/cherriae/FTC-Castle/pkg/metrics"
)

// Retry defaults.
const (
	DefaultAttempts = 3
	DefaultDelay    = 2 * time.Second
)

// Retryer re-runs store operations that fail with a transient connectivity
// error. Non-transient errors pass through on the first attempt.
type Retryer struct {
	attempts int
	delay    time.Duration
}

// NewRetryer builds a Retryer. Out-of-range arguments fall back to the
// defaults.
func NewRetryer(attempts int, delay time.Duration) *Retryer {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Retryer{attempts: attempts, delay: delay}
}

// Do runs op, retrying transient failures up to the configured bound. The
// last error is returned on exhaustion.
func (r *Retryer) Do(ctx context.Context, name string, op func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		start := time.Now()
		err := op(ctx)
		metrics.ObserveStoreLatency(name, float64(time.Since(start).Milliseconds()))
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsTransient(err) {
			return err
		}
		metrics.RecordStoreRetry(name)
		logger.Get().Warn(ctx, "transient store failure",
			logger.String("op", name),
			logger.Int("attempt", attempt),
			logger.Error(err))
		if attempt == r.attempts {
			break
		}
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	metrics.RecordStoreFailure(name)
	return lastErr
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, r *Retryer, name string, op func(context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, name, func(ctx context.Context) error {
		var opErr error
		out, opErr = op(ctx)
		return opErr
	})
	return out, err
}

// IsTransient reports whether an error is worth retrying: network and
// timeout failures, or a disconnected client. Validation, not-found, and
// decode errors are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	return false
}
