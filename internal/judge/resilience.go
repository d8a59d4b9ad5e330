package judge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/prmpt-academy/prmpt-api/internal/lesson"
)

// ResilienceConfig tunes retries and the circuit breaker around lesson
// lookups.
type ResilienceConfig struct {
	MaxAttempts      int
	InitialDelay     time.Duration
	MaxDelay         time.Duration
	FailureThreshold int           // consecutive failures that open the breaker
	OpenTimeout      time.Duration // how long the breaker stays open
}

func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		MaxAttempts:      3,
		InitialDelay:     50 * time.Millisecond,
		MaxDelay:         time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// lookupResult lets not-found travel as a value so it never counts as a
// breaker failure.
type lookupResult struct {
	lesson lesson.Lesson
	found  bool
}

type resilientLookup struct {
	breaker circuitbreaker.CircuitBreaker[lookupResult]
	retrier retry.Retry[lookupResult]
}

func newResilientLookup(cfg ResilienceConfig, log *slog.Logger) *resilientLookup {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	threshold := cfg.FailureThreshold
	return &resilientLookup{
		breaker: circuitbreaker.New[lookupResult](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return threshold > 0 && int(counts.ConsecutiveFailures) >= threshold
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				log.Warn("lesson store circuit breaker state change",
					"from", from.String(),
					"to", to.String())
			},
		}),
		retrier: retry.New[lookupResult](retry.Config{
			MaxAttempts:   cfg.MaxAttempts,
			InitialDelay:  cfg.InitialDelay,
			MaxDelay:      cfg.MaxDelay,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryable,
		}),
	}
}

func (r *resilientLookup) get(ctx context.Context, fn func(context.Context) (lesson.Lesson, bool, error)) (lesson.Lesson, bool, error) {
	res, err := r.breaker.Execute(ctx, func(ctx context.Context) (lookupResult, error) {
		return r.retrier.Do(ctx, func(ctx context.Context) (lookupResult, error) {
			l, found, err := fn(ctx)
			return lookupResult{lesson: l, found: found}, err
		})
	})
	if err != nil {
		return lesson.Lesson{}, false, err
	}
	return res.lesson, res.found, nil
}

// Cancellation and deadlines are the caller's decision; everything else
// may be transient.
func isRetryable(err error) bool {
	return err != nil &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
