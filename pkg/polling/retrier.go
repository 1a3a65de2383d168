// Package polling re-reads a resource while Strava reports it as still being processed.
//
// Uploads and freshly created activities are materialised asynchronously. The Retrier
// blocks the calling goroutine between attempts; callers that must not block should
// run it in their own goroutine.
package polling

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for polling operations.
var (
	pollingAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strava_polling_attempts_total",
		Help: "Total number of fetch attempts made while polling transient resources",
	})

	pollingWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "strava_polling_wait_seconds",
		Help:    "Wait duration between polling attempts",
		Buckets: []float64{0.5, 1, 1.5, 2, 5},
	})

	pollingExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strava_polling_exhausted_total",
		Help: "Total number of times polling gave up with the resource still transient",
	})
)

// SleepFunc waits for d. It returns early when ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration)

// Config holds the configuration for polling.
type Config struct {
	// MaxAttempts is the maximum number of fetches (including the first one).
	MaxAttempts int

	// Base is the fixed part of the wait between attempts.
	Base time.Duration

	// Increment is added once per attempt already made.
	Increment time.Duration

	// Sleep replaces the wait between attempts (tests).
	Sleep SleepFunc
}

// DefaultConfig returns the default polling configuration: up to 10 attempts,
// waiting 1s + attempt*100ms in between.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 10,
		Base:        1 * time.Second,
		Increment:   100 * time.Millisecond,
		Sleep:       sleepContext,
	}
}

// Retrier polls a single resource.
type Retrier[R any] struct {
	config Config
	logger zerolog.Logger
}

// New creates a retrier. Zero fields in config take their defaults; Base and
// Increment are defaulted together when both are zero.
func New[R any](config Config, logger zerolog.Logger) *Retrier[R] {
	def := DefaultConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.Base < 0 || (config.Base == 0 && config.Increment == 0) {
		config.Base = def.Base
		config.Increment = def.Increment
	}
	if config.Increment < 0 {
		config.Increment = def.Increment
	}
	if config.Sleep == nil {
		config.Sleep = def.Sleep
	}

	return &Retrier[R]{
		config: config,
		logger: logger,
	}
}

// Backoff returns the wait after the given 1-based attempt.
func (r *Retrier[R]) Backoff(attempt int) time.Duration {
	return r.config.Base + time.Duration(attempt)*r.config.Increment
}

// Retrieve calls fetchOne until isTransient reports false or MaxAttempts fetches
// were made, and returns the last response. Running out of attempts is not an error;
// the caller inspects the returned resource. A fetch error is returned at once and
// never retried. Cancelling ctx cuts the current wait short but does not stop polling;
// fetchOne sees the cancelled context.
func (r *Retrier[R]) Retrieve(ctx context.Context, fetchOne func(context.Context) (R, error), isTransient func(R) bool) (R, error) {
	var last R

	for attempt := 1; ; attempt++ {
		pollingAttemptsTotal.Inc()

		resp, err := fetchOne(ctx)
		if err != nil {
			var zero R
			return zero, fmt.Errorf("poll attempt %d: %w", attempt, err)
		}
		last = resp

		if !isTransient(resp) {
			if attempt > 1 {
				r.logger.Info().
					Int("attempt", attempt).
					Msg("Resource ready after polling")
			}
			return last, nil
		}

		if attempt >= r.config.MaxAttempts {
			break
		}

		wait := r.Backoff(attempt)
		pollingWaitSeconds.Observe(wait.Seconds())

		r.logger.Debug().
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Resource still transient, waiting")

		r.config.Sleep(ctx, wait)
	}

	pollingExhaustedTotal.Inc()
	r.logger.Warn().
		Int("max_attempts", r.config.MaxAttempts).
		Msg("Polling attempts exhausted, returning transient resource")

	return last, nil
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
