// Package breaker wraps sony/gobreaker with logging and metrics
package breaker

import (
	"context"
	"errors"
	"time"

	perr "bunshare/internal/platform/errors"
	"bunshare/internal/platform/logger"
	"bunshare/internal/platform/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
)

// Options configures a breaker; zero values pick the defaults
type Options struct {
	// MinRequests is the sample size before the failure ratio is considered
	MinRequests uint32
	// FailureRatio opens the breaker once reached
	FailureRatio float64
	// HalfOpenRequests are let through while probing
	HalfOpenRequests uint32
	// Interval resets the closed-state counts
	Interval time.Duration
	// Cooldown is how long the breaker stays open
	Cooldown time.Duration
}

func (o Options) withDefaults() Options {
	if o.MinRequests == 0 {
		o.MinRequests = 10
	}
	if o.FailureRatio <= 0 {
		o.FailureRatio = 0.6
	}
	if o.HalfOpenRequests == 0 {
		o.HalfOpenRequests = 3
	}
	if o.Interval <= 0 {
		o.Interval = time.Minute
	}
	if o.Cooldown <= 0 {
		o.Cooldown = 30 * time.Second
	}
	return o
}

// Breaker guards calls returning T
type Breaker[T any] struct {
	name string
	cb   *gobreaker.CircuitBreaker[T]
}

// New returns a closed breaker named name
func New[T any](name string, o Options) *Breaker[T] {
	o = o.withDefaults()
	log := logger.Named("breaker")
	metrics.BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: o.HalfOpenRequests,
		Interval:    o.Interval,
		Timeout:     o.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < o.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= o.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("breaker state changed")
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.BreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: Healthy,
	})
	return &Breaker[T]{name: name, cb: cb}
}

// Healthy reports whether err leaves the backend's health untouched: a
// caller going away or a request rejected for its input
func Healthy(err error) bool {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return true
	case perr.IsDataException(err):
		return true
	case perr.IsCode(err, perr.ErrorCodeInvalidArgument), perr.IsCode(err, perr.ErrorCodeValidation):
		return true
	}
	return false
}

// Name is the breaker name
func (b *Breaker[T]) Name() string { return b.name }

// State is the current gobreaker state
func (b *Breaker[T]) State() gobreaker.State { return b.cb.State() }

// Execute runs fn unless the breaker is open
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	return b.cb.Execute(fn)
}

// IsOpen reports whether err is a breaker rejection rather than a call failure
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
