// Package service builds rate limiters over a shared store and keeps the
// store tidy
package service

import (
	"time"

	"bunshare/internal/core/ratelimit"
	"bunshare/internal/platform/metrics"
	ptime "bunshare/internal/platform/time"
)

// Provider hands out named limiters that share one store and window
type Provider struct {
	store  ratelimit.Store
	window time.Duration
	clock  ptime.Clock
}

// NewProvider returns a Provider; a nil clock is the system clock
func NewProvider(store ratelimit.Store, window time.Duration, clock ptime.Clock) *Provider {
	if store == nil {
		panic("ratelimit.Provider requires a non nil Store")
	}
	if clock == nil {
		clock = ptime.System{}
	}
	return &Provider{store: store, window: window, clock: clock}
}

// Store is the backing store
func (p *Provider) Store() ratelimit.Store { return p.store }

// Limiter returns a limiter allowing max requests per window under name
func (p *Provider) Limiter(name string, max int) *ratelimit.Limiter {
	return ratelimit.New(
		ratelimit.Config{Name: name, Max: max, Window: p.window},
		p.store,
		ratelimit.WithClock(p.clock),
		ratelimit.WithObserver(record),
	)
}

func record(name string, d ratelimit.Decision, err error) {
	outcome := "allowed"
	switch {
	case err != nil:
		outcome = "failopen"
	case !d.Allowed:
		outcome = "rejected"
	}
	metrics.RateLimitDecisions.WithLabelValues(name, outcome).Inc()
}
