// Package ratelimit is a fixed-window request counter keyed by client
// identifier. The counter lives behind Store so it can be shared across
// processes.
package ratelimit

import (
	"context"
	"time"

	"bunshare/internal/platform/logger"
	ptime "bunshare/internal/platform/time"
)

// Unknown is the identifier used when no client address can be derived
const Unknown = "unknown"

// DefaultWindow is the length of one counting window
const DefaultWindow = time.Minute

// Window is the live counter for one key
type Window struct {
	Count   int
	ResetAt time.Time
}

// Store increments counters. Hit must be atomic per key: it opens a fresh
// window with Count 1 when none is live at now, otherwise increments Count.
type Store interface {
	Hit(ctx context.Context, key string, now time.Time, window time.Duration) (Window, error)
}

// Decision is the outcome of one Check
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Config is one limiter, usually one per endpoint group
type Config struct {
	Name   string
	Max    int
	Window time.Duration
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock replaces the system clock
func WithClock(c ptime.Clock) Option { return func(l *Limiter) { l.clock = c } }

// WithObserver is called after every decision; err is the store error, if any
func WithObserver(fn func(name string, d Decision, err error)) Option {
	return func(l *Limiter) { l.observe = fn }
}

// Limiter checks identifiers against a Store
type Limiter struct {
	cfg     Config
	store   Store
	clock   ptime.Clock
	log     *logger.Logger
	observe func(string, Decision, error)
}

// New returns a Limiter; Max below 1 is raised to 1 and a zero Window is DefaultWindow
func New(cfg Config, store Store, opts ...Option) *Limiter {
	if cfg.Max < 1 {
		cfg.Max = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	l := &Limiter{
		cfg:   cfg,
		store: store,
		clock: ptime.System{},
		log:   logger.Named("ratelimit"),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Name is the limiter name used as key namespace
func (l *Limiter) Name() string { return l.cfg.Name }

// Max is the per-window request budget
func (l *Limiter) Max() int { return l.cfg.Max }

// Key namespaces identifier so limiters sharing a Store stay independent
func (l *Limiter) Key(identifier string) string {
	if identifier == "" {
		identifier = Unknown
	}
	return l.cfg.Name + ":" + identifier
}

// Check counts one request for identifier. A store failure allows the
// request as if it opened a new window.
func (l *Limiter) Check(ctx context.Context, identifier string) Decision {
	now := l.clock.Now()
	w, err := l.store.Hit(ctx, l.Key(identifier), now, l.cfg.Window)
	if err != nil {
		l.log.Warn().Err(err).Str("limiter", l.cfg.Name).Msg("rate limit store failed; allowing request")
		w = Window{Count: 1, ResetAt: now.Add(l.cfg.Window)}
	}
	d := decide(l.cfg.Max, w, now)
	if l.observe != nil {
		l.observe(l.cfg.Name, d, err)
	}
	return d
}

func decide(max int, w Window, now time.Time) Decision {
	d := Decision{
		Allowed:   w.Count <= max,
		Limit:     max,
		Remaining: max - w.Count,
		ResetAt:   w.ResetAt,
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = ceilSeconds(w.ResetAt.Sub(now))
	}
	return d
}

// ceilSeconds rounds up to whole seconds with a floor of one
func ceilSeconds(d time.Duration) time.Duration {
	s := (d + time.Second - 1) / time.Second
	if s < 1 {
		s = 1
	}
	return s * time.Second
}
