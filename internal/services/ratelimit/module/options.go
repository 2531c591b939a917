package module

import (
	"time"

	"bunshare/internal/platform/config"
)

// Backends
const (
	BackendMemory = "memory"
	BackendPG     = "pg"
)

// Options controls the limiter store
type Options struct {
	Backend      string
	Window       time.Duration
	SweepEvery   time.Duration
	StoreTimeout time.Duration
}

// FromConfig reads RATELIMIT_* keys
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("RATELIMIT_")
	return Options{
		Backend:      c.MayEnum("BACKEND", BackendMemory, BackendMemory, BackendPG),
		Window:       c.MayDuration("WINDOW", time.Minute),
		SweepEvery:   c.MayDuration("SWEEP_EVERY", 5*time.Minute),
		StoreTimeout: c.MayDuration("STORE_TIMEOUT", 250*time.Millisecond),
	}
}
