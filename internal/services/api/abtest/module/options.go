package module

import (
	"time"

	"bunshare/internal/platform/config"
	"bunshare/internal/services/api/abtest/service"
	recdomain "bunshare/internal/services/api/recommendations/domain"
	rlsvc "bunshare/internal/services/ratelimit/service"
)

// Options controls the A/B module
type Options struct {
	Service     service.Config
	AdminSecret string
	CompareMax  int

	// Postgres and Application are the engines under comparison
	Postgres    recdomain.Adapter
	Application recdomain.Adapter

	// Log receives comparison rows; nil disables the history
	Log service.Log

	// Limits builds the compare limiter; nil disables rate limiting
	Limits *rlsvc.Provider
}

// FromConfig reads ADMIN_SECRET and the ABTEST_* keys. Engines, log and
// limits are wired by the caller.
func FromConfig(cfg config.Conf) Options {
	return Options{
		Service: service.Config{
			DefaultLimit:  cfg.MayInt("ABTEST_DEFAULT_LIMIT", 10),
			MaxLimit:      cfg.MayInt("ABTEST_MAX_LIMIT", 50),
			Timeout:       cfg.MayDuration("ABTEST_TIMEOUT", 3*time.Second),
			DefaultWindow: cfg.MayDuration("ABTEST_STATS_WINDOW", 24*time.Hour),
		},
		AdminSecret: cfg.MayString("ADMIN_SECRET", ""),
		CompareMax:  cfg.MayInt("RATELIMIT_COMPARE_MAX", 10),
	}
}
