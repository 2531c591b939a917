package module

import (
	"time"

	"bunshare/internal/platform/config"
	"bunshare/internal/services/api/recommendations/adapter"
	"bunshare/internal/services/api/recommendations/domain"
	"bunshare/internal/services/api/recommendations/service"
	rlsvc "bunshare/internal/services/ratelimit/service"
)

// Options controls the recommendations module
type Options struct {
	Service    service.Config
	Weights    adapter.WeightSet
	PoolSize   int
	ReadMax    int
	MoreMax    int
	PrivateTTL time.Duration
	PublicTTL  time.Duration

	// Limits builds the route limiters; nil disables rate limiting
	Limits *rlsvc.Provider
}

// FromConfig reads RECS_*, RATELIMIT_*_MAX, CACHE_* and WEIGHTS_* keys.
// Out of range weights panic at startup.
func FromConfig(cfg config.Conf) Options {
	ws, err := adapter.WeightsFromEnv(cfg)
	if err != nil {
		panic(err)
	}
	return Options{
		Service: service.Config{
			DefaultEngine:  domain.Engine(cfg.MayEnum("RECS_ENGINE", string(domain.EnginePostgres), string(domain.EnginePostgres), string(domain.EngineApplication))),
			DefaultLimit:   cfg.MayInt("RECS_DEFAULT_LIMIT", 20),
			MaxLimit:       cfg.MayInt("RECS_MAX_LIMIT", 50),
			Margin:         cfg.MayInt("RECS_EXCLUDE_MARGIN", 10),
			MaxExclude:     cfg.MayInt("RECS_MAX_EXCLUDE", 500),
			MinSignals:     cfg.MayInt("PERSONALIZED_MIN_SIGNALS", 5),
			AdapterTimeout: cfg.MayDuration("ADAPTER_TIMEOUT", 3*time.Second),
		},
		Weights:    ws,
		PoolSize:   cfg.MayInt("RECS_POOL_SIZE", 500),
		ReadMax:    cfg.MayInt("RATELIMIT_READ_MAX", 60),
		MoreMax:    cfg.MayInt("RATELIMIT_MORE_MAX", 40),
		PrivateTTL: cfg.MayDuration("CACHE_PRIVATE_TTL", time.Minute),
		PublicTTL:  cfg.MayDuration("CACHE_PUBLIC_TTL", 5*time.Minute),
	}
}
