// Package api provides the HTTP API for the application
package api

import (
	"time"

	"bunshare/internal/platform/config"
	"bunshare/internal/platform/logger"
	"bunshare/internal/platform/metrics"
	phttp "bunshare/internal/platform/net/http"
	"bunshare/internal/platform/net/middleware"
	"bunshare/internal/platform/store"
	ptime "bunshare/internal/platform/time"

	"bunshare/internal/modkit"
	"bunshare/internal/modkit/httpkit"
	"bunshare/internal/modkit/module"
	"bunshare/internal/modkit/swaggerkit"

	analyticsmod "bunshare/internal/services/analytics/module"
	abmod "bunshare/internal/services/api/abtest/module"
	impmod "bunshare/internal/services/api/impressions/module"
	metamod "bunshare/internal/services/api/meta/module"
	recmod "bunshare/internal/services/api/recommendations/module"
	rlmod "bunshare/internal/services/ratelimit/module"

	"github.com/thejerf/suture/v4"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Clock          ptime.Clock
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router and returns the
// background services the modules own. The caller supervises them.
func Mount(r phttp.Router, opt Options) []suture.Service {
	cfg := opt.Config

	// shared deps for modules
	deps := modkit.Deps{Cfg: cfg, Clock: opt.Clock}.FromStore(opt.Store)
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	// infrastructure modules first; their ports feed the API modules
	limits := rlmod.New(deps, rlmod.FromConfig(cfg))
	provider := module.MustPortsOf[rlmod.Ports](limits).Provider

	analytics := analyticsmod.New(deps, analyticsmod.FromConfig(cfg))
	sinks := module.MustPortsOf[analyticsmod.Ports](analytics)

	ro := recmod.FromConfig(cfg)
	ro.Limits = provider
	recs := recmod.New(deps, ro)
	engines := module.MustPortsOf[recmod.Ports](recs)

	// comparisons get their own adapter instances so they never trip serving breakers
	ao := abmod.FromConfig(cfg)
	ao.Postgres = engines.ComparePostgres
	ao.Application = engines.CompareApplication
	ao.Limits = provider
	if sinks.Comparisons != nil {
		ao.Log = sinks.Comparisons
	}

	io := impmod.FromConfig(cfg)
	if sinks.Impressions != nil {
		io.Analytics = sinks.Impressions
	}

	mods := []module.Module{
		metamod.New(deps),
		limits,
		analytics,
		recs,
		abmod.New(deps, ao),
		impmod.New(deps, io),
	}

	stack := httpkit.CommonStack(httpkit.StackOptions{
		CORS:           middleware.CORSOptions{AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", nil)},
		SlowRequest:    cfg.MayDuration("SLOW_REQUEST", time.Second),
		RequestTimeout: cfg.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
	})
	if tokens := httpkit.HS256Tokens(httpkit.JWTOptions{
		Secret:   []byte(cfg.MayString("JWT_SECRET", "")),
		Issuer:   cfg.MayString("JWT_ISSUER", ""),
		Audience: cfg.MayString("JWT_AUDIENCE", ""),
		Leeway:   cfg.MayDuration("JWT_LEEWAY", 30*time.Second),
	}); tokens != nil {
		stack = append(stack, httpkit.Auth(httpkit.NewPortFunc(tokens), false))
	}

	// Swagger + profiler + metrics live outside the versioned scope
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
	r.Handle("/metrics", metrics.Handler())

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		for _, m := range mods {
			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})

	var services []suture.Service
	services = append(services, limits.Services()...)
	services = append(services, analytics.Services()...)
	return services
}
