// @title         Bunshare API
// @version       1.0
// @description   Recommendation delivery and impression tracking
// @BasePath      /api/v1

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"bunshare/internal/platform/config"
	"bunshare/internal/platform/logger"
	phttp "bunshare/internal/platform/net/http"
	"bunshare/internal/platform/store"
	"bunshare/internal/platform/supervisor"

	"bunshare/internal/services/api"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*
	// bring up logging early
	l := logger.Get()

	// open the platform store (postgres + optional CH analytics)
	st, err := store.Open(
		ctx,
		store.Config{
			PG: store.PGFromEnv(pgCfg),
			CH: store.CHFromEnv(chCfg, "bunshare", "api"),
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// http server (reads CORE_API_API_PORT etc)
	srv := phttp.NewServer(apiCfg)

	// mount our API
	background := api.Mount(
		srv.Router(),
		api.Options{
			Config:         apiCfg,
			Store:          st,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	// run the server and the background services under one tree
	tree := supervisor.New("bunshare-api", supervisor.Config{
		ShutdownTimeout: apiCfg.MayDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	})
	tree.Add(srv)
	tree.Add(background...)

	l.Info().Str("addr", srv.Addr()).Int("background", len(background)).Msg("bunshare-api starting")
	if err := tree.Serve(ctx); err != nil {
		l.Error().Err(err).Msg("supervisor stopped")
	}
	l.Info().Msg("bunshare-api stopped")
}
