// Package service contains the recommendation orchestrator: strategy
// selection, exclusion over-fetch and result shaping over the adapters
package service

import (
	"context"
	"errors"
	"time"

	"bunshare/internal/core/ranking"
	"bunshare/internal/platform/breaker"
	perr "bunshare/internal/platform/errors"
	"bunshare/internal/platform/logger"
	"bunshare/internal/platform/metrics"
	"bunshare/internal/services/api/recommendations/domain"
)

// Service defines the service contract for recommendations
type Service interface{ domain.ServicePort }

// Config tunes the orchestrator; zero values take the defaults
type Config struct {
	DefaultEngine  domain.Engine
	DefaultLimit   int           // 20
	MaxLimit       int           // 50
	Margin         int           // 10 extra works fetched past limit+exclusions
	MaxExclude     int           // 500
	MinSignals     int           // 5 signals for personalized
	AdapterTimeout time.Duration // 3s
}

func (c Config) withDefaults() Config {
	if !c.DefaultEngine.Valid() {
		c.DefaultEngine = domain.EnginePostgres
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 20
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = 50
	}
	if c.DefaultLimit > c.MaxLimit {
		c.DefaultLimit = c.MaxLimit
	}
	if c.Margin < 0 {
		c.Margin = 0
	} else if c.Margin == 0 {
		c.Margin = 10
	}
	if c.MaxExclude <= 0 {
		c.MaxExclude = 500
	}
	if c.MinSignals <= 0 {
		c.MinSignals = 5
	}
	if c.AdapterTimeout <= 0 {
		c.AdapterTimeout = 3 * time.Second
	}
	return c
}

// Svc implements the Service interface
type Svc struct {
	cfg      Config
	adapters map[domain.Engine]domain.Adapter
	signals  domain.SignalCounter
	log      *logger.Logger
}

// New creates the orchestrator over adapters. signals may be nil, in which
// case users without an explicit strategy get adaptive ranking.
func New(cfg Config, signals domain.SignalCounter, adapters ...domain.Adapter) *Svc {
	if len(adapters) == 0 {
		panic("recommendations.Service requires at least one adapter")
	}
	s := &Svc{
		cfg:      cfg.withDefaults(),
		adapters: make(map[domain.Engine]domain.Adapter, len(adapters)),
		signals:  signals,
		log:      logger.Named("recommendations"),
	}
	for _, a := range adapters {
		s.adapters[a.Engine()] = a
	}
	if _, ok := s.adapters[s.cfg.DefaultEngine]; !ok {
		s.cfg.DefaultEngine = adapters[0].Engine()
	}
	return s
}

// Config returns the effective configuration
func (s *Svc) Config() Config { return s.cfg }

// Adapter returns the adapter registered for e
func (s *Svc) Adapter(e domain.Engine) (domain.Adapter, bool) {
	a, ok := s.adapters[e]
	return a, ok
}

// Recommend resolves the strategy, over-fetches limit+exclusions+margin
// works, drops excluded and repeated ids and truncates to limit
func (s *Svc) Recommend(ctx context.Context, req domain.Request) (domain.Result, error) {
	limit, err := s.limit(req.Limit)
	if err != nil {
		return domain.Result{}, err
	}
	if req.Offset < 0 {
		return domain.Result{}, perr.WithField(perr.Validationf("offset must be at least 0"), "offset")
	}
	exclude := make(map[string]struct{}, len(req.ExcludeIDs))
	for _, id := range req.ExcludeIDs {
		if id != "" {
			exclude[id] = struct{}{}
		}
	}
	if len(exclude) > s.cfg.MaxExclude {
		return domain.Result{}, perr.WithField(perr.Validationf("excludeWorkIds must contain at most %d items", s.cfg.MaxExclude), "excludeWorkIds")
	}

	engine := req.Engine
	if engine == "" {
		engine = s.cfg.DefaultEngine
	}
	a, ok := s.adapters[engine]
	if !ok {
		return domain.Result{}, perr.WithField(perr.InvalidArgf("unknown engine %q", engine), "engine")
	}

	strategy := s.strategy(ctx, req)
	log := logger.C(ctx)

	actx, cancel := context.WithTimeout(ctx, s.cfg.AdapterTimeout)
	defer cancel()
	ranked, err := a.Rank(actx, domain.RankInput{
		UserID:   req.UserID,
		Strategy: strategy,
		Limit:    limit + len(exclude) + s.cfg.Margin,
		Offset:   req.Offset,
	})
	if err != nil {
		metrics.Recommendations.WithLabelValues(string(strategy), "error").Inc()
		log.Warn().Err(err).Str("engine", string(engine)).Str("strategy", string(strategy)).Msg("recommendation source failed")
		return domain.Result{}, classify(actx, err)
	}

	works := make([]domain.Work, 0, min(limit+1, len(ranked.Works)))
	seen := make(map[string]struct{}, len(ranked.Works))
	for _, w := range ranked.Works {
		if _, skip := exclude[w.ID]; skip {
			continue
		}
		if _, dup := seen[w.ID]; dup {
			continue
		}
		seen[w.ID] = struct{}{}
		works = append(works, w)
	}
	hasMore := len(works) > limit
	if hasMore {
		works = works[:limit]
	}

	if ranked.Strategy != "" {
		strategy = ranked.Strategy
	}
	metrics.Recommendations.WithLabelValues(string(strategy), "ok").Inc()
	return domain.Result{
		Works:     works,
		Strategy:  strategy,
		Source:    ranked.Source,
		Engine:    ranked.Engine,
		Total:     len(works),
		QueryTime: domain.Millis(ranked.QueryTime),
		HasMore:   hasMore,
	}, nil
}

func (s *Svc) limit(n int) (int, error) {
	switch {
	case n == 0:
		return s.cfg.DefaultLimit, nil
	case n < 0 || n > s.cfg.MaxLimit:
		return 0, perr.WithField(perr.Validationf("limit must be between 1 and %d", s.cfg.MaxLimit), "limit")
	}
	return n, nil
}

// strategy applies the explicit choice, downgraded for anonymous callers,
// or infers one from the user's signal count
func (s *Svc) strategy(ctx context.Context, req domain.Request) ranking.Strategy {
	if req.UserID == "" {
		return ranking.Popular
	}
	if req.Strategy.Valid() {
		return req.Strategy
	}
	if s.signals == nil {
		return ranking.Adaptive
	}

	sctx, cancel := context.WithTimeout(ctx, s.cfg.AdapterTimeout)
	defer cancel()
	n, err := s.signals.SignalCount(sctx, req.UserID)
	switch {
	case err != nil:
		logger.C(ctx).Warn().Err(err).Msg("signal count failed; serving popular")
		return ranking.Popular
	case n >= s.cfg.MinSignals:
		return ranking.Personalized
	case n >= 1:
		return ranking.Adaptive
	}
	return ranking.Popular
}

// classify types an adapter failure as a timeout or an upstream error
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return perr.Wrap(err, perr.ErrorCodeTimeout, "recommendation source timed out")
	}
	if breaker.IsOpen(err) {
		return perr.Wrap(err, perr.ErrorCodeUpstream, "recommendation source temporarily unavailable")
	}
	return perr.Wrap(err, perr.ErrorCodeUpstream, "recommendation source failed")
}
