// Package service runs both recommendation engines side by side and measures
// how far apart they are. Comparisons are advisory and never sit on the
// serving path.
package service

import (
	"context"
	"math"
	"runtime/debug"
	"sync"
	"time"

	"bunshare/internal/core/ranking"
	perr "bunshare/internal/platform/errors"
	"bunshare/internal/platform/logger"
	"bunshare/internal/platform/metrics"
	ptime "bunshare/internal/platform/time"
	"bunshare/internal/services/api/abtest/domain"
	recdomain "bunshare/internal/services/api/recommendations/domain"

	"github.com/google/uuid"
)

// Config bounds a comparison
type Config struct {
	DefaultLimit  int
	MaxLimit      int
	Timeout       time.Duration
	DefaultWindow time.Duration
	MaxWindow     time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 10
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = 50
	}
	if c.Timeout <= 0 {
		c.Timeout = 3 * time.Second
	}
	if c.DefaultWindow <= 0 {
		c.DefaultWindow = 24 * time.Hour
	}
	if c.MaxWindow <= 0 {
		c.MaxWindow = 30 * 24 * time.Hour
	}
	return c
}

// Log receives one row per comparison in analytics.ABComparisons column order
type Log interface {
	Enqueue(rows ...[]any) int
}

// Comparator implements domain.ComparatorPort
type Comparator struct {
	cfg       Config
	pg        recdomain.Adapter
	app       recdomain.Adapter
	refresher domain.Refresher
	stats     domain.StatsSource
	log       Log
	clock     ptime.Clock
}

// Option configures a Comparator
type Option func(*Comparator)

// WithRefresher enables Refresh
func WithRefresher(r domain.Refresher) Option { return func(c *Comparator) { c.refresher = r } }

// WithStats enables Stats
func WithStats(s domain.StatsSource) Option { return func(c *Comparator) { c.stats = s } }

// WithLog records every comparison to l
func WithLog(l Log) Option { return func(c *Comparator) { c.log = l } }

// WithClock replaces the system clock
func WithClock(clk ptime.Clock) Option { return func(c *Comparator) { c.clock = clk } }

// New returns a Comparator over the two engines
func New(cfg Config, pg, app recdomain.Adapter, opts ...Option) *Comparator {
	if pg == nil || app == nil {
		panic("abtest: both engines are required")
	}
	c := &Comparator{cfg: cfg.withDefaults(), pg: pg, app: app, clock: ptime.System{}}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ domain.ComparatorPort = (*Comparator)(nil)

// Compare asks both engines for the same page concurrently. An engine
// failure is reported in its Outcome; it does not fail the comparison.
func (c *Comparator) Compare(ctx context.Context, in domain.CompareInput) (domain.Comparison, error) {
	limit := in.Limit
	if limit == 0 {
		limit = c.cfg.DefaultLimit
	}
	if limit < 1 || limit > c.cfg.MaxLimit {
		return domain.Comparison{}, perr.WithField(perr.Validationf("limit must be between 1 and %d", c.cfg.MaxLimit), "limit")
	}
	strategy := in.Strategy
	if strategy == "" {
		strategy = ranking.Popular
		if in.UserID != "" {
			strategy = ranking.Personalized
		}
	}

	log := logger.C(ctx)
	if in.Refresh {
		if c.refresher == nil {
			return domain.Comparison{}, perr.Unavailablef("score refresh is not configured")
		}
		if err := c.refresher.Refresh(ctx); err != nil {
			log.Error().Err(err).Msg("score refresh failed")
			return domain.Comparison{}, err
		}
	}

	req := recdomain.RankInput{UserID: in.UserID, Strategy: strategy, Limit: limit}
	var (
		wg      sync.WaitGroup
		pg, app domain.Outcome
	)
	wg.Add(2)
	go func() { defer wg.Done(); pg = c.run(ctx, c.pg, req) }()
	go func() { defer wg.Done(); app = c.run(ctx, c.app, req) }()
	wg.Wait()

	cmp := domain.Comparison{
		ID:          uuid.NewString(),
		ComparedAt:  c.clock.Now().UTC(),
		UserID:      in.UserID,
		Limit:       limit,
		Strategy:    strategy,
		Refreshed:   in.Refresh,
		PostgreSQL:  pg,
		Application: app,
		Metrics:     Measure(pg, app),
	}
	metrics.Comparisons.WithLabelValues(outcome(pg, app)).Inc()
	if c.log != nil {
		c.log.Enqueue(Row(cmp))
	}
	log.Debug().
		Str("comparison_id", cmp.ID).
		Float64("overlap_pct", cmp.Metrics.OverlapPercentage).
		Bool("postgresql_faster", cmp.Metrics.PostgreSQLFaster).
		Msg("engines compared")
	return cmp, nil
}

// run asks one engine for a page. A panic in the engine is contained to its
// Outcome so the other engine's answer survives.
func (c *Comparator) run(ctx context.Context, a recdomain.Adapter, in recdomain.RankInput) (out domain.Outcome) {
	out = domain.Outcome{Engine: a.Engine(), Works: []recdomain.Work{}}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := c.clock.Now()
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		logger.C(ctx).Error().
			Str("engine", string(out.Engine)).
			Interface("panic", v).
			Bytes("stack", debug.Stack()).
			Msg("engine panicked during comparison")
		metrics.ComparisonPanics.WithLabelValues(string(out.Engine)).Inc()
		out = domain.Outcome{
			Engine:    out.Engine,
			Works:     []recdomain.Work{},
			ElapsedMs: recdomain.Millis(c.clock.Now().Sub(start)),
			Error:     perr.PanicErrf("engine panicked: %v", v).Error(),
		}
	}()

	r, err := a.Rank(ctx, in)
	out.ElapsedMs = recdomain.Millis(c.clock.Now().Sub(start))
	if err != nil {
		if ctx.Err() != nil {
			err = perr.FromContext(ctx.Err(), "engine timed out")
		}
		out.Error = err.Error()
		return out
	}
	out.Success = true
	out.Strategy = r.Strategy
	out.Source = r.Source
	if r.Works != nil {
		out.Works = r.Works
	}
	out.Count = len(out.Works)
	return out
}

// Measure computes overlap and speed. Overlap is the number of distinct ids
// both returned, as a percentage of the larger distinct set.
func Measure(pg, app domain.Outcome) domain.Metrics {
	a := set(pg.IDs())
	b := set(app.IDs())
	n := 0
	for id := range a {
		if _, ok := b[id]; ok {
			n++
		}
	}
	pct := 0.0
	if larger := max(len(a), len(b)); larger > 0 {
		pct = math.Round(float64(n)/float64(larger)*100*100) / 100
	}
	return domain.Metrics{
		PostgreSQLTimeMs:  pg.ElapsedMs,
		ApplicationTimeMs: app.ElapsedMs,
		OverlapCount:      n,
		OverlapPercentage: pct,
		PostgreSQLFaster:  pg.ElapsedMs < app.ElapsedMs,
		BothSucceeded:     pg.Success && app.Success,
	}
}

func set(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func outcome(pg, app domain.Outcome) string {
	switch {
	case pg.Success && app.Success:
		return "both"
	case pg.Success:
		return "postgresql_only"
	case app.Success:
		return "application_only"
	}
	return "none"
}

// Row renders cmp for the ab_comparisons table
func Row(cmp domain.Comparison) []any {
	id, err := uuid.Parse(cmp.ID)
	if err != nil {
		id = uuid.New()
	}
	m := cmp.Metrics
	return []any{
		id, cmp.ComparedAt, cmp.UserID, string(cmp.Strategy), int32(cmp.Limit),
		m.PostgreSQLTimeMs, m.ApplicationTimeMs,
		int32(cmp.PostgreSQL.Count), int32(cmp.Application.Count),
		int32(m.OverlapCount), m.OverlapPercentage, m.PostgreSQLFaster,
		cmp.PostgreSQL.Error, cmp.Application.Error,
	}
}

// Stats aggregates logged comparisons over window, clamped to the
// configured maximum
func (c *Comparator) Stats(ctx context.Context, window time.Duration) (domain.Stats, error) {
	if c.stats == nil {
		return domain.Stats{}, perr.Unavailablef("comparison history is not configured")
	}
	if window <= 0 {
		window = c.cfg.DefaultWindow
	}
	window = min(window, c.cfg.MaxWindow)
	return c.stats.Stats(ctx, c.clock.Now().UTC().Add(-window))
}
