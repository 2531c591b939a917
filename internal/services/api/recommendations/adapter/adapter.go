// Package adapter holds the two recommendation sources: stored ranking
// functions in postgres and in-process scoring over raw signals. Both run
// every call through a circuit breaker and record latency per outcome.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bunshare/internal/core/ranking"
	"bunshare/internal/platform/breaker"
	"bunshare/internal/platform/config"
	"bunshare/internal/platform/metrics"
	ptime "bunshare/internal/platform/time"
	"bunshare/internal/services/api/recommendations/domain"
	"bunshare/internal/services/api/recommendations/repo"
)

// WeightSet holds the blend weights per strategy
type WeightSet map[ranking.Strategy]ranking.Weights

// DefaultWeightSet returns the built-in weights for every strategy
func DefaultWeightSet() WeightSet {
	ws := make(WeightSet, len(ranking.Strategies))
	for _, s := range ranking.Strategies {
		ws[s] = ranking.DefaultWeights(s)
	}
	return ws
}

// WeightsFromEnv reads WEIGHTS_<STRATEGY>_<COMPONENT> overrides from cfg,
// e.g. WEIGHTS_ADAPTIVE_POPULAR=0.5
func WeightsFromEnv(cfg config.Conf) (WeightSet, error) {
	ws := DefaultWeightSet()
	for _, s := range ranking.Strategies {
		w := ws[s]
		p := "WEIGHTS_" + strings.ToUpper(string(s)) + "_"
		w.Personalized = cfg.MayFloat64(p+"PERSONALIZED", w.Personalized)
		w.Collaborative = cfg.MayFloat64(p+"COLLABORATIVE", w.Collaborative)
		w.Popular = cfg.MayFloat64(p+"POPULAR", w.Popular)
		w.Diversity = cfg.MayFloat64(p+"DIVERSITY", w.Diversity)
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("%s weights: %w", s, err)
		}
		ws[s] = w
	}
	return ws, nil
}

type settings struct {
	clock        ptime.Clock
	breaker      breaker.Options
	breakerName  string
	weights      WeightSet
	poolSize     int
	historyLimit int
}

// Option configures an adapter
type Option func(*settings)

// WithClock replaces the system clock used for query timing
func WithClock(c ptime.Clock) Option { return func(s *settings) { s.clock = c } }

// WithBreaker tunes the circuit breaker
func WithBreaker(o breaker.Options) Option { return func(s *settings) { s.breaker = o } }

// WithBreakerPrefix names the breaker prefix+engine so separate callers
// trip separate breakers. The default prefix is "ranking-".
func WithBreakerPrefix(prefix string) Option { return func(s *settings) { s.breakerName = prefix } }

// WithWeights replaces the blend weights of the listed strategies
func WithWeights(ws WeightSet) Option {
	return func(s *settings) {
		for k, v := range ws {
			s.weights[k] = v
		}
	}
}

// WithPoolSize bounds how many candidate works the application engine scores
func WithPoolSize(n int) Option { return func(s *settings) { s.poolSize = n } }

// WithHistoryLimit bounds each per-kind interaction fetch
func WithHistoryLimit(n int) Option { return func(s *settings) { s.historyLimit = n } }

func resolve(opts []Option) settings {
	s := settings{
		clock:        ptime.System{},
		breakerName:  "ranking-",
		weights:      DefaultWeightSet(),
		poolSize:     500,
		historyLimit: 200,
	}
	for _, o := range opts {
		o(&s)
	}
	if s.poolSize <= 0 {
		s.poolSize = 500
	}
	if s.historyLimit <= 0 {
		s.historyLimit = 200
	}
	return s
}

// effective downgrades personal strategies for anonymous callers
func effective(in domain.RankInput) ranking.Strategy {
	if !in.Strategy.Valid() || (in.Strategy.Personal() && in.UserID == "") {
		return ranking.Popular
	}
	return in.Strategy
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case breaker.IsOpen(err):
		return "rejected"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func observe(e domain.Engine, s ranking.Strategy, took time.Duration, err error) {
	metrics.AdapterDuration.WithLabelValues(string(e), string(s), outcome(err)).Observe(took.Seconds())
}

func toWork(r repo.RowWork, score float64) domain.Work {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Work{
		ID:         r.ID,
		Title:      r.Title,
		AuthorID:   r.AuthorID,
		Category:   r.Category,
		Tags:       tags,
		Excerpt:    r.Excerpt,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		Views:      r.Views,
		Likes:      r.Likes,
		Comments:   r.Comments,
		Bookmarks:  r.Bookmarks,
		Shares:     r.Shares,
		TrendScore: r.TrendScore,
		Score:      score,
	}
}
