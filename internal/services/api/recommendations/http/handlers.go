// Package http provides http transport for recommendations
package http

import (
	"fmt"
	stdhttp "net/http"
	"time"

	"bunshare/internal/core/ranking"
	"bunshare/internal/modkit/httpkit"
	perr "bunshare/internal/platform/errors"
	"bunshare/internal/platform/logger"
	"bunshare/internal/platform/metrics"
	"bunshare/internal/services/api/recommendations/domain"
	svc "bunshare/internal/services/api/recommendations/service"
)

// Options carries the per-route limiters and cache lifetimes. A nil
// limiter leaves its routes unthrottled.
type Options struct {
	Read       httpkit.Checker
	More       httpkit.Checker
	PrivateTTL time.Duration
	PublicTTL  time.Duration
}

// Register mounts recommendation endpoints on the given router
func Register(r httpkit.Router, s svc.Service, o Options) {
	if o.PrivateTTL <= 0 {
		o.PrivateTTL = time.Minute
	}
	if o.PublicTTL <= 0 {
		o.PublicTTL = 5 * time.Minute
	}
	h := &handlers{svc: s, opt: o}

	read := limited(r, o.Read)
	httpkit.Get(read, "/", h.recommend)
	httpkit.Get(read, "/postgresql", h.postgresQuery)
	httpkit.PostJSON[domain.EngineInput](read, "/postgresql", h.postgresBody)

	more := limited(r, o.More)
	httpkit.PostJSON[domain.MoreInput](more, "/more", h.more)
}

func limited(r httpkit.Router, c httpkit.Checker) httpkit.Router {
	if c == nil {
		return r
	}
	return r.With(httpkit.RateLimit(c))
}

type handlers struct {
	svc svc.Service
	opt Options
}

// swagger:route GET /recommendations Recommendations recommend
// @Summary Ranked works for the caller
// @Description Anonymous callers get popular works. Source failures degrade to an empty list with degraded=true.
// @Tags Recommendations
// @Produce json
// @Param limit query int false "Page size (1-50)" default(20)
// @Param offset query int false "Offset" default(0)
// @Param strategy query string false "personalized, adaptive or popular"
// @Success 200 {object} domain.Result "ok"
// @Failure 429 {object} httpkit.Envelope "rate limited"
// @Router /recommendations [get]
func (h *handlers) recommend(r *stdhttp.Request) (any, error) {
	req, err := fromQuery(r)
	if err != nil {
		return nil, err
	}
	res, err := h.svc.Recommend(r.Context(), req)
	if err != nil {
		if !degradable(err) {
			return nil, err
		}
		logger.C(r.Context()).Warn().Err(err).Msg("serving degraded recommendations")
		st := req.Strategy
		if st == "" || req.UserID == "" {
			st = ranking.Popular
		}
		metrics.Recommendations.WithLabelValues(string(st), "degraded").Inc()
		return httpkit.OK(domain.Result{Works: []domain.Work{}, Strategy: st, Degraded: true}).
			WithHeader("Cache-Control", "no-store"), nil
	}
	return h.cached(r, res), nil
}

// swagger:route POST /recommendations/more Recommendations recommendMore
// @Summary Next page excluding works already shown
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param payload body domain.MoreInput true "Exclusions and offset"
// @Success 200 {object} domain.Result "ok"
// @Failure 429 {object} httpkit.Envelope "rate limited"
// @Failure 502 {object} httpkit.Envelope "source failed"
// @Router /recommendations/more [post]
func (h *handlers) more(r *stdhttp.Request, in domain.MoreInput) (any, error) {
	st, err := parseStrategy(in.Strategy)
	if err != nil {
		return nil, err
	}
	res, err := h.svc.Recommend(r.Context(), domain.Request{
		UserID:     httpkit.User(r),
		ExcludeIDs: in.ExcludeWorkIDs,
		Limit:      in.Limit,
		Offset:     in.Offset,
		Strategy:   st,
	})
	if err != nil {
		return nil, err
	}
	return h.cached(r, res), nil
}

// swagger:route GET /recommendations/postgresql Recommendations recommendPostgres
// @Summary Recommendations from the database ranking functions
// @Tags Recommendations
// @Produce json
// @Param limit query int false "Page size (1-50)" default(20)
// @Param offset query int false "Offset" default(0)
// @Param strategy query string false "personalized, adaptive or popular"
// @Success 200 {object} domain.Result "ok"
// @Router /recommendations/postgresql [get]
func (h *handlers) postgresQuery(r *stdhttp.Request) (any, error) {
	req, err := fromQuery(r)
	if err != nil {
		return nil, err
	}
	return h.postgres(r, req)
}

// swagger:route POST /recommendations/postgresql Recommendations recommendPostgresBody
// @Summary Recommendations from the database ranking functions
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param payload body domain.EngineInput true "Query"
// @Success 200 {object} domain.Result "ok"
// @Router /recommendations/postgresql [post]
func (h *handlers) postgresBody(r *stdhttp.Request, in domain.EngineInput) (any, error) {
	st, err := parseStrategy(in.Strategy)
	if err != nil {
		return nil, err
	}
	return h.postgres(r, domain.Request{
		UserID:     httpkit.User(r),
		ExcludeIDs: in.ExcludeWorkIDs,
		Limit:      in.Limit,
		Offset:     in.Offset,
		Strategy:   st,
	})
}

func (h *handlers) postgres(r *stdhttp.Request, req domain.Request) (any, error) {
	req.Engine = domain.EnginePostgres
	res, err := h.svc.Recommend(r.Context(), req)
	if err != nil {
		return nil, err
	}
	return h.cached(r, res), nil
}

// cached sets a private short-lived directive for signed-in callers and a
// shared one for anonymous callers
func (h *handlers) cached(r *stdhttp.Request, res domain.Result) httpkit.Response {
	cc := fmt.Sprintf("public, max-age=%[1]d, s-maxage=%[1]d", int(h.opt.PublicTTL.Seconds()))
	if httpkit.Authenticated(r) {
		cc = fmt.Sprintf("private, max-age=%d", int(h.opt.PrivateTTL.Seconds()))
	}
	return httpkit.OK(res).
		WithHeader("Cache-Control", cc).
		WithHeader("Vary", "Authorization")
}

func fromQuery(r *stdhttp.Request) (domain.Request, error) {
	limit, err := httpkit.QueryInt(r, "limit", 0)
	if err != nil {
		return domain.Request{}, err
	}
	offset, err := httpkit.QueryInt(r, "offset", 0)
	if err != nil {
		return domain.Request{}, err
	}
	st, err := parseStrategy(httpkit.QueryString(r, "strategy", ""))
	if err != nil {
		return domain.Request{}, err
	}
	return domain.Request{
		UserID:   httpkit.User(r),
		Limit:    limit,
		Offset:   offset,
		Strategy: st,
	}, nil
}

func parseStrategy(s string) (ranking.Strategy, error) {
	if s == "" {
		return "", nil
	}
	st, err := ranking.ParseStrategy(s)
	if err != nil {
		return "", perr.WithField(perr.Validationf("strategy must be one of personalized, adaptive, popular"), "strategy")
	}
	return st, nil
}

func degradable(err error) bool {
	return perr.IsCode(err, perr.ErrorCodeUpstream) || perr.IsCode(err, perr.ErrorCodeTimeout)
}
