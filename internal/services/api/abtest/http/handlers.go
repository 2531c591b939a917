// Package http provides http transport for the A/B comparison
package http

import (
	stdhttp "net/http"

	"bunshare/internal/core/ranking"
	"bunshare/internal/modkit/httpkit"
	perr "bunshare/internal/platform/errors"
	"bunshare/internal/platform/net/http/bind"
	"bunshare/internal/services/api/abtest/domain"
)

// Options carries the admin secret and an optional limiter for compare
type Options struct {
	AdminSecret string
	Compare     httpkit.Checker
}

// Register mounts the A/B endpoints on the given router
func Register(r httpkit.Router, s domain.ComparatorPort, o Options) {
	h := &handlers{svc: s, secret: o.AdminSecret}

	cmp := r
	if o.Compare != nil {
		cmp = r.With(httpkit.RateLimit(o.Compare))
	}
	httpkit.Get(cmp, "/compare", h.compareQuery)
	httpkit.PostJSON[domain.CompareBody](cmp, "/compare", h.compareBody)

	httpkit.Get(r.With(httpkit.AdminOnly(o.AdminSecret)), "/stats", h.stats)
}

type handlers struct {
	svc    domain.ComparatorPort
	secret string
}

// swagger:route GET /ab-test/compare ABTest compareQuery
// @Summary Compare both recommendation engines
// @Description refresh=true recomputes stored scores first and requires X-Admin-Secret.
// @Tags ABTest
// @Produce json
// @Param userId query string false "User uuid to rank for; defaults to the caller"
// @Param limit query int false "Page size (1-50)" default(10)
// @Param strategy query string false "personalized, adaptive or popular"
// @Param refresh query bool false "Refresh stored scores first"
// @Success 200 {object} domain.Comparison "ok"
// @Failure 403 {object} httpkit.Envelope "admin secret required"
// @Router /ab-test/compare [get]
func (h *handlers) compareQuery(r *stdhttp.Request) (any, error) {
	limit, err := httpkit.QueryInt(r, "limit", 0)
	if err != nil {
		return nil, err
	}
	refresh, err := httpkit.QueryBool(r, "refresh", false)
	if err != nil {
		return nil, err
	}
	in := domain.CompareBody{
		UserID:   httpkit.QueryString(r, "userId", ""),
		Limit:    limit,
		Strategy: httpkit.QueryString(r, "strategy", ""),
		Refresh:  refresh,
	}
	if err := bind.Validate(in); err != nil {
		return nil, err
	}
	return h.compare(r, in)
}

// swagger:route POST /ab-test/compare ABTest compareBody
// @Summary Compare both recommendation engines
// @Tags ABTest
// @Accept json
// @Produce json
// @Param payload body domain.CompareBody true "Comparison request"
// @Success 200 {object} domain.Comparison "ok"
// @Failure 403 {object} httpkit.Envelope "admin secret required"
// @Router /ab-test/compare [post]
func (h *handlers) compareBody(r *stdhttp.Request, in domain.CompareBody) (any, error) {
	return h.compare(r, in)
}

func (h *handlers) compare(r *stdhttp.Request, in domain.CompareBody) (any, error) {
	if in.Refresh {
		if err := httpkit.CheckAdmin(r, h.secret); err != nil {
			return nil, err
		}
	}
	var st ranking.Strategy
	if in.Strategy != "" {
		var err error
		if st, err = ranking.ParseStrategy(in.Strategy); err != nil {
			return nil, perr.WithField(perr.Validationf("strategy must be one of personalized, adaptive, popular"), "strategy")
		}
	}
	uid := in.UserID
	if uid == "" {
		uid = httpkit.User(r)
	}
	return h.svc.Compare(r.Context(), domain.CompareInput{
		UserID:   uid,
		Limit:    in.Limit,
		Strategy: st,
		Refresh:  in.Refresh,
	})
}

// swagger:route GET /ab-test/stats ABTest compareStats
// @Summary Aggregated comparison history
// @Tags ABTest
// @Produce json
// @Param window query string false "Lookback such as 24h or 168h" default(24h)
// @Success 200 {object} domain.Stats "ok"
// @Failure 403 {object} httpkit.Envelope "admin secret required"
// @Failure 503 {object} httpkit.Envelope "history unavailable"
// @Router /ab-test/stats [get]
func (h *handlers) stats(r *stdhttp.Request) (any, error) {
	window, err := httpkit.QueryDuration(r, "window", 0)
	if err != nil {
		return nil, err
	}
	return h.svc.Stats(r.Context(), window)
}
