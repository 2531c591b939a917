package httpkit

import (
	"context"
	"net/http"
	"strconv"

	"bunshare/internal/core/ratelimit"
	perr "bunshare/internal/platform/errors"
	phttp "bunshare/internal/platform/net/http"

	"github.com/go-chi/httprate"
)

// Checker is the limiter surface the middleware needs
type Checker interface {
	Check(ctx context.Context, identifier string) ratelimit.Decision
}

// ClientKey derives the limiter identifier from True-Client-IP, X-Real-IP,
// X-Forwarded-For or the remote address, in that order
func ClientKey(r *http.Request) string {
	key, err := httprate.KeyByRealIP(r)
	if err != nil || key == "" {
		return ratelimit.Unknown
	}
	return key
}

// RateLimit gates requests through c. Allowed responses carry the
// X-RateLimit-* headers; rejections are a 429 envelope with Retry-After.
func RateLimit(c Checker) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := c.Check(r.Context(), ClientKey(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.ResetAt.IsZero() {
				h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
			}

			if !d.Allowed {
				secs := int(d.RetryAfter.Seconds())
				h.Set("Retry-After", strconv.Itoa(secs))
				phttp.RespondError(w, r, perr.TooManyRequestsf("too many requests, retry in %ds", secs))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
