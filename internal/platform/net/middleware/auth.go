package middleware

import (
	"net/http"

	"bunshare/internal/platform/logger"
	phttp "bunshare/internal/platform/net/http"
	pnet "bunshare/internal/platform/net"
)

// AuthPort resolves the caller. An empty userID with a nil error means anonymous.
type AuthPort interface {
	Parse(r *http.Request) (userID string, err error)
}

// Auth stores the caller's user id on the context. With required=false a
// parse failure degrades to anonymous; with required=true it is rendered as
// the error envelope.
func Auth(p AuthPort, required bool) Middleware {
	return func(next http.Handler) http.Handler {
		if p == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, err := p.Parse(r)
			if err != nil {
				if required {
					phttp.RespondError(w, r, err)
					return
				}
				logger.C(r.Context()).Debug().Err(err).Msg("credentials ignored; continuing anonymous")
				uid = ""
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithUser(r.Context(), uid)))
		})
	}
}
