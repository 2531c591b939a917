package middleware

import (
	"net/http"
	"runtime/debug"

	perr "bunshare/internal/platform/errors"
	"bunshare/internal/platform/logger"
	phttp "bunshare/internal/platform/net/http"
	pnet "bunshare/internal/platform/net"
)

// RecoverJSON turns a panic into a JSON 500 envelope and logs the stack
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			ctx := logger.WithRequest(r.Context(), pnet.RequestID(r.Context()), pnet.UserID(r.Context()))
			logger.C(ctx).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Str("path", r.URL.Path).
				Msg("panic recovered")

			phttp.RespondError(w, r, perr.PanicErrf("internal error"))
		}()
		next.ServeHTTP(w, r)
	})
}
