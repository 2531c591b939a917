package httpkit

import (
	"crypto/subtle"
	"net/http"

	perr "bunshare/internal/platform/errors"
	phttp "bunshare/internal/platform/net/http"
)

// AdminHeader carries the shared operational secret
const AdminHeader = "X-Admin-Secret"

// CheckAdmin compares the admin header with secret in constant time.
// An unset secret disables every admin operation.
func CheckAdmin(r *http.Request, secret string) error {
	if secret == "" {
		return perr.Forbiddenf("admin operations are disabled")
	}
	got := r.Header.Get(AdminHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
		return perr.Forbiddenf("admin secret required")
	}
	return nil
}

// AdminOnly rejects requests that fail CheckAdmin
func AdminOnly(secret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := CheckAdmin(r, secret); err != nil {
				phttp.RespondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
