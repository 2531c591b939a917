package httpkit

import (
	"net/http"

	perr "bunshare/internal/platform/errors"
	pnet "bunshare/internal/platform/net"
)

// User returns the caller's user id; empty for anonymous callers
func User(r *http.Request) string { return pnet.UserID(r.Context()) }

// Authenticated reports whether the Auth middleware resolved a user
func Authenticated(r *http.Request) bool { return User(r) != "" }

// RequireUser returns the user id or an unauthorized error
func RequireUser(r *http.Request) (string, error) {
	if uid := User(r); uid != "" {
		return uid, nil
	}
	return "", perr.New(perr.ErrorCodeUnauthorized, "authentication required")
}
