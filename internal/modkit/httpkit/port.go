package httpkit

import (
	"net/http"
	"strings"

	perr "bunshare/internal/platform/errors"
)

// TokenFunc turns a raw bearer token into a user id
type TokenFunc func(token string) (userID string, err error)

// Port implements middleware.AuthPort over the Authorization header
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from a token parser
func NewPortFunc(fn TokenFunc) *Port {
	return &Port{parse: fn}
}

// Parse returns the user id carried by the bearer token. A request without
// an Authorization header is anonymous and yields "", nil.
func (p *Port) Parse(r *http.Request) (string, error) {
	s := strings.TrimSpace(r.Header.Get("Authorization"))
	if s == "" {
		return "", nil
	}
	raw, ok := bearer(s)
	if !ok {
		return "", perr.New(perr.ErrorCodeUnauthorized, "malformed authorization header")
	}
	if p == nil || p.parse == nil {
		return "", perr.New(perr.ErrorCodeUnauthorized, "bearer tokens are not accepted")
	}
	uid, err := p.parse(raw)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnauthorized, "invalid bearer token")
	}
	return uid, nil
}

func bearer(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(prefix):])
	return raw, raw != ""
}
