package httpkit

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	perr "bunshare/internal/platform/errors"
)

// QueryString returns the trimmed query value or def
func QueryString(r *http.Request, key, def string) string {
	if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
		return v
	}
	return def
}

// QueryInt parses an integer query value; absent means def
func QueryInt(r *http.Request, key string, def int) (int, error) {
	v := QueryString(r, key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, perr.WithField(perr.Validationf("%s must be an integer", key), key)
	}
	return n, nil
}

// QueryBool parses a boolean query value; absent means def
func QueryBool(r *http.Request, key string, def bool) (bool, error) {
	v := QueryString(r, key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, perr.WithField(perr.Validationf("%s must be a boolean", key), key)
	}
	return b, nil
}

// QueryDuration parses a Go duration query value; absent means def
func QueryDuration(r *http.Request, key string, def time.Duration) (time.Duration, error) {
	v := QueryString(r, key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, perr.WithField(perr.Validationf("%s must be a duration such as 24h", key), key)
	}
	return d, nil
}
