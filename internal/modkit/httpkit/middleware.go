package httpkit

import (
	"compress/flate"
	"time"

	"bunshare/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack; zero values pick the defaults
type StackOptions struct {
	CORS           middleware.CORSOptions
	SlowRequest    time.Duration
	RequestTimeout time.Duration
}

// CommonStack is the middleware every versioned API scope runs
func CommonStack(o StackOptions) []Middleware {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.SlowRequest <= 0 {
		o.SlowRequest = time.Second
	}
	return []Middleware{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: o.SlowRequest}),
		middleware.RecoverJSON,
		middleware.CORS(o.CORS),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(o.RequestTimeout),
	}
}

// Auth resolves the caller through p. Optional auth treats bad credentials
// as anonymous.
func Auth(p middleware.AuthPort, required bool) Middleware {
	return middleware.Auth(p, required)
}

// NoCache marks responses as uncacheable
func NoCache() Middleware { return middleware.NoCache() }
