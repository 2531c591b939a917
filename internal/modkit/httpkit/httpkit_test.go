package httpkit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bunshare/internal/core/ratelimit"
	perr "bunshare/internal/platform/errors"
	pnet "bunshare/internal/platform/net"
	phttp "bunshare/internal/platform/net/http"
	ptime "bunshare/internal/platform/time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

func newRouter() (Router, http.Handler) {
	mux := chi.NewRouter()
	return phttp.AdaptChi(mux), mux
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) phttp.Envelope {
	t.Helper()
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestPort_Parse(t *testing.T) {
	t.Parallel()
	p := NewPortFunc(func(tok string) (string, error) {
		if tok == "good" {
			return "user-1", nil
		}
		return "", perr.Validationf("bad token")
	})

	cases := []struct {
		name    string
		header  string
		uid     string
		wantErr bool
	}{
		{"anonymous", "", "", false},
		{"valid", "Bearer good", "user-1", false},
		{"lowercase scheme", "bearer   good ", "user-1", false},
		{"basic scheme", "Basic abc", "", true},
		{"empty token", "Bearer ", "", true},
		{"rejected token", "Bearer nope", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			uid, err := p.Parse(req)
			if (err != nil) != tc.wantErr || uid != tc.uid {
				t.Fatalf("uid=%q err=%v", uid, err)
			}
			if err != nil && !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
				t.Fatalf("want unauthorized, got %v", perr.CodeOf(err))
			}
		})
	}
}

func sign(t *testing.T, secret string, claims jwt.RegisteredClaims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestHS256Tokens(t *testing.T) {
	t.Parallel()
	parse := HS256Tokens(JWTOptions{Secret: []byte("s3cret"), Issuer: "bunshare"})
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	uid, err := parse(sign(t, "s3cret", jwt.RegisteredClaims{Subject: "u-9", Issuer: "bunshare", ExpiresAt: future}, jwt.SigningMethodHS256))
	if err != nil || uid != "u-9" {
		t.Fatalf("valid token: uid=%q err=%v", uid, err)
	}

	bad := map[string]string{
		"expired":      sign(t, "s3cret", jwt.RegisteredClaims{Subject: "u", Issuer: "bunshare", ExpiresAt: past}, jwt.SigningMethodHS256),
		"wrong secret": sign(t, "other", jwt.RegisteredClaims{Subject: "u", Issuer: "bunshare", ExpiresAt: future}, jwt.SigningMethodHS256),
		"wrong issuer": sign(t, "s3cret", jwt.RegisteredClaims{Subject: "u", Issuer: "x", ExpiresAt: future}, jwt.SigningMethodHS256),
		"no expiry":    sign(t, "s3cret", jwt.RegisteredClaims{Subject: "u", Issuer: "bunshare"}, jwt.SigningMethodHS256),
		"no subject":   sign(t, "s3cret", jwt.RegisteredClaims{Issuer: "bunshare", ExpiresAt: future}, jwt.SigningMethodHS256),
		"hs512":        sign(t, "s3cret", jwt.RegisteredClaims{Subject: "u", Issuer: "bunshare", ExpiresAt: future}, jwt.SigningMethodHS512),
		"garbage":      "not.a.token",
	}
	for name, tok := range bad {
		if _, err := parse(tok); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	if HS256Tokens(JWTOptions{}) != nil {
		t.Fatalf("empty secret should disable token parsing")
	}
}

func TestAuthOptional_InvalidTokenIsAnonymous(t *testing.T) {
	t.Parallel()
	r, h := newRouter()
	port := NewPortFunc(HS256Tokens(JWTOptions{Secret: []byte("k")}))
	r.Use(Auth(port, false))
	Get(r, "/who", func(req *http.Request) (any, error) {
		return map[string]any{"user": User(req), "auth": Authenticated(req)}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer junk")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	env := envelope(t, rec)
	data, _ := env.Data.(map[string]any)
	if rec.Code != http.StatusOK || data["user"] != "" || data["auth"] != false {
		t.Fatalf("code=%d data=%v", rec.Code, env.Data)
	}
}

func TestRequireUser(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := RequireUser(req); !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
		t.Fatalf("anonymous should be unauthorized, got %v", err)
	}
	req = req.WithContext(pnet.WithUser(req.Context(), "u1"))
	if uid, err := RequireUser(req); err != nil || uid != "u1" {
		t.Fatalf("uid=%q err=%v", uid, err)
	}
}

func TestCheckAdmin(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := CheckAdmin(req, ""); !perr.IsCode(err, perr.ErrorCodeForbidden) {
		t.Fatalf("unset secret must forbid, got %v", err)
	}
	if err := CheckAdmin(req, "k"); !perr.IsCode(err, perr.ErrorCodeForbidden) {
		t.Fatalf("missing header must forbid, got %v", err)
	}
	req.Header.Set(AdminHeader, "k")
	if err := CheckAdmin(req, "k"); err != nil {
		t.Fatalf("matching secret: %v", err)
	}
}

func TestAdminOnly(t *testing.T) {
	t.Parallel()
	r, h := newRouter()
	r.With(AdminOnly("k")).Get("/stats", Call(func(*http.Request) (any, error) { return "ok", nil }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("code=%d", rec.Code)
	}
}

func TestRateLimit_ThirdCallRejected(t *testing.T) {
	t.Parallel()
	clk := ptime.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	lim := ratelimit.New(ratelimit.Config{Name: "read", Max: 2}, ratelimit.NewMemoryStore(), ratelimit.WithClock(clk))

	r, h := newRouter()
	r.Use(RateLimit(lim))
	Get(r, "/recs", func(*http.Request) (any, error) { return []string{}, nil })

	call := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/recs", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i, want := range []string{"1", "0"} {
		rec := call()
		if rec.Code != http.StatusOK || rec.Header().Get("X-RateLimit-Remaining") != want {
			t.Fatalf("call %d: code=%d remaining=%q", i+1, rec.Code, rec.Header().Get("X-RateLimit-Remaining"))
		}
	}

	rec := call()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third call code=%d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("Retry-After=%q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("X-RateLimit-Remaining=%q", got)
	}
	if env := envelope(t, rec); env.Code != perr.ErrorCodeTooManyRequests {
		t.Fatalf("code=%v", env.Code)
	}
}

func TestClientKey(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "198.51.100.4")
	if got := ClientKey(req); got != "198.51.100.4" {
		t.Fatalf("key=%q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ""
	if got := ClientKey(req); got != ratelimit.Unknown {
		t.Fatalf("key=%q", got)
	}
}

type staticChecker ratelimit.Decision

func (s staticChecker) Check(context.Context, string) ratelimit.Decision { return ratelimit.Decision(s) }

func TestRateLimit_AllowedHeaders(t *testing.T) {
	t.Parallel()
	reset := time.Unix(1_700_000_060, 0)
	mw := RateLimit(staticChecker{Allowed: true, Limit: 60, Remaining: 59, ResetAt: reset})
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-RateLimit-Limit") != "60" || rec.Header().Get("X-RateLimit-Reset") != "1700000060" {
		t.Fatalf("headers=%v", rec.Header())
	}
	if rec.Header().Get("Retry-After") != "" {
		t.Fatalf("allowed response should not carry Retry-After")
	}
}

func TestQueryHelpers(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/?limit=12&refresh=true&bad=x&strategy=%20popular%20&window=48h", nil)

	if n, err := QueryInt(req, "limit", 20); err != nil || n != 12 {
		t.Fatalf("limit=%d err=%v", n, err)
	}
	if n, err := QueryInt(req, "offset", 3); err != nil || n != 3 {
		t.Fatalf("offset default=%d err=%v", n, err)
	}
	if _, err := QueryInt(req, "bad", 0); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("bad int err=%v", err)
	}
	if b, err := QueryBool(req, "refresh", false); err != nil || !b {
		t.Fatalf("refresh=%v err=%v", b, err)
	}
	if _, err := QueryBool(req, "bad", false); err == nil {
		t.Fatalf("bad bool should fail")
	}
	if s := QueryString(req, "strategy", ""); s != "popular" {
		t.Fatalf("strategy=%q", s)
	}
	if d, err := QueryDuration(req, "window", time.Hour); err != nil || d != 48*time.Hour {
		t.Fatalf("window=%v err=%v", d, err)
	}
	if d, _ := QueryDuration(req, "since", time.Hour); d != time.Hour {
		t.Fatalf("window default=%v", d)
	}
	if _, err := QueryDuration(req, "bad", 0); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("bad duration err=%v", err)
	}
}

func TestMountAPIV1_GetPost(t *testing.T) {
	t.Parallel()
	r, h := newRouter()
	MountAPIV1(r, nil, func(api Router) {
		GetPost(api, "/ab-test/compare", func(req *http.Request) (any, error) { return req.Method, nil })
	})

	for _, m := range []string{http.MethodGet, http.MethodPost} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(m, "/api/v1/ab-test/compare", nil))
		if rec.Code != http.StatusOK || envelope(t, rec).Data != m {
			t.Fatalf("%s: code=%d body=%s", m, rec.Code, rec.Body.String())
		}
	}
}

func TestCommonStack_RecoversPanics(t *testing.T) {
	t.Parallel()
	r, h := newRouter()
	MountAPIV1(r, CommonStack(StackOptions{}), func(api Router) {
		Get(api, "/boom", func(*http.Request) (any, error) { panic("boom") })
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))
	env := envelope(t, rec)
	if rec.Code != http.StatusInternalServerError || env.RequestID == "" {
		t.Fatalf("code=%d env=%+v", rec.Code, env)
	}
}
