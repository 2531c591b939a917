package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	phttp "bunshare/internal/platform/net/http"
	ptime "bunshare/internal/platform/time"

	"github.com/go-chi/chi/v5"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func serve(t *testing.T, d Deps, path string) (int, map[string]any) {
	t.Helper()
	mux := chi.NewRouter()
	Register(phttp.AdaptChi(mux), d)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, path, nil))
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec.Code, env.Data
}

func TestReady(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		pg, ch any
		code   int
		status string
	}{
		{"all up", pinger{}, pinger{}, stdhttp.StatusOK, "ok"},
		{"no analytics", pinger{}, nil, stdhttp.StatusOK, "degraded"},
		{"opaque backend", struct{}{}, pinger{}, stdhttp.StatusOK, "degraded"},
		{"pg down", pinger{err: errors.New("refused")}, pinger{}, stdhttp.StatusServiceUnavailable, "fail"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			code, data := serve(t, Deps{ServiceName: "svc", PG: c.pg, CH: c.ch}, "/ready")
			if code != c.code || data["status"] != c.status {
				t.Fatalf("code=%d data=%v", code, data)
			}
		})
	}
}

func TestHealthAndService(t *testing.T) {
	t.Parallel()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := ptime.NewFake(start)
	clock.Advance(90 * time.Second)
	d := Deps{ServiceName: "bunshare-api", StartedAt: start, Clock: clock}

	_, health := serve(t, d, "/health")
	if health["ok"] != true || health["now"] != "2025-06-01T12:01:30Z" {
		t.Fatalf("health=%v", health)
	}
	_, svc := serve(t, d, "/service")
	if svc["uptime"] != float64(90) || svc["name"] != "bunshare-api" {
		t.Fatalf("service=%v", svc)
	}
	_, ver := serve(t, d, "/version")
	if ver["service"] != "bunshare-api" {
		t.Fatalf("version=%v", ver)
	}
}
