package module

import (
	"context"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bunshare/internal/core/ratelimit"
	"bunshare/internal/modkit"
	"bunshare/internal/modkit/module"
	phttp "bunshare/internal/platform/net/http"
	ptime "bunshare/internal/platform/time"
	recdomain "bunshare/internal/services/api/recommendations/domain"
	rlsvc "bunshare/internal/services/ratelimit/service"

	"github.com/go-chi/chi/v5"
)

type staticEngine recdomain.Engine

func (s staticEngine) Engine() recdomain.Engine { return recdomain.Engine(s) }

func (s staticEngine) Rank(context.Context, recdomain.RankInput) (recdomain.Ranked, error) {
	return recdomain.Ranked{Works: []recdomain.Work{{ID: "w1"}}, Engine: recdomain.Engine(s)}, nil
}

func TestNew_WithoutBackends(t *testing.T) {
	t.Parallel()
	clock := ptime.NewFake(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	m := New(modkit.Deps{Clock: clock}, Options{
		AdminSecret: "x",
		CompareMax:  1,
		Postgres:    staticEngine(recdomain.EnginePostgres),
		Application: staticEngine(recdomain.EngineApplication),
		Limits:      rlsvc.NewProvider(ratelimit.NewMemoryStore(), time.Minute, clock),
	})
	if m.Name() != "abtest" || m.Prefix() != "/ab-test" || module.MustPortsOf[Ports](m).Comparator == nil {
		t.Fatalf("module miswired")
	}
	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/ab-test/compare", nil))
	if rec.Code != stdhttp.StatusOK || !strings.Contains(rec.Body.String(), `"overlapPercentage":100`) {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "no-cache") {
		t.Fatalf("cache-control=%q", rec.Header().Get("Cache-Control"))
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/ab-test/compare", nil))
	if rec.Code != stdhttp.StatusTooManyRequests {
		t.Fatalf("second compare code=%d", rec.Code)
	}

	// no clickhouse means no history
	req := httptest.NewRequest(stdhttp.MethodGet, "/ab-test/stats", nil)
	req.Header.Set("X-Admin-Secret", "x")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("stats code=%d", rec.Code)
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("ABTEST_T_ADMIN_SECRET", "ops")
	o := FromConfig(configFor("ABTEST_T_"))
	if o.AdminSecret != "ops" || o.Service.DefaultLimit != 10 || o.CompareMax != 10 || o.Service.Timeout != 3*time.Second {
		t.Fatalf("options=%+v", o)
	}
}
