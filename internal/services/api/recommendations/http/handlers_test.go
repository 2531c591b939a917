package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bunshare/internal/core/ranking"
	"bunshare/internal/core/ratelimit"
	"bunshare/internal/modkit/httpkit"
	perr "bunshare/internal/platform/errors"
	pnet "bunshare/internal/platform/net"
	phttp "bunshare/internal/platform/net/http"
	ptime "bunshare/internal/platform/time"
	"bunshare/internal/services/api/recommendations/domain"
	rlsvc "bunshare/internal/services/ratelimit/service"

	"github.com/go-chi/chi/v5"
)

type fakeService struct {
	err  error
	reqs []domain.Request
}

func (f *fakeService) Recommend(_ context.Context, req domain.Request) (domain.Result, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return domain.Result{}, f.err
	}
	st := req.Strategy
	if st == "" {
		st = ranking.Popular
	}
	return domain.Result{
		Works:    []domain.Work{{ID: "w1"}, {ID: "w2"}},
		Strategy: st,
		Source:   "get_popular_recommendations",
		Engine:   domain.EnginePostgres,
		Total:    2,
		HasMore:  true,
	}, nil
}

type resultEnvelope struct {
	StatusCode int           `json:"status_code"`
	Error      string        `json:"error"`
	Field      string        `json:"field"`
	Data       domain.Result `json:"data"`
}

// asUser stands in for the Auth middleware
func asUser(uid string) func(stdhttp.Handler) stdhttp.Handler {
	return func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			next.ServeHTTP(w, r.WithContext(pnet.WithUser(r.Context(), uid)))
		})
	}
}

func mount(s *fakeService, o Options, mw ...httpkit.Middleware) stdhttp.Handler {
	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)
	r.Route("/recommendations", func(sub httpkit.Router) {
		sub.Use(mw...)
		Register(sub, s, o)
	})
	return mux
}

func do(t *testing.T, h stdhttp.Handler, method, target, body string) (*httptest.ResponseRecorder, resultEnvelope) {
	t.Helper()
	var req *stdhttp.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.RemoteAddr = "203.0.113.9:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env resultEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func TestRecommend_AnonymousIsPublic(t *testing.T) {
	t.Parallel()
	s := &fakeService{}
	rec, env := do(t, mount(s, Options{}), stdhttp.MethodGet, "/recommendations?limit=5&offset=10", "")

	if rec.Code != stdhttp.StatusOK || env.Data.Strategy != ranking.Popular || len(env.Data.Works) != 2 {
		t.Fatalf("code=%d env=%+v", rec.Code, env)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=300, s-maxage=300" {
		t.Fatalf("cache-control=%q", cc)
	}
	if got := s.reqs[0]; got.Limit != 5 || got.Offset != 10 || got.UserID != "" || got.Engine != "" {
		t.Fatalf("request=%+v", got)
	}
}

func TestRecommend_AuthenticatedIsPrivate(t *testing.T) {
	t.Parallel()
	s := &fakeService{}
	rec, _ := do(t, mount(s, Options{PrivateTTL: 45 * time.Second}, asUser("u-42")), stdhttp.MethodGet, "/recommendations?strategy=Adaptive", "")

	if cc := rec.Header().Get("Cache-Control"); cc != "private, max-age=45" {
		t.Fatalf("cache-control=%q", cc)
	}
	if got := s.reqs[0]; got.UserID != "u-42" || got.Strategy != ranking.Adaptive {
		t.Fatalf("request=%+v", got)
	}
}

func TestRecommend_DegradesOnUpstreamFailure(t *testing.T) {
	t.Parallel()
	for _, code := range []perr.ErrorCode{perr.ErrorCodeUpstream, perr.ErrorCodeTimeout} {
		s := &fakeService{err: perr.New(code, "source down")}
		rec, env := do(t, mount(s, Options{}), stdhttp.MethodGet, "/recommendations", "")
		if rec.Code != stdhttp.StatusOK || !env.Data.Degraded || env.Data.Works == nil || len(env.Data.Works) != 0 {
			t.Fatalf("code=%d env=%+v", rec.Code, env)
		}
		if env.Data.Strategy != ranking.Popular || rec.Header().Get("Cache-Control") != "no-store" {
			t.Fatalf("degraded response: strategy=%q cc=%q", env.Data.Strategy, rec.Header().Get("Cache-Control"))
		}
	}
}

func TestRecommend_ValidationErrors(t *testing.T) {
	t.Parallel()
	s := &fakeService{}
	h := mount(s, Options{})

	rec, env := do(t, h, stdhttp.MethodGet, "/recommendations?strategy=trending", "")
	if rec.Code != stdhttp.StatusBadRequest || env.Field != "strategy" {
		t.Fatalf("code=%d env=%+v", rec.Code, env)
	}
	rec, env = do(t, h, stdhttp.MethodGet, "/recommendations?limit=ten", "")
	if rec.Code != stdhttp.StatusBadRequest || env.Field != "limit" {
		t.Fatalf("code=%d env=%+v", rec.Code, env)
	}
	if len(s.reqs) != 0 {
		t.Fatalf("service called on invalid input")
	}

	s.err = perr.WithField(perr.Validationf("limit must be between 1 and 50"), "limit")
	rec, _ = do(t, h, stdhttp.MethodGet, "/recommendations?limit=99", "")
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("validation from service should not degrade, code=%d", rec.Code)
	}
}

func TestMore(t *testing.T) {
	t.Parallel()
	s := &fakeService{}
	h := mount(s, Options{}, asUser("u-1"))

	rec, env := do(t, h, stdhttp.MethodPost, "/recommendations/more", `{"excludeWorkIds":["a","b"],"offset":20}`)
	if rec.Code != stdhttp.StatusOK || !env.Data.HasMore {
		t.Fatalf("code=%d env=%+v", rec.Code, env)
	}
	if got := s.reqs[0]; len(got.ExcludeIDs) != 2 || got.Offset != 20 || got.UserID != "u-1" {
		t.Fatalf("request=%+v", got)
	}

	rec, env = do(t, h, stdhttp.MethodPost, "/recommendations/more", `{"excludeWorkIds":["a"],"offset":-1}`)
	if rec.Code != stdhttp.StatusBadRequest || env.Field != "offset" {
		t.Fatalf("code=%d env=%+v", rec.Code, env)
	}

	s.err = perr.Upstreamf("down")
	rec, _ = do(t, h, stdhttp.MethodPost, "/recommendations/more", `{"excludeWorkIds":[],"offset":0}`)
	if rec.Code != stdhttp.StatusBadGateway {
		t.Fatalf("load more surfaces upstream errors, code=%d", rec.Code)
	}
}

func TestPostgres_ForcesEngine(t *testing.T) {
	t.Parallel()
	s := &fakeService{}
	h := mount(s, Options{})

	rec, env := do(t, h, stdhttp.MethodGet, "/recommendations/postgresql?limit=3", "")
	if rec.Code != stdhttp.StatusOK || env.Data.Engine != domain.EnginePostgres {
		t.Fatalf("code=%d env=%+v", rec.Code, env)
	}
	rec, _ = do(t, h, stdhttp.MethodPost, "/recommendations/postgresql", `{"limit":3,"offset":0,"strategy":"popular"}`)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("post code=%d", rec.Code)
	}
	for i, req := range s.reqs {
		if req.Engine != domain.EnginePostgres || req.Limit != 3 {
			t.Fatalf("request %d=%+v", i, req)
		}
	}
}

func TestRateLimit_PerRouteGroup(t *testing.T) {
	t.Parallel()
	p := rlsvc.NewProvider(ratelimit.NewMemoryStore(), time.Minute, ptime.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	h := mount(&fakeService{}, Options{Read: p.Limiter("read", 2), More: p.Limiter("more", 1)})

	for i := range 2 {
		rec, _ := do(t, h, stdhttp.MethodGet, "/recommendations", "")
		if rec.Code != stdhttp.StatusOK || rec.Header().Get("X-RateLimit-Remaining") != []string{"1", "0"}[i] {
			t.Fatalf("call %d: code=%d remaining=%q", i+1, rec.Code, rec.Header().Get("X-RateLimit-Remaining"))
		}
	}
	rec, _ := do(t, h, stdhttp.MethodGet, "/recommendations/postgresql", "")
	if rec.Code != stdhttp.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("third read: code=%d retry=%q", rec.Code, rec.Header().Get("Retry-After"))
	}

	rec, _ = do(t, h, stdhttp.MethodPost, "/recommendations/more", `{"excludeWorkIds":[],"offset":0}`)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("more has its own budget, code=%d", rec.Code)
	}
}
