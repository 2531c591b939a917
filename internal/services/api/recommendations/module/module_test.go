package module

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bunshare/internal/core/ranking"
	"bunshare/internal/core/ratelimit"
	"bunshare/internal/modkit/module"
	"bunshare/internal/platform/breaker"
	phttp "bunshare/internal/platform/net/http"
	ptime "bunshare/internal/platform/time"
	abdomain "bunshare/internal/services/api/abtest/domain"
	absvc "bunshare/internal/services/api/abtest/service"
	"bunshare/internal/services/api/recommendations/domain"
	recrepo "bunshare/internal/services/api/recommendations/repo"
	recsvc "bunshare/internal/services/api/recommendations/service"
	rlsvc "bunshare/internal/services/ratelimit/service"

	"github.com/go-chi/chi/v5"
)

type stubRepo struct{ rows []recrepo.RowWork }

func (s stubRepo) RankFunction(_ context.Context, _ recrepo.Function, _ string, limit, offset int) ([]recrepo.RowWork, error) {
	lo := min(offset, len(s.rows))
	hi := min(offset+limit, len(s.rows))
	return s.rows[lo:hi], nil
}

func (s stubRepo) Candidates(context.Context, int) ([]recrepo.RowWork, error) { return s.rows, nil }

func (stubRepo) History(context.Context, string, ranking.InteractionKind, int) ([]ranking.Interaction, error) {
	return nil, nil
}

func (stubRepo) Followed(context.Context, string) ([]string, error) { return nil, nil }

func (stubRepo) CoLikes(context.Context, string, int) (map[string]int, error) { return nil, nil }

func (stubRepo) SignalCount(context.Context, string) (int, error) { return 0, nil }

func rows(n int) []recrepo.RowWork {
	out := make([]recrepo.RowWork, n)
	for i := range out {
		out[i] = recrepo.RowWork{ID: string(rune('a' + i)), AuthorID: "author", Category: "poetry", Likes: int64(n - i)}
	}
	return out
}

func TestNewWithRepo_PortsAndRoutes(t *testing.T) {
	t.Parallel()
	p := rlsvc.NewProvider(ratelimit.NewMemoryStore(), time.Minute, ptime.NewFake(time.Unix(0, 0)))
	m := NewWithRepo(stubRepo{rows: rows(5)}, Options{
		Service: recsvc.Config{DefaultLimit: 2},
		ReadMax: 10,
		MoreMax: 10,
		Limits:  p,
	})

	if m.Name() != "recommendations" || m.Prefix() != "/recommendations" {
		t.Fatalf("name=%q prefix=%q", m.Name(), m.Prefix())
	}
	ports := module.MustPortsOf[Ports](m)
	if ports.Postgres.Engine() != domain.EnginePostgres || ports.Application.Engine() != domain.EngineApplication {
		t.Fatalf("adapter ports miswired")
	}
	if _, ok := module.PortsOf[domain.ServicePort](m); !ok {
		t.Fatalf("service port missing")
	}

	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	req := httptest.NewRequest(stdhttp.MethodGet, "/recommendations?engine=ignored", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != stdhttp.StatusOK || rec.Header().Get("X-RateLimit-Limit") != "10" {
		t.Fatalf("code=%d headers=%v body=%s", rec.Code, rec.Header(), rec.Body.String())
	}
	var env struct {
		Data domain.Result `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data.Works) != 2 || !env.Data.HasMore || env.Data.Strategy != ranking.Popular {
		t.Fatalf("result=%+v", env.Data)
	}
}

func TestNewWithRepo_NoLimitsMeansNoThrottle(t *testing.T) {
	t.Parallel()
	m := NewWithRepo(stubRepo{rows: rows(1)}, Options{})
	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/recommendations/postgresql", nil))
	if rec.Code != stdhttp.StatusOK || rec.Header().Get("X-RateLimit-Limit") != "" {
		t.Fatalf("code=%d limit=%q", rec.Code, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestFromConfig_Defaults(t *testing.T) {
	o := FromConfig(configWith(t, nil))
	if o.Service.DefaultEngine != domain.EnginePostgres || o.Service.MaxLimit != 50 || o.ReadMax != 60 || o.MoreMax != 40 {
		t.Fatalf("options=%+v", o)
	}
	if o.PrivateTTL != time.Minute || o.PublicTTL != 5*time.Minute || o.Service.AdapterTimeout != 3*time.Second {
		t.Fatalf("ttl/timeout options=%+v", o)
	}

	o = FromConfig(configWith(t, map[string]string{"RECS_ENGINE": "application", "RATELIMIT_MORE_MAX": "5"}))
	if o.Service.DefaultEngine != domain.EngineApplication || o.MoreMax != 5 {
		t.Fatalf("options=%+v", o)
	}
}

// brokenForUser fails every stored-function call made for one user
type brokenForUser struct {
	stubRepo
	user string
}

func (b brokenForUser) RankFunction(ctx context.Context, fn recrepo.Function, userID string, limit, offset int) ([]recrepo.RowWork, error) {
	if userID == b.user {
		return nil, errors.New("connection reset by peer")
	}
	return b.stubRepo.RankFunction(ctx, fn, userID, limit, offset)
}

func TestComparisonFailuresDoNotTripServingBreakers(t *testing.T) {
	t.Parallel()
	m := NewWithRepo(brokenForUser{stubRepo: stubRepo{rows: rows(5)}, user: "7f3c2a9e-0000-4000-8000-000000000bad"}, Options{})
	ports := module.MustPortsOf[Ports](m)
	if ports.ComparePostgres == ports.Postgres || ports.CompareApplication == ports.Application {
		t.Fatalf("comparison adapters must be separate instances")
	}

	cmp := absvc.New(absvc.Config{}, ports.ComparePostgres, ports.CompareApplication)
	for range 20 {
		c, err := cmp.Compare(context.Background(), abdomain.CompareInput{UserID: "7f3c2a9e-0000-4000-8000-000000000bad"})
		if err != nil || c.PostgreSQL.Success {
			t.Fatalf("compare err=%v pg=%+v", err, c.PostgreSQL)
		}
	}
	if _, err := ports.ComparePostgres.Rank(context.Background(), domain.RankInput{Strategy: ranking.Popular, Limit: 3}); !breaker.IsOpen(err) {
		t.Fatalf("comparison breaker should be open after repeated failures, err=%v", err)
	}

	got, err := ports.Postgres.Rank(context.Background(), domain.RankInput{Strategy: ranking.Popular, Limit: 3})
	if err != nil || len(got.Works) != 3 {
		t.Fatalf("serving rank after failed comparisons: works=%d err=%v", len(got.Works), err)
	}
	res, err := ports.Service.Recommend(context.Background(), domain.Request{Engine: domain.EnginePostgres, Limit: 2})
	if err != nil || len(res.Works) != 2 {
		t.Fatalf("recommend after failed comparisons: %+v err=%v", res, err)
	}
}
