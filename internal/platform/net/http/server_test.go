package http

import (
	"context"
	"io"
	"net"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bunshare/internal/platform/config"

	"github.com/go-chi/chi/v5"
)

func TestServerServesAndStopsOnCancel(t *testing.T) {
	t.Setenv("SRVTEST_API_PORT", "127.0.0.1:0")
	srv := NewServer(config.New().Prefix("SRVTEST_"), func(m *chi.Mux) {
		m.Get("/ping", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { _, _ = io.WriteString(w, "pong") })
	})
	if srv.Addr() != "127.0.0.1:0" {
		t.Fatalf("addr = %q", srv.Addr())
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()

	resp, err := stdhttp.Get("http://" + ln.Addr().String() + "/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "pong" {
		t.Fatalf("body = %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}

func TestRouterGroupsAndWith(t *testing.T) {
	t.Parallel()
	m := chi.NewRouter()
	r := AdaptChi(m)
	tag := func(v string) func(stdhttp.Handler) stdhttp.Handler {
		return func(next stdhttp.Handler) stdhttp.Handler {
			return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
				w.Header().Add("X-Tag", v)
				next.ServeHTTP(w, req)
			})
		}
	}
	r.Route("/api", func(api Router) {
		api.Use(tag("api"))
		api.With(tag("with")).Get("/a", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {})
		api.Group(func(g Router) {
			g.Method(stdhttp.MethodPost, "/b", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {})
		})
	})

	cases := []struct {
		method, path string
		tags         []string
	}{
		{stdhttp.MethodGet, "/api/a", []string{"api", "with"}},
		{stdhttp.MethodPost, "/api/b", []string{"api"}},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		r.Mux().ServeHTTP(rec, httptest.NewRequest(c.method, c.path, nil))
		got := rec.Header().Values("X-Tag")
		if len(got) != len(c.tags) {
			t.Fatalf("%s %s tags = %v", c.method, c.path, got)
		}
		for i := range got {
			if got[i] != c.tags[i] {
				t.Fatalf("%s %s tags = %v", c.method, c.path, got)
			}
		}
	}
}
