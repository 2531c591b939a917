package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "bunshare/internal/platform/errors"
	pnet "bunshare/internal/platform/net"
	phttp "bunshare/internal/platform/net/http"
)

func request(rid string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations", nil)
	return req.WithContext(pnet.WithRequestID(req.Context(), rid))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) phttp.Envelope {
	t.Helper()
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestRespondOK(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	phttp.RespondOK(rec, request("rid-1"), map[string]int{"total": 3})

	env := decode(t, rec)
	if rec.Code != http.StatusOK || env.StatusCode != 200 || env.Status != "OK" || env.RequestID != "rid-1" {
		t.Fatalf("envelope = %+v", env)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content-type = %q", ct)
	}
}

func TestRespondErrorMapsStatusAndField(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	err := perr.WithField(perr.Validationf("limit must be at most 50"), "limit")
	phttp.RespondError(rec, request("rid-2"), err)

	env := decode(t, rec)
	if rec.Code != http.StatusBadRequest || env.Code != perr.ErrorCodeValidation {
		t.Fatalf("status=%d env=%+v", rec.Code, env)
	}
	if env.Error != "limit must be at most 50" || env.Field != "limit" || env.Data != nil {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestResponseWrite(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		resp   phttp.Response
		status int
	}{
		{"ok", phttp.OK([]string{"w1"}), http.StatusOK},
		{"created", phttp.Created(map[string]bool{"success": true}), http.StatusCreated},
		{"zero status", phttp.Response{Body: "x"}, http.StatusOK},
		{"error body", phttp.Error(perr.Upstreamf("ranking failed")), http.StatusBadGateway},
		{"foreign error", phttp.Error(errors.New("dial tcp 10.0.0.5:5432")), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		phttp.Handle(func(*http.Request) phttp.Response { return c.resp })(rec, request(""))
		if rec.Code != c.status {
			t.Fatalf("%s: status = %d, want %d", c.name, rec.Code, c.status)
		}
		if strings.Contains(rec.Body.String(), "10.0.0.5") {
			t.Fatalf("%s: internal detail leaked: %s", c.name, rec.Body.String())
		}
	}
}

func TestNoContentHasNoBody(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	phttp.NoContent().Write(rec, request(""))
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestWithHeaderDoesNotAlias(t *testing.T) {
	t.Parallel()
	base := phttp.OK(nil).WithHeader("Cache-Control", "public, max-age=300")
	private := base.WithHeader("Cache-Control", "private, max-age=60")

	rec := httptest.NewRecorder()
	base.Write(rec, request(""))
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=300" {
		t.Fatalf("base header = %q", got)
	}
	if got := private.Header.Get("Cache-Control"); got != "private, max-age=60" {
		t.Fatalf("private header = %q", got)
	}
}
