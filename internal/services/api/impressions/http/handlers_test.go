package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bunshare/internal/core/impression"
	"bunshare/internal/modkit/httpkit"
	perr "bunshare/internal/platform/errors"
	phttp "bunshare/internal/platform/net/http"
	"bunshare/internal/services/api/impressions/domain"

	"github.com/go-chi/chi/v5"
)

type fakeRecorder struct {
	err   error
	calls []domain.Batch
}

func (f *fakeRecorder) Record(_ context.Context, b domain.Batch) (impression.Summary, error) {
	f.calls = append(f.calls, b)
	if f.err != nil {
		return impression.Summary{}, f.err
	}
	return impression.Summary{Success: true, Recorded: len(b.Events)}, nil
}

type envelope struct {
	StatusCode int                `json:"status_code"`
	Field      string             `json:"field"`
	Data       impression.Summary `json:"data"`
}

func post(t *testing.T, f *fakeRecorder, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	mux := chi.NewRouter()
	phttp.AdaptChi(mux).Route("/impressions", func(r httpkit.Router) { Register(r, f) })

	req := httptest.NewRequest(stdhttp.MethodPost, "/impressions/record", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func TestRecord_BindsBatch(t *testing.T) {
	t.Parallel()
	f := &fakeRecorder{}
	rec, env := post(t, f, `{"impressions":[{"workId":"w1","sessionId":"s","impressionType":"recommendation","pageContext":"home","intersectionRatio":0.9,"displayDuration":100,"viewportWidth":390,"viewportHeight":844}]}`)
	if rec.Code != stdhttp.StatusOK || env.Data.Recorded != 1 || !env.Data.Success {
		t.Fatalf("code=%d env=%+v", rec.Code, env)
	}
	got := f.calls[0]
	if got.UserAgent != "Mozilla/5.0 (X11; Linux x86_64)" || got.UserID != "" || got.Events[0].DisplayDuration != 100 {
		t.Fatalf("batch=%+v", got)
	}
}

func TestRecord_RejectsBadBodies(t *testing.T) {
	t.Parallel()
	cases := []struct {
		body  string
		field string
	}{
		{`{}`, "impressions"},
		{`{"impressions":[], "extra":1}`, ""},
		{`{"impressions":` + "[" + strings.Repeat(`{},`, domain.MaxBatch) + `{}]}`, "impressions"},
	}
	for _, c := range cases {
		f := &fakeRecorder{}
		rec, env := post(t, f, c.body)
		if rec.Code != stdhttp.StatusBadRequest || env.Field != c.field || len(f.calls) != 0 {
			t.Fatalf("body %.40s: code=%d env=%+v", c.body, rec.Code, env)
		}
	}
}

func TestRecord_StoreOutage(t *testing.T) {
	t.Parallel()
	f := &fakeRecorder{err: perr.Unavailablef("impressions could not be recorded")}
	rec, _ := post(t, f, `{"impressions":[]}`)
	if rec.Code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("code=%d", rec.Code)
	}
}
