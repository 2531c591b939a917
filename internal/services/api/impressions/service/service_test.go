package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bunshare/internal/core/impression"
	perr "bunshare/internal/platform/errors"
	"bunshare/internal/platform/metrics"
	ptime "bunshare/internal/platform/time"
	"bunshare/internal/services/api/impressions/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeRepo keeps the session dedup key like the unique index does
type fakeRepo struct {
	mu    sync.Mutex
	err   error
	rows  map[impression.Key]impression.Event
	users []string
	at    time.Time
}

func newFakeRepo() *fakeRepo { return &fakeRepo{rows: map[impression.Key]impression.Event{}} }

func (f *fakeRepo) Insert(_ context.Context, userID string, at time.Time, events []impression.Event) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.at = at
	var n int64
	for _, e := range events {
		if _, dup := f.rows[e.Key()]; dup {
			continue
		}
		f.rows[e.Key()] = e
		f.users = append(f.users, userID)
		n++
	}
	return n, nil
}

type fakeAnalytics struct{ rows [][]any }

func (f *fakeAnalytics) Enqueue(rows ...[]any) int {
	f.rows = append(f.rows, rows...)
	return len(rows)
}

const phoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15"

func event(work string) impression.Event {
	pos := 3
	return impression.Event{
		WorkID:            work,
		SessionID:         "sess-1",
		Type:              impression.TypeRecommendation,
		PageContext:       impression.PageHome,
		Position:          &pos,
		IntersectionRatio: 0.9,
		DisplayDuration:   1200,
		ViewportWidth:     390,
		ViewportHeight:    844,
	}
}

var t0 = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)

func newSvc(r *fakeRepo, a *fakeAnalytics) *Svc {
	opts := []Option{WithClock(ptime.NewFake(t0))}
	if a != nil {
		opts = append(opts, WithAnalytics(a))
	}
	return New(r, impression.NewValidator(impression.Rules{}), opts...)
}

func TestRecord_ShortDisplayIsFiltered(t *testing.T) {
	t.Parallel()
	r := newFakeRepo()
	e := event("w1")
	e.DisplayDuration = 100

	sum, err := newSvc(r, nil).Record(context.Background(), domain.Batch{Events: []impression.Event{e}, UserAgent: phoneUA})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if sum != (impression.Summary{Success: true, Recorded: 0, Filtered: 1}) {
		t.Fatalf("summary=%+v", sum)
	}
	if len(r.rows) != 0 {
		t.Fatalf("filtered entry persisted")
	}
}

func TestRecord_MixedBatch(t *testing.T) {
	t.Parallel()
	r := newFakeRepo()
	a := &fakeAnalytics{}
	bot := event("w3")
	bot.UserAgent = "Googlebot/2.1"
	narrow := event("w4")
	narrow.ViewportWidth = 50
	faint := event("w5")
	faint.IntersectionRatio = 0.1

	filteredBot := metrics.Impressions.WithLabelValues("filtered", "bot")
	before := testutil.ToFloat64(filteredBot)

	sum, err := newSvc(r, a).Record(context.Background(), domain.Batch{
		Events:    []impression.Event{event("w1"), event("w2"), bot, narrow, faint, event("w1")},
		UserID:    "u-7",
		UserAgent: phoneUA,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if sum.Recorded != 2 || sum.Filtered != 3 || !sum.Success {
		t.Fatalf("summary=%+v", sum)
	}
	if got := testutil.ToFloat64(filteredBot) - before; got != 1 {
		t.Fatalf("bot filtered metric=%v", got)
	}
	if !r.at.Equal(t0) || r.users[0] != "u-7" {
		t.Fatalf("insert at=%v users=%v", r.at, r.users)
	}
	if stored := r.rows[event("w1").Key()]; stored.UserAgent != phoneUA {
		t.Fatalf("fallback user agent not applied: %q", stored.UserAgent)
	}

	if len(a.rows) != 5 {
		t.Fatalf("analytics rows=%d", len(a.rows))
	}
	last := a.rows[4]
	if last[11] != "filtered" || last[12] != string(impression.ReasonRatio) || last[6] != int32(3) {
		t.Fatalf("analytics row=%v", last)
	}
}

func TestRecord_RepeatAcrossBatchesIsSwallowed(t *testing.T) {
	t.Parallel()
	s := newSvc(newFakeRepo(), nil)
	b := domain.Batch{Events: []impression.Event{event("w1")}, UserAgent: phoneUA}

	if sum, _ := s.Record(context.Background(), b); sum.Recorded != 1 {
		t.Fatalf("first=%+v", sum)
	}
	sum, err := s.Record(context.Background(), b)
	if err != nil || sum != (impression.Summary{Success: true}) {
		t.Fatalf("repeat=%+v err=%v", sum, err)
	}
}

func TestRecord_StoreOutageIsUnavailable(t *testing.T) {
	t.Parallel()
	r := newFakeRepo()
	r.err = errors.New("dial tcp: connection refused")

	_, err := newSvc(r, nil).Record(context.Background(), domain.Batch{Events: []impression.Event{event("w1")}})
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err=%v", err)
	}
}

func TestRecord_EmptyAndOversized(t *testing.T) {
	t.Parallel()
	s := newSvc(newFakeRepo(), nil)

	sum, err := s.Record(context.Background(), domain.Batch{})
	if err != nil || sum != (impression.Summary{Success: true}) {
		t.Fatalf("empty=%+v err=%v", sum, err)
	}

	big := make([]impression.Event, domain.MaxBatch+1)
	_, err = s.Record(context.Background(), domain.Batch{Events: big})
	if e, ok := perr.As(err); !ok || e.Field() != "impressions" {
		t.Fatalf("err=%v", err)
	}
}

func TestRow_MissingPosition(t *testing.T) {
	t.Parallel()
	e := event("w9")
	e.Position = nil
	row := Row(t0, "", e, "accepted", "")
	if row[6] != int32(-1) || row[0] != t0 || row[12] != "" {
		t.Fatalf("row=%v", row)
	}
}
