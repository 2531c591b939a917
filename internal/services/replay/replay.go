// Package replay drives impression trackers from a recorded visibility log.
// Each line is one JSON Entry; entries must be in time order. Time is
// virtual: the log's timestamps move the trackers' clock, so dwell and
// flush timers fire exactly as they would have in the browser.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"sync"
	"time"

	"bunshare/internal/core/impression"
	"bunshare/internal/core/tracker"
	perr "bunshare/internal/platform/errors"
	"bunshare/internal/platform/logger"
	ptime "bunshare/internal/platform/time"
)

// Ops understood in the log
const (
	OpTrack   = "track"
	OpObserve = "observe"
	OpUntrack = "untrack"
	OpFlush   = "flush"
	OpUnload  = "unload"
)

// Entry is one visibility log line
type Entry struct {
	At       time.Time              `json:"at"`
	Session  string                 `json:"session"`
	Op       string                 `json:"op"`
	Key      string                 `json:"key,omitempty"`
	WorkID   string                 `json:"workId,omitempty"`
	Type     impression.Type        `json:"impressionType,omitempty"`
	Page     impression.PageContext `json:"pageContext,omitempty"`
	Position *int                   `json:"position,omitempty"`
	Ratio    float64                `json:"ratio,omitempty"`
}

// Stats summarizes a run
type Stats struct {
	Entries  int `json:"entries"`
	Sessions int `json:"sessions"`
	Batches  int `json:"batches"`
	Sent     int `json:"sent"`
	Recorded int `json:"recorded"`
	Filtered int `json:"filtered"`
	Failed   int `json:"failed"`
	Beaconed int `json:"beaconed"`
}

// Runner owns one tracker per session
type Runner struct {
	sender   tracker.Sender
	beacon   tracker.BeaconSender
	cfg      tracker.Config
	log      *logger.Logger
	clock    *ptime.Fake
	sessions map[string]*tracker.Tracker

	mu    sync.Mutex
	stats Stats
}

// New returns a Runner. sender receives debounced batches, beacon receives
// whatever is queued when a session unloads or the log ends.
func New(sender tracker.Sender, beacon tracker.BeaconSender, cfg tracker.Config) *Runner {
	return &Runner{
		sender:   sender,
		beacon:   beacon,
		cfg:      cfg,
		log:      logger.Named("replay"),
		sessions: map[string]*tracker.Tracker{},
	}
}

// Run replays every entry in in, then unloads the sessions still open
func (r *Runner) Run(ctx context.Context, in io.Reader) (Stats, error) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return r.snapshot(), perr.FromContext(err, "replay cancelled")
		}
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return r.snapshot(), perr.Wrapf(err, perr.ErrorCodeJSON, "line %d", line)
		}
		if err := r.apply(e); err != nil {
			return r.snapshot(), perr.WithOp(err, "line "+strconv.Itoa(line))
		}
	}
	if err := sc.Err(); err != nil {
		return r.snapshot(), perr.Wrap(err, perr.ErrorCodeUnknown, "read visibility log")
	}
	for id, tr := range r.sessions {
		r.unload(id, tr)
	}
	return r.snapshot(), nil
}

func (r *Runner) apply(e Entry) error {
	if e.Session == "" || e.At.IsZero() {
		return perr.Validationf("entry needs a session and a time")
	}
	if r.clock == nil {
		r.clock = ptime.NewFake(e.At)
	}
	now := r.clock.Now()
	if e.At.Before(now) {
		return perr.Validationf("entry at %s is before %s", e.At.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	}
	r.clock.Advance(e.At.Sub(now))

	r.mu.Lock()
	r.stats.Entries++
	r.mu.Unlock()

	tr := r.sessions[e.Session]
	if tr == nil {
		if e.Op == OpUnload {
			return nil
		}
		tr = tracker.New(e.Session, countingSender{r}, r.beacon,
			tracker.WithClock(r.clock),
			tracker.WithConfig(r.cfg),
		)
		r.sessions[e.Session] = tr
		r.mu.Lock()
		r.stats.Sessions++
		r.mu.Unlock()
	}

	switch e.Op {
	case OpTrack:
		if e.Key == "" || e.WorkID == "" {
			return perr.WithField(perr.Validationf("track needs key and workId"), "key")
		}
		tr.Track(e.Key, tracker.Card{WorkID: e.WorkID, Type: e.Type, Page: e.Page, Position: e.Position})
	case OpObserve:
		tr.Observe(e.Key, e.Ratio)
	case OpUntrack:
		tr.Untrack(e.Key)
	case OpFlush:
		ctx, cancel := context.WithTimeout(context.Background(), r.sendTimeout())
		_, _ = tr.Flush(ctx)
		cancel()
	case OpUnload:
		r.unload(e.Session, tr)
	default:
		return perr.WithField(perr.Validationf("unknown op %q", e.Op), "op")
	}
	return nil
}

func (r *Runner) unload(id string, tr *tracker.Tracker) {
	n := tr.Close()
	delete(r.sessions, id)
	r.mu.Lock()
	r.stats.Beaconed += n
	r.mu.Unlock()
	r.log.Debug().Str("session", id).Int("beaconed", n).Msg("session unloaded")
}

func (r *Runner) sendTimeout() time.Duration {
	if r.cfg.SendTimeout > 0 {
		return r.cfg.SendTimeout
	}
	return 5 * time.Second
}

func (r *Runner) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// countingSender tallies what the server made of each batch
type countingSender struct{ r *Runner }

func (c countingSender) Send(ctx context.Context, batch []impression.Event) (impression.Summary, error) {
	if c.r.sender == nil {
		return impression.Summary{Success: true}, nil
	}
	sum, err := c.r.sender.Send(ctx, batch)
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	c.r.stats.Batches++
	c.r.stats.Sent += len(batch)
	if err != nil {
		c.r.stats.Failed += len(batch)
		return sum, err
	}
	c.r.stats.Recorded += sum.Recorded
	c.r.stats.Filtered += sum.Filtered
	return sum, nil
}

