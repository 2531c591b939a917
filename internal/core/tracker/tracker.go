// Package tracker turns visibility callbacks for work cards into deduplicated,
// batched impression events.
//
// Each tracked card moves through explicit states:
//
//	Idle -> Observing (partly visible) -> Visible (ratio >= threshold)
//	     -> Recorded (stayed visible for MinDwell) -> Idle (scrolled away)
//
// The Visible -> Recorded step is a cancellable dwell timer. Recorded cards
// queue one event per (session, work, type, page); the queue is flushed a
// fixed delay after its first event, or at once through the best-effort
// beacon path on unload.
package tracker

import (
	"context"
	"sync"
	"time"

	"bunshare/internal/core/impression"
	"bunshare/internal/platform/logger"
	ptime "bunshare/internal/platform/time"

	"github.com/google/uuid"
)

// State is a card's visibility state
type State int

// Card states
const (
	Idle State = iota
	Observing
	Visible
	Recorded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Observing:
		return "observing"
	case Visible:
		return "visible"
	case Recorded:
		return "recorded"
	}
	return "unknown"
}

// Sender delivers a batch and reports what the server kept
type Sender interface {
	Send(ctx context.Context, batch []impression.Event) (impression.Summary, error)
}

// BeaconSender hands a batch off without waiting. It reports whether the
// batch was accepted for delivery, never whether it arrived.
type BeaconSender interface {
	Beacon(batch []impression.Event) bool
}

// Card describes what a tracked element shows
type Card struct {
	WorkID   string
	Type     impression.Type
	Page     impression.PageContext
	Position *int
}

// Viewport is the client's window size in CSS pixels
type Viewport struct {
	Width  int
	Height int
}

// Config tunes a Tracker; zero values take the defaults
type Config struct {
	Threshold   float64
	MinDwell    time.Duration
	FlushDelay  time.Duration
	MaxQueue    int
	SendTimeout time.Duration
	Viewport    Viewport
	UserAgent   string
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 || c.Threshold > 1 {
		c.Threshold = 0.5
	}
	if c.MinDwell <= 0 {
		c.MinDwell = time.Second
	}
	if c.FlushDelay <= 0 {
		c.FlushDelay = 2 * time.Second
	}
	if c.MaxQueue <= 0 {
		c.MaxQueue = 100
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 5 * time.Second
	}
	return c
}

// Option configures a Tracker
type Option func(*Tracker)

// WithConfig sets thresholds, delays and client properties
func WithConfig(c Config) Option { return func(t *Tracker) { t.cfg = c.withDefaults() } }

// WithClock replaces the system clock
func WithClock(c ptime.Clock) Option { return func(t *Tracker) { t.clock = c } }

// WithStateHook observes every state change
func WithStateHook(fn func(key string, from, to State)) Option {
	return func(t *Tracker) { t.hook = fn }
}

type element struct {
	card         Card
	state        State
	ratio        float64
	visibleSince time.Time
	dwell        ptime.Timer
	gen          uint64
}

// Tracker is safe for concurrent use; timer callbacks may run on other goroutines
type Tracker struct {
	mu       sync.Mutex
	cfg      Config
	session  string
	clock    ptime.Clock
	sender   Sender
	beacon   BeaconSender
	hook     func(string, State, State)
	log      *logger.Logger
	elements map[string]*element
	seen     map[impression.Key]struct{}
	queue    []impression.Event
	flush    ptime.Timer
	closed   bool
}

// New returns a Tracker for one session; an empty sessionID gets a random one
func New(sessionID string, sender Sender, beacon BeaconSender, opts ...Option) *Tracker {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	t := &Tracker{
		cfg:      Config{}.withDefaults(),
		session:  sessionID,
		clock:    ptime.System{},
		sender:   sender,
		beacon:   beacon,
		log:      logger.Named("tracker"),
		elements: map[string]*element{},
		seen:     map[impression.Key]struct{}{},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Session is the session id stamped on every event
func (t *Tracker) Session() string { return t.session }

// Track starts watching key; re-tracking resets the card to Idle
func (t *Tracker) Track(key string, c Card) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.elements[key]; ok {
		t.stopDwell(old)
	}
	t.elements[key] = &element{card: c}
}

// Untrack stops watching key and cancels a pending dwell
func (t *Tracker) Untrack(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if el, ok := t.elements[key]; ok {
		t.stopDwell(el)
		delete(t.elements, key)
	}
}

// State returns key's state; untracked keys are Idle
func (t *Tracker) State(key string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if el, ok := t.elements[key]; ok {
		return el.state
	}
	return Idle
}

// Pending is the number of queued events
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// Observe is the visibility callback for key with the current intersection ratio
func (t *Tracker) Observe(key string, ratio float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	el, ok := t.elements[key]
	if !ok || t.closed {
		return
	}

	switch {
	case ratio <= 0:
		t.stopDwell(el)
		t.move(key, el, Idle)

	case ratio < t.cfg.Threshold:
		switch el.state {
		case Idle:
			t.move(key, el, Observing)
		case Visible:
			t.stopDwell(el)
			t.move(key, el, Observing)
		case Recorded:
			t.move(key, el, Idle)
		}

	default:
		switch el.state {
		case Idle, Observing:
			el.ratio = ratio
			el.visibleSince = t.clock.Now()
			t.startDwell(key, el)
			t.move(key, el, Visible)
		case Visible:
			el.ratio = max(el.ratio, ratio)
		}
	}
}

func (t *Tracker) move(key string, el *element, to State) {
	from := el.state
	if from == to {
		return
	}
	el.state = to
	if t.hook != nil {
		t.hook(key, from, to)
	}
}

func (t *Tracker) startDwell(key string, el *element) {
	el.gen++
	gen := el.gen
	el.dwell = t.clock.AfterFunc(t.cfg.MinDwell, func() { t.dwellElapsed(key, gen) })
}

func (t *Tracker) stopDwell(el *element) {
	if el.dwell != nil {
		el.dwell.Stop()
		el.dwell = nil
	}
	el.gen++
}

// dwellElapsed runs on the timer; a stale generation means the card left
// view or was re-tracked after the timer was armed
func (t *Tracker) dwellElapsed(key string, gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	el, ok := t.elements[key]
	if !ok || el.gen != gen || el.state != Visible || t.closed {
		return
	}
	el.dwell = nil
	t.move(key, el, Recorded)
	t.enqueue(el)
}

func (t *Tracker) enqueue(el *element) {
	ev := impression.Event{
		WorkID:            el.card.WorkID,
		SessionID:         t.session,
		Type:              el.card.Type,
		PageContext:       el.card.Page,
		Position:          el.card.Position,
		IntersectionRatio: el.ratio,
		DisplayDuration:   t.clock.Now().Sub(el.visibleSince).Milliseconds(),
		ViewportWidth:     t.cfg.Viewport.Width,
		ViewportHeight:    t.cfg.Viewport.Height,
		UserAgent:         t.cfg.UserAgent,
	}
	k := ev.Key()
	if _, dup := t.seen[k]; dup {
		return
	}
	if len(t.queue) >= t.cfg.MaxQueue {
		t.log.Debug().Str("work_id", ev.WorkID).Msg("impression queue full; dropping event")
		return
	}
	t.seen[k] = struct{}{}
	t.queue = append(t.queue, ev)
	if len(t.queue) == 1 {
		t.flush = t.clock.AfterFunc(t.cfg.FlushDelay, t.flushOnTimer)
	}
}

func (t *Tracker) flushOnTimer() {
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.SendTimeout)
	defer cancel()
	_, _ = t.Flush(ctx)
}

// take empties the queue and disarms the flush timer
func (t *Tracker) take() []impression.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.flush != nil {
		t.flush.Stop()
		t.flush = nil
	}
	batch := t.queue
	t.queue = nil
	return batch
}

// Flush sends the queued batch through the Sender. A failed batch is
// dropped; impressions are fire-and-forget.
func (t *Tracker) Flush(ctx context.Context) (impression.Summary, error) {
	batch := t.take()
	if len(batch) == 0 || t.sender == nil {
		return impression.Summary{Success: true}, nil
	}
	sum, err := t.sender.Send(ctx, batch)
	if err != nil {
		t.log.Debug().Err(err).Int("events", len(batch)).Msg("impression flush failed")
		return impression.Summary{}, err
	}
	return sum, nil
}

// FlushBestEffort hands the queue to the beacon without blocking and
// returns how many events were handed off
func (t *Tracker) FlushBestEffort() int {
	batch := t.take()
	if len(batch) == 0 || t.beacon == nil {
		return 0
	}
	if !t.beacon.Beacon(batch) {
		return 0
	}
	return len(batch)
}

// Close cancels every timer and beacons whatever is queued, as on page unload
func (t *Tracker) Close() int {
	t.mu.Lock()
	t.closed = true
	for _, el := range t.elements {
		t.stopDwell(el)
	}
	t.mu.Unlock()
	return t.FlushBestEffort()
}
