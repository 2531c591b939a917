package impression

import (
	"regexp"
	"time"
)

// Reason says why an event was filtered
type Reason string

// Filter reasons
const (
	ReasonMalformed Reason = "malformed"
	ReasonDuration  Reason = "duration"
	ReasonRatio     Reason = "ratio"
	ReasonViewport  Reason = "viewport"
	ReasonBot       Reason = "bot"
)

// DefaultBotPattern matches common crawler, preview and scripted clients
var DefaultBotPattern = regexp.MustCompile(`(?i)bot|crawl|spider|slurp|headless|phantomjs|lighthouse|facebookexternalhit|preview|curl|wget|python-requests|go-http-client`)

// Rules are the validator thresholds
type Rules struct {
	MinDuration time.Duration
	MinRatio    float64
	MinViewport int
	MaxViewport int
	BotPattern  *regexp.Regexp
}

// DefaultRules are the production thresholds
func DefaultRules() Rules {
	return Rules{
		MinDuration: 500 * time.Millisecond,
		MinRatio:    0.3,
		MinViewport: 100,
		MaxViewport: 10000,
		BotPattern:  DefaultBotPattern,
	}
}

// Validator filters impression batches
type Validator struct {
	rules Rules
}

// NewValidator returns a Validator; zero fields in r take the defaults
func NewValidator(r Rules) Validator {
	d := DefaultRules()
	if r.MinDuration <= 0 {
		r.MinDuration = d.MinDuration
	}
	if r.MinRatio <= 0 {
		r.MinRatio = d.MinRatio
	}
	if r.MinViewport <= 0 {
		r.MinViewport = d.MinViewport
	}
	if r.MaxViewport <= 0 {
		r.MaxViewport = d.MaxViewport
	}
	if r.BotPattern == nil {
		r.BotPattern = d.BotPattern
	}
	return Validator{rules: r}
}

// Rules returns the effective thresholds
func (v Validator) Rules() Rules { return v.rules }

// Check returns the first reason e is filtered, or "" when it is accepted.
// fallbackUA is used when the event carries no user agent.
func (v Validator) Check(e Event, fallbackUA string) Reason {
	switch {
	case e.WorkID == "" || e.SessionID == "" || !e.Type.Valid() || !e.PageContext.Valid():
		return ReasonMalformed
	case e.IntersectionRatio > 1 || (e.Position != nil && *e.Position < 0):
		return ReasonMalformed
	case e.Duration() < v.rules.MinDuration:
		return ReasonDuration
	case e.IntersectionRatio < v.rules.MinRatio:
		return ReasonRatio
	case !v.inViewport(e.ViewportWidth) || !v.inViewport(e.ViewportHeight):
		return ReasonViewport
	}
	ua := e.UserAgent
	if ua == "" {
		ua = fallbackUA
	}
	if ua != "" && v.rules.BotPattern.MatchString(ua) {
		return ReasonBot
	}
	return ""
}

func (v Validator) inViewport(px int) bool {
	return px >= v.rules.MinViewport && px <= v.rules.MaxViewport
}

// Rejected is a filtered event and its reason
type Rejected struct {
	Event  Event
	Reason Reason
}

// Verdict splits a batch
type Verdict struct {
	Accepted []Event
	Filtered []Rejected
}

// ByReason counts filtered events per reason
func (v Verdict) ByReason() map[Reason]int {
	out := make(map[Reason]int, len(v.Filtered))
	for _, r := range v.Filtered {
		out[r.Reason]++
	}
	return out
}

// Split checks every event in batch. Accepted events keep batch order; a
// repeated dedup key inside the batch is accepted once.
func (v Validator) Split(batch []Event, fallbackUA string) Verdict {
	var out Verdict
	seen := make(map[Key]struct{}, len(batch))
	for _, e := range batch {
		if r := v.Check(e, fallbackUA); r != "" {
			out.Filtered = append(out.Filtered, Rejected{Event: e, Reason: r})
			continue
		}
		if _, dup := seen[e.Key()]; dup {
			continue
		}
		seen[e.Key()] = struct{}{}
		if e.UserAgent == "" {
			e.UserAgent = fallbackUA
		}
		out.Accepted = append(out.Accepted, e)
	}
	return out
}
