// Package supervisor runs long-lived services under a suture tree whose
// events are logged through zerolog
package supervisor

import (
	"context"
	"errors"
	"time"

	"bunshare/internal/platform/logger"

	"github.com/thejerf/suture/v4"
)

// Config tunes restart behavior; zero values take suture's defaults
type Config struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// Tree is the root supervisor for one process
type Tree struct {
	root *suture.Supervisor
	log  *logger.Logger
}

// New returns an empty tree named name
func New(name string, c Config) *Tree {
	log := logger.Named("supervisor")
	root := suture.New(name, suture.Spec{
		EventHook:        EventHook(log),
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	})
	return &Tree{root: root, log: log}
}

// Add registers services; they start with Serve or immediately if already serving
func (t *Tree) Add(services ...suture.Service) {
	for _, s := range services {
		if s != nil {
			t.root.Add(s)
		}
	}
}

// Serve blocks until ctx is done and every service has stopped.
// Cancellation is a clean exit.
func (t *Tree) Serve(ctx context.Context) error {
	err := t.root.Serve(ctx)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// EventHook logs suture events: panics at error, resumes at info, the rest at warn
func EventHook(log *logger.Logger) suture.EventHook {
	return func(e suture.Event) {
		ev := log.Warn()
		switch e.Type() {
		case suture.EventTypeServicePanic:
			ev = log.Error()
		case suture.EventTypeResume:
			ev = log.Info()
		}
		ev.Str("event", eventName(e.Type())).Fields(e.Map()).Msg(e.String())
	}
}

func eventName(t suture.EventType) string {
	switch t {
	case suture.EventTypeStopTimeout:
		return "stop_timeout"
	case suture.EventTypeServicePanic:
		return "service_panic"
	case suture.EventTypeServiceTerminate:
		return "service_terminate"
	case suture.EventTypeBackoff:
		return "backoff"
	case suture.EventTypeResume:
		return "resume"
	}
	return "unknown"
}
