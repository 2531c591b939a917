package supervisor

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

type blocking struct{ started atomic.Int32 }

func (b *blocking) Serve(ctx context.Context) error {
	b.started.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (b *blocking) String() string { return "blocking" }

func TestTree_ServeStopsOnCancel(t *testing.T) {
	t.Parallel()
	tree := New("test", Config{ShutdownTimeout: time.Second})
	svc := &blocking{}
	tree.Add(svc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tree.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for svc.started.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("service never started")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("clean shutdown returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("tree did not stop")
	}
}

func TestEventHook_Levels(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	hook := EventHook(&log)

	hook(suture.EventServicePanic{SupervisorName: "root", ServiceName: "sink", PanicMsg: "boom"})
	hook(suture.EventResume{SupervisorName: "root"})
	hook(suture.EventBackoff{SupervisorName: "root"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines=%q", lines)
	}
	for i, want := range []string{`"level":"error"`, `"level":"info"`, `"level":"warn"`} {
		if !strings.Contains(lines[i], want) {
			t.Fatalf("line %d = %s, want %s", i, lines[i], want)
		}
	}
	if !strings.Contains(lines[0], `"event":"service_panic"`) || !strings.Contains(lines[0], `"service_name":"sink"`) {
		t.Fatalf("panic line missing fields: %s", lines[0])
	}
}
