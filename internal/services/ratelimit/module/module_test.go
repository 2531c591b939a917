package module

import (
	"context"
	"testing"
	"time"

	"bunshare/internal/modkit"
	"bunshare/internal/modkit/module"
)

func TestNew_PGWithoutPostgresFallsBackToMemory(t *testing.T) {
	t.Parallel()
	m := New(modkit.Deps{}, Options{Backend: BackendPG, Window: time.Minute})
	if m.Backend() != BackendMemory {
		t.Fatalf("backend=%q", m.Backend())
	}
	p := module.MustPortsOf[Ports](m).Provider
	if p == nil {
		t.Fatalf("provider port missing")
	}
	if !p.Limiter("x", 1).Check(context.Background(), "ip").Allowed {
		t.Fatalf("fresh limiter should allow")
	}
	if len(m.Services()) != 1 || m.Name() != "ratelimit" {
		t.Fatalf("services=%d name=%q", len(m.Services()), m.Name())
	}
}

func TestFromConfig_Defaults(t *testing.T) {
	o := FromConfig(configWith(t, nil))
	if o.Backend != BackendMemory || o.Window != time.Minute || o.SweepEvery != 5*time.Minute {
		t.Fatalf("options=%+v", o)
	}
	o = FromConfig(configWith(t, map[string]string{"RATELIMIT_BACKEND": "PG", "RATELIMIT_WINDOW": "30s"}))
	if o.Backend != BackendPG || o.Window != 30*time.Second {
		t.Fatalf("options=%+v", o)
	}
}
