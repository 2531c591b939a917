// Package module owns the clickhouse analytics sinks. It has no routes; the
// API modules enqueue into its ports and the supervisor runs its services.
package module

import (
	"time"

	"bunshare/internal/modkit"
	"bunshare/internal/modkit/httpkit"
	"bunshare/internal/platform/config"
	"bunshare/internal/services/analytics/domain"
	"bunshare/internal/services/analytics/service"

	"github.com/thejerf/suture/v4"
)

// Ports holds the sinks; both are nil when clickhouse is not configured
type Ports struct {
	Impressions *service.Sink
	Comparisons *service.Sink
}

// Module implements the modkit.Module interface
type Module struct {
	modkit.Base
	ports Ports
}

// FromConfig reads ANALYTICS_* keys
func FromConfig(cfg config.Conf) service.Config {
	c := cfg.Prefix("ANALYTICS_")
	return service.Config{
		Buffer:        c.MayInt("BUFFER", 10000),
		BatchSize:     c.MayInt("BATCH_SIZE", 500),
		FlushInterval: c.MayDuration("FLUSH_INTERVAL", 2*time.Second),
		WriteTimeout:  c.MayDuration("WRITE_TIMEOUT", 5*time.Second),
	}
}

// New builds a sink per table over deps.CH
func New(deps modkit.Deps, sc service.Config, opts ...modkit.Option) *Module {
	var w service.Writer
	if deps.CH != nil {
		w = deps.CH
	}
	return NewWithWriter(w, sc, opts...)
}

// NewWithWriter builds the sinks over w; a nil w disables analytics
func NewWithWriter(w service.Writer, sc service.Config, opts ...modkit.Option) *Module {
	m := &Module{}
	if w != nil {
		m.ports = Ports{
			Impressions: service.NewSink(w, domain.ImpressionEvents, sc),
			Comparisons: service.NewSink(w, domain.ABComparisons, sc),
		}
	}
	m.Base = modkit.NewBase(
		[]modkit.Option{
			modkit.WithName("analytics"),
			modkit.WithPrefix("/analytics"),
			modkit.WithPorts(m.ports),
		},
		opts...,
	)
	return m
}

// Enabled reports whether rows are going anywhere
func (m *Module) Enabled() bool { return m.ports.Impressions != nil }

// MountRoutes mounts nothing
func (m *Module) MountRoutes(httpkit.Router) {}

// Services returns the sinks to supervise
func (m *Module) Services() []suture.Service {
	if !m.Enabled() {
		return nil
	}
	return []suture.Service{m.ports.Impressions, m.ports.Comparisons}
}
