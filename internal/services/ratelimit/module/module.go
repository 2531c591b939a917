// Package module wires the rate limit store and janitor and exposes the
// limiter provider
package module

import (
	"bunshare/internal/core/ratelimit"
	"bunshare/internal/modkit"
	"bunshare/internal/modkit/httpkit"
	rlrepo "bunshare/internal/services/ratelimit/repo"
	rlsvc "bunshare/internal/services/ratelimit/service"

	"github.com/thejerf/suture/v4"
)

// Ports holds the ports exposed by the rate limit module
type Ports struct {
	Provider *rlsvc.Provider
}

// Module has no routes; it owns the store and its janitor
type Module struct {
	modkit.Base
	janitor *rlsvc.Janitor
	backend string
}

// New picks the store named by o.Backend. The pg backend needs deps.PG and
// falls back to memory without it.
func New(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	log := deps.Logger("ratelimit")

	var (
		store   ratelimit.Store
		sweeper rlsvc.Sweeper
		backend = o.Backend
	)
	switch {
	case backend == BackendPG && deps.PG != nil:
		pg := rlrepo.NewPGStore(deps.PG, o.StoreTimeout)
		store, sweeper = pg, pg
	default:
		if backend == BackendPG {
			log.Warn().Msg("pg rate limit backend requested without postgres; using memory")
		}
		backend = BackendMemory
		mem := ratelimit.NewMemoryStore()
		store, sweeper = mem, mem
	}

	provider := rlsvc.NewProvider(store, o.Window, deps.Time())
	m := &Module{
		janitor: rlsvc.NewJanitor(sweeper, o.SweepEvery, deps.Time()),
		backend: backend,
	}
	m.Base = modkit.NewBase(
		[]modkit.Option{modkit.WithName("ratelimit"), modkit.WithPrefix("/ratelimit"), modkit.WithPorts(Ports{Provider: provider})},
		opts...,
	)
	log.Info().Str("backend", backend).Dur("window", o.Window).Msg("rate limiter ready")
	return m
}

// MountRoutes mounts nothing; the limiters are applied by other modules
func (m *Module) MountRoutes(httpkit.Router) {}

// Backend is the store actually in use
func (m *Module) Backend() string { return m.backend }

// Services returns the background services to supervise
func (m *Module) Services() []suture.Service { return []suture.Service{m.janitor} }
