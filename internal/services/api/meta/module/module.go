// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"bunshare/internal/modkit"
	"bunshare/internal/modkit/httpkit"

	metahttp "bunshare/internal/services/api/meta/http"
)

// ServiceName is reported by the health and version endpoints
const ServiceName = "bunshare-api"

// Module implements the modkit.Module interface
type Module struct {
	modkit.Base
}

// New constructs a meta module with the provided dependencies and options.
// Readiness pings deps.PG and deps.CH when they are configured.
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	clock := deps.Time()
	d := metahttp.Deps{
		ServiceName: ServiceName,
		StartedAt:   clock.Now(),
		Clock:       clock,
	}
	if deps.PG != nil {
		d.PG = deps.PG
	}
	if deps.CH != nil {
		d.CH = deps.CH
	}
	return &Module{Base: modkit.NewBase(
		[]modkit.Option{
			modkit.WithName("meta"),
			modkit.WithPrefix("/meta"),
			modkit.WithMiddlewares(httpkit.NoCache()),
			modkit.WithRegister(func(r httpkit.Router) { metahttp.Register(r, d) }),
		},
		opts...,
	)}
}
