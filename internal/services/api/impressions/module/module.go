// Package module wires impression recording into the API using modkit
package module

import (
	"bunshare/internal/core/impression"
	"bunshare/internal/modkit"
	"bunshare/internal/modkit/httpkit"
	"bunshare/internal/modkit/repokit"
	"bunshare/internal/services/api/impressions/domain"
	imphttp "bunshare/internal/services/api/impressions/http"
	imprepo "bunshare/internal/services/api/impressions/repo"
	impsvc "bunshare/internal/services/api/impressions/service"
)

// Ports holds the ports exposed by the impressions module
type Ports struct {
	Recorder domain.RecorderPort
}

// Module implements the modkit.Module interface
type Module struct {
	modkit.Base
}

// New constructs the impressions module over deps.PG
func New(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	repo := repokit.MustBind(imprepo.NewPG(), deps.PG)
	return NewWithRepo(repo, o, opts...)
}

// NewWithRepo constructs the module over an already bound repo
func NewWithRepo(repo imprepo.Repo, o Options, opts ...modkit.Option) *Module {
	var so []impsvc.Option
	if o.Analytics != nil {
		so = append(so, impsvc.WithAnalytics(o.Analytics))
	}
	svc := impsvc.New(repo, impression.NewValidator(o.Rules), so...)

	return &Module{Base: modkit.NewBase(
		[]modkit.Option{
			modkit.WithName("impressions"),
			modkit.WithPrefix("/impressions"),
			modkit.WithMiddlewares(httpkit.NoCache()),
			modkit.WithPorts(Ports{Recorder: svc}),
			modkit.WithRegister(func(r httpkit.Router) { imphttp.Register(r, svc) }),
		},
		opts...,
	)}
}
