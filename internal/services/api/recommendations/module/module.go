// Package module wires recommendations into the API using modkit
package module

import (
	"bunshare/internal/modkit"
	"bunshare/internal/modkit/httpkit"
	"bunshare/internal/modkit/repokit"
	"bunshare/internal/services/api/recommendations/adapter"
	"bunshare/internal/services/api/recommendations/domain"
	rechttp "bunshare/internal/services/api/recommendations/http"
	recrepo "bunshare/internal/services/api/recommendations/repo"
	recsvc "bunshare/internal/services/api/recommendations/service"
)

// Ports holds the ports exposed by the recommendations module. Postgres and
// Application serve end users; the Compare pair are separate instances with
// their own breakers for side-by-side comparison runs.
type Ports struct {
	Service            domain.ServicePort
	Postgres           domain.Adapter
	Application        domain.Adapter
	ComparePostgres    domain.Adapter
	CompareApplication domain.Adapter
}

// CompareBreakerPrefix names the breakers of the comparison adapters
const CompareBreakerPrefix = "abtest-"

// Module implements the modkit.Module interface
type Module struct {
	modkit.Base
	svc *recsvc.Svc
}

// New constructs the recommendations module over deps.PG
func New(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	repo := repokit.MustBind(recrepo.NewPG(), deps.PG)
	return NewWithRepo(repo, o, opts...)
}

// NewWithRepo constructs the module over an already bound repo
func NewWithRepo(repo recrepo.Repo, o Options, opts ...modkit.Option) *Module {
	pg := adapter.NewPostgres(repo)
	app := adapter.NewApplication(repo,
		adapter.WithWeights(o.Weights),
		adapter.WithPoolSize(o.PoolSize),
	)
	svc := recsvc.New(o.Service, repo, pg, app)

	cmpPG := adapter.NewPostgres(repo, adapter.WithBreakerPrefix(CompareBreakerPrefix))
	cmpApp := adapter.NewApplication(repo,
		adapter.WithBreakerPrefix(CompareBreakerPrefix),
		adapter.WithWeights(o.Weights),
		adapter.WithPoolSize(o.PoolSize),
	)

	ho := rechttp.Options{PrivateTTL: o.PrivateTTL, PublicTTL: o.PublicTTL}
	if o.Limits != nil {
		ho.Read = o.Limits.Limiter("read", o.ReadMax)
		ho.More = o.Limits.Limiter("more", o.MoreMax)
	}

	m := &Module{svc: svc}
	m.Base = modkit.NewBase(
		[]modkit.Option{
			modkit.WithName("recommendations"),
			modkit.WithPrefix("/recommendations"),
			modkit.WithPorts(Ports{
				Service:            svc,
				Postgres:           pg,
				Application:        app,
				ComparePostgres:    cmpPG,
				CompareApplication: cmpApp,
			}),
			modkit.WithRegister(func(r httpkit.Router) { rechttp.Register(r, svc, ho) }),
		},
		opts...,
	)
	return m
}

// Service returns the orchestrator
func (m *Module) Service() *recsvc.Svc { return m.svc }
