// Package module wires the A/B comparison into the API using modkit
package module

import (
	"bunshare/internal/modkit"
	"bunshare/internal/modkit/httpkit"
	"bunshare/internal/services/api/abtest/domain"
	abhttp "bunshare/internal/services/api/abtest/http"
	abrepo "bunshare/internal/services/api/abtest/repo"
	absvc "bunshare/internal/services/api/abtest/service"
)

// Ports holds the ports exposed by the A/B module
type Ports struct {
	Comparator domain.ComparatorPort
}

// Module implements the modkit.Module interface
type Module struct {
	modkit.Base
}

// New constructs the A/B module. The score refresh needs deps.PG and the
// history needs deps.CH; each is disabled when its backend is.
func New(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	so := []absvc.Option{absvc.WithClock(deps.Time())}
	if deps.PG != nil {
		so = append(so, absvc.WithRefresher(abrepo.NewRefresher(deps.PG)))
	}
	if deps.CH != nil {
		so = append(so, absvc.WithStats(abrepo.NewCHStats(deps.CH)))
	}
	return NewWithService(o, so, opts...)
}

// NewWithService constructs the module from explicit comparator options
func NewWithService(o Options, so []absvc.Option, opts ...modkit.Option) *Module {
	if o.Log != nil {
		so = append(so, absvc.WithLog(o.Log))
	}
	svc := absvc.New(o.Service, o.Postgres, o.Application, so...)

	ho := abhttp.Options{AdminSecret: o.AdminSecret}
	if o.Limits != nil {
		ho.Compare = o.Limits.Limiter("compare", o.CompareMax)
	}
	return &Module{Base: modkit.NewBase(
		[]modkit.Option{
			modkit.WithName("abtest"),
			modkit.WithPrefix("/ab-test"),
			modkit.WithMiddlewares(httpkit.NoCache()),
			modkit.WithPorts(Ports{Comparator: svc}),
			modkit.WithRegister(func(r httpkit.Router) { abhttp.Register(r, svc, ho) }),
		},
		opts...,
	)}
}
