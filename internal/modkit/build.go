package modkit

import (
	"bunshare/internal/modkit/httpkit"
	pstrings "bunshare/internal/platform/strings"
)

// Built is the resolved option set
type Built struct {
	Name     string
	Prefix   string
	Mw       []httpkit.Middleware
	Ports    any
	Register []func(httpkit.Router)
}

// Build applies opts in order; later options win for scalar fields
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		if o != nil {
			o(&c)
		}
	}
	return Built{
		Name:     c.name,
		Prefix:   c.prefix,
		Mw:       append([]httpkit.Middleware(nil), c.mw...),
		Ports:    c.ports,
		Register: append(([]func(httpkit.Router))(nil), c.register...),
	}
}

// Base implements Module from a Built. Modules embed it and pass their
// handlers in through WithRegister.
type Base struct {
	b Built
}

// NewBase builds a Base from defaults followed by caller options
func NewBase(defaults []Option, opts ...Option) Base {
	return Base{b: Build(append(defaults, opts...)...)}
}

// Name implements Module
func (m Base) Name() string { return pstrings.MustString(m.b.Name, "module") }

// Prefix is the normalized mount prefix
func (m Base) Prefix() string { return pstrings.MustPrefix(m.b.Prefix) }

// Ports implements Module
func (m Base) Ports() any { return m.b.Ports }

// Middlewares returns a copy of the per module middleware
func (m Base) Middlewares() []httpkit.Middleware {
	return append([]httpkit.Middleware(nil), m.b.Mw...)
}

// MountRoutes implements Module
func (m Base) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.Prefix(), m.b.Mw, func(sub httpkit.Router) {
		for _, reg := range m.b.Register {
			reg(sub)
		}
	})
}
