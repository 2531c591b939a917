// Package modkit wires API modules: shared deps, build options and a base
// that mounts a module's routes under its prefix
package modkit

import "bunshare/internal/modkit/module"

// Module is the surface every API module implements
type Module = module.Module

// Builder constructs a Module from shared deps and options
type Builder func(Deps, ...Option) Module
