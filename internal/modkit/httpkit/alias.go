// Package httpkit is the HTTP surface modules program against: aliases of
// the platform transport, route sugar, auth, admin gate and rate limiting
package httpkit

import (
	"net/http"

	phttp "bunshare/internal/platform/net/http"
	"bunshare/internal/platform/net/middleware"
)

type (
	// Router is the platform router seam
	Router = phttp.Router

	// Response is a return-style handler result
	Response = phttp.Response

	// Handler is the platform handler shape
	Handler = phttp.Handler

	// Envelope is the wire envelope
	Envelope = phttp.Envelope

	// Middleware is the standard middleware shape
	Middleware = middleware.Middleware
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// Created returns a 201 response
func Created(data any) Response { return phttp.Created(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Error returns a response rendered from err
func Error(err error) Response { return phttp.Error(err) }

// Call adapts a handler that reads no body
func Call(fn func(*http.Request) (any, error)) Handler { return phttp.JSONHandlerNoBody(fn) }

// JSON adapts a handler taking a bound and validated T body
func JSON[T any](fn func(*http.Request, T) (any, error)) Handler { return phttp.JSONHandler(fn) }

// Handle adapts a Response-returning function
func Handle(fn func(*http.Request) Response) Handler { return phttp.Handle(fn) }
