package http

import (
	"net/http"

	"bunshare/internal/platform/net/http/bind"
)

// JSONHandler binds and validates a T body, then renders fn's result.
// fn may return a Response to control status or headers.
func JSONHandler[T any](fn func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return Error(err)
		}
		return render(fn(r, in))
	})
}

// JSONHandlerNoBody renders fn's result without reading a body
func JSONHandlerNoBody(fn func(*http.Request) (any, error)) Handler {
	return Handle(func(r *http.Request) Response { return render(fn(r)) })
}

func render(out any, err error) Response {
	if err != nil {
		return Error(err)
	}
	if resp, ok := out.(Response); ok {
		return resp
	}
	return OK(out)
}
