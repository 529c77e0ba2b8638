// Package middleware holds the HTTP middleware mounted on the run API: CORS,
// request logging, body limits, and bearer-token auth.
package middleware

import "net/http"

// Func wraps an http.Handler.
type Func = func(http.Handler) http.Handler

// System manages an ordered stack of HTTP middleware. The first Func added runs outermost.
type System interface {
	Use(mws ...Func)
	Apply(handler http.Handler) http.Handler
}

type stack struct {
	funcs []Func
}

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

// Use appends mws to the stack. Nil entries are skipped so optional
// middleware, such as auth when no issuer is configured, can be passed inline.
func (s *stack) Use(mws ...Func) {
	for _, mw := range mws {
		if mw != nil {
			s.funcs = append(s.funcs, mw)
		}
	}
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.funcs) - 1; i >= 0; i-- {
		handler = s.funcs[i](handler)
	}
	return handler
}
