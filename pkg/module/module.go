// Package module mounts self-contained HTTP handlers, such as the run API,
// under single-level path prefixes of one server.
package module

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JaimeStill/advsynth/pkg/middleware"
)

// ErrInvalidPrefix reports a module prefix that is not a single-level path like "/api".
var ErrInvalidPrefix = errors.New("invalid module prefix")

// Module is an HTTP handler that strips its prefix and delegates to an inner router
// with its own middleware stack.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System
}

// New creates a Module mounted at prefix. It panics with an error wrapping
// ErrInvalidPrefix when prefix is empty, relative, or multi-level.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

func (m *Module) Handler() http.Handler {
	return m.middleware.Apply(m.router)
}

func (m *Module) Prefix() string {
	return m.prefix
}

// Serve strips the module prefix and dispatches to the inner router. Escaped
// segments survive the strip, so a route like /runs/{id} still sees one segment
// for an id containing %2F.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.Handler().ServeHTTP(w, stripPrefix(req, m.prefix))
}

// Use appends middleware to the module's stack; nil entries are skipped.
func (m *Module) Use(mws ...middleware.Func) {
	m.middleware.Use(mws...)
}

func stripPrefix(req *http.Request, prefix string) *http.Request {
	r := new(http.Request)
	*r = *req
	r.URL = new(url.URL)
	*r.URL = *req.URL

	r.URL.Path = trimPrefix(req.URL.Path, prefix)
	r.URL.RawPath = ""
	if raw := req.URL.RawPath; strings.HasPrefix(raw, prefix) {
		r.URL.RawPath = trimPrefix(raw, prefix)
	}
	return r
}

func trimPrefix(path, prefix string) string {
	if rest := strings.TrimPrefix(path, prefix); rest != "" {
		return rest
	}
	return "/"
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("%w: empty", ErrInvalidPrefix)
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("%w: %q must start with /", ErrInvalidPrefix, prefix)
	case strings.Count(prefix, "/") != 1:
		return fmt.Errorf("%w: %q must be a single-level path", ErrInvalidPrefix, prefix)
	}
	return nil
}
