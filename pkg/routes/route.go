// Package routes declares HTTP routes in groups and registers them on a ServeMux.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler. Pattern is relative to
// the enclosing Group and may use ServeMux wildcards, as in "/{id}/artifacts".
// An empty Method matches every method.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Under returns the ServeMux pattern for r mounted below prefix.
func (r Route) Under(prefix string) string {
	if r.Method == "" {
		return prefix + r.Pattern
	}
	return r.Method + " " + prefix + r.Pattern
}
