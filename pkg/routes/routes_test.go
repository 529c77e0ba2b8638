package routes_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/advsynth/pkg/routes"
)

func tag(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Order", name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestRegisterNestedGroups(t *testing.T) {
	mux := http.NewServeMux()

	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	routes.Register(mux, routes.Group{
		Prefix:     "/runs",
		Middleware: []func(http.Handler) http.Handler{tag("outer")},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: ok},
		},
		Children: []routes.Group{
			{
				Prefix:     "/{id}",
				Middleware: []func(http.Handler) http.Handler{tag("inner")},
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/artifacts", Handler: ok},
				},
			},
		},
	})

	tests := []struct {
		path      string
		wantOrder string
	}{
		{"/runs", "outer"},
		{"/runs/abc/artifacts", "outer,inner"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d, want 200", rec.Code)
			}
			if got := strings.Join(rec.Header().Values("X-Order"), ","); got != tt.wantOrder {
				t.Errorf("middleware order: got %q, want %q", got, tt.wantOrder)
			}
		})
	}
}

func TestRouteUnder(t *testing.T) {
	tests := []struct {
		name  string
		route routes.Route
		want  string
	}{
		{"group root", routes.Route{Method: "POST", Pattern: ""}, "POST /runs"},
		{"wildcard", routes.Route{Method: "GET", Pattern: "/{id}/artifacts"}, "GET /runs/{id}/artifacts"},
		{"any method", routes.Route{Pattern: "/{id}"}, "/runs/{id}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.route.Under("/runs"); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
