package module_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/advsynth/pkg/module"
)

func TestRouterDispatch(t *testing.T) {
	inner := http.NewServeMux()
	inner.HandleFunc("GET /runs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("runs:" + r.URL.Path))
	})
	inner.HandleFunc("GET /runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("run:" + r.PathValue("id")))
	})

	router := module.NewRouter()
	router.Mount(module.New("/api", inner))
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	tests := []struct {
		path string
		want string
	}{
		{"/api/runs", "runs:/runs"},
		{"/api/runs/", "runs:/runs"},
		{"/api/runs/42", "run:42"},
		{"/api/runs/a%2Fb", "run:a/b"},
		{"/healthz", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("body: got %q, want %q", got, tt.want)
			}
		})
	}

	if diff := cmp.Diff([]string{"/api"}, router.Prefixes()); diff != "" {
		t.Errorf("prefixes mismatch (-want +got):\n%s", diff)
	}
}

func TestNewPanicsOnInvalidPrefix(t *testing.T) {
	for _, prefix := range []string{"", "api", "/api/v1"} {
		t.Run(prefix, func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok || !errors.Is(err, module.ErrInvalidPrefix) {
					t.Errorf("New(%q): expected ErrInvalidPrefix panic, got %v", prefix, r)
				}
			}()
			module.New(prefix, http.NewServeMux())
		})
	}
}

func TestModuleUse(t *testing.T) {
	m := module.New("/api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Add("X-Stack", name)
				next.ServeHTTP(w, r)
			})
		}
	}
	m.Use(tag("cors"), nil, tag("logger"))

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest("GET", "/api", nil))

	if got := rec.Header().Values("X-Stack"); len(got) != 2 || got[0] != "cors" || got[1] != "logger" {
		t.Errorf("stack: got %v", got)
	}
	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s", m.Prefix())
	}
}
