// Package api assembles the API module with the run registry and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/advsynth/internal/config"
	"github.com/JaimeStill/advsynth/internal/infrastructure"
	"github.com/JaimeStill/advsynth/pkg/middleware"
	"github.com/JaimeStill/advsynth/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The run registry needs a database, so database.enabled must be set.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(cfg, runtime)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	var auth middleware.Func
	if cfg.API.Auth.Enabled() {
		verifier, err := middleware.NewOIDCVerifier(infra.Lifecycle.Context(), &cfg.API.Auth)
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		auth = middleware.Auth(verifier)
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(
		middleware.CORS(&cfg.API.CORS),
		middleware.Logger(runtime.Logger),
		middleware.MaxBytes(cfg.API.MaxRequestSizeBytes()),
		auth,
	)

	return m, nil
}
