package api

import (
	"net/http"

	"github.com/JaimeStill/advsynth/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(
		mux,
		domain.Runs.Handler(domain.Pipeline).Routes()...,
	)
}
