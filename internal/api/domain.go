package api

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/advsynth/internal/config"
	"github.com/JaimeStill/advsynth/internal/pipeline"
	"github.com/JaimeStill/advsynth/internal/runs"
	"github.com/JaimeStill/advsynth/pkg/database"
)

// ErrDatabaseRequired is returned when the API is built without a run registry database.
var ErrDatabaseRequired = errors.New("api requires database.enabled")

// Domain holds the systems that comprise the API.
type Domain struct {
	Runs     runs.System
	Pipeline *pipeline.Orchestrator
}

// NewDomain creates the run registry and the orchestrator that records into it.
// The generation backend is warmed up during lifecycle startup.
func NewDomain(cfg *config.Config, runtime *Runtime) (*Domain, error) {
	registry := runtime.Runs(cfg)
	if registry == nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseRequired, database.ErrDisabled)
	}

	orch, backend, err := runtime.Pipeline(cfg, registry)
	if err != nil {
		return nil, err
	}
	runtime.Warmup(backend)

	return &Domain{
		Runs:     registry,
		Pipeline: orch,
	}, nil
}
